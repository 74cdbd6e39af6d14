package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/index"
	"github.com/poiesic/evidentia/storage"
	"github.com/poiesic/evidentia/storage/badger"
)

// Hit is one nearest-neighbor result: a row index and its inner-product score.
type Hit struct {
	Row   int
	Score float64
}

// Store holds a corpus index in memory.
//
// A Store is immutable after Load and safe for concurrent reads without locking.
type Store struct {
	dim     int
	vectors []float32 // row-major, len = rows*dim
	chunks  []core.DocChunk
	byID    map[string]int
	summary *core.BuildSummary
	logger  *slog.Logger
}

// Option configures a Store at load time.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// Load opens the corpus store in dir and reads it fully into memory.
// A missing store is a configuration error.
func Load(ctx context.Context, dir string, opts ...Option) (*Store, error) {
	path := filepath.Join(dir, index.CorpusDirName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIndexMissing, path, err)
	}

	repo, err := badger.NewCorpusRepository(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexMissing, err)
	}
	defer repo.Close()

	return FromRepository(ctx, repo, opts...)
}

// FromRepository reads every row of repo into a new Store.
func FromRepository(ctx context.Context, repo storage.CorpusRepository, opts ...Option) (*Store, error) {
	s := &Store{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "vector-store")

	chunks, err := repo.ReadChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	vectors, err := repo.ReadVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading vectors: %w", err)
	}
	summary, err := repo.ReadSummary(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("reading build summary: %w", err)
	}
	s.summary = summary

	if len(chunks) != len(vectors) {
		n := min(len(chunks), len(vectors))
		s.logger.Warn("index/metadata row count mismatch, truncating",
			"vectors", len(vectors), "chunks", len(chunks), "kept", n)
		chunks = chunks[:n]
		vectors = vectors[:n]
	}
	if len(vectors) == 0 {
		return nil, ErrEmptyIndex
	}

	s.dim = len(vectors[0])
	if s.dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimension vectors", ErrEmptyIndex)
	}
	s.vectors = make([]float32, 0, len(vectors)*s.dim)
	for i, v := range vectors {
		if len(v) != s.dim {
			return nil, fmt.Errorf("%w: row %d has dim %d, want %d", ErrDimensionMismatch, i, len(v), s.dim)
		}
		s.vectors = append(s.vectors, v...)
	}

	s.chunks = chunks
	s.byID = make(map[string]int, len(chunks))
	for i, c := range chunks {
		if _, dup := s.byID[c.ID]; dup {
			s.logger.Warn("duplicate chunk id, keeping first row", "id", c.ID, "row", i)
			continue
		}
		s.byID[c.ID] = i
	}

	s.logger.Info("vector store loaded", "rows", len(chunks), "dim", s.dim)
	return s, nil
}

// Dim returns the embedding dimension.
func (s *Store) Dim() int { return s.dim }

// Size returns the number of rows.
func (s *Store) Size() int { return len(s.chunks) }

// Summary returns the build summary, or nil if the store has none.
func (s *Store) Summary() *core.BuildSummary { return s.summary }

// Search returns the topK rows with the highest inner product against vec,
// ordered by descending score. Ties keep the lower row first.
func (s *Store) Search(vec []float32, topK int) ([]Hit, error) {
	if len(vec) != s.dim {
		return nil, fmt.Errorf("%w: query has dim %d, index has %d", ErrDimensionMismatch, len(vec), s.dim)
	}
	if topK <= 0 {
		return nil, nil
	}

	hits := make([]Hit, len(s.chunks))
	for row := range s.chunks {
		hits[row] = Hit{Row: row, Score: s.dot(row, vec)}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *Store) dot(row int, vec []float32) float64 {
	base := row * s.dim
	var sum float64
	for i, x := range vec {
		sum += float64(s.vectors[base+i]) * float64(x)
	}
	return sum
}

// Vector returns a copy of the stored vector for row.
func (s *Store) Vector(row int) ([]float32, error) {
	if row < 0 || row >= len(s.chunks) {
		return nil, fmt.Errorf("%w: %d (size %d)", ErrRowOutOfRange, row, len(s.chunks))
	}
	base := row * s.dim
	return slices.Clone(s.vectors[base : base+s.dim]), nil
}

// Meta returns the chunk metadata for row.
func (s *Store) Meta(row int) (core.DocChunk, error) {
	if row < 0 || row >= len(s.chunks) {
		return core.DocChunk{}, fmt.Errorf("%w: %d (size %d)", ErrRowOutOfRange, row, len(s.chunks))
	}
	return s.chunks[row], nil
}

// FindByID returns the row holding the chunk with id.
func (s *Store) FindByID(id string) (int, bool) {
	row, ok := s.byID[id]
	return row, ok
}

// CorpusTexts returns chunk texts in row order, for building a lexical index.
func (s *Store) CorpusTexts() []string {
	texts := make([]string, len(s.chunks))
	for i, c := range s.chunks {
		texts[i] = c.Text
	}
	return texts
}
