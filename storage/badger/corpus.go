package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/storage"
)

// CorpusRepository implements storage.CorpusRepository for BadgerDB.
type CorpusRepository struct {
	backend   *Backend
	ownsStore bool

	mu         sync.Mutex
	chunkRows  int
	vectorRows int
}

var _ storage.CorpusRepository = (*CorpusRepository)(nil)

// NewCorpusRepository opens (or creates) a corpus store at path.
func NewCorpusRepository(path string) (storage.CorpusRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	repo, err := newCorpusRepository(backend, true)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return repo, nil
}

// NewCorpusRepositoryWithBackend wraps an already open backend.
// Closing the repository leaves the backend open.
func NewCorpusRepositoryWithBackend(backend *Backend) (*CorpusRepository, error) {
	return newCorpusRepository(backend, false)
}

func newCorpusRepository(backend *Backend, owns bool) (*CorpusRepository, error) {
	chunks, err := backend.CountPrefix([]byte(chunkRowPrefix))
	if err != nil {
		return nil, err
	}
	vectors, err := backend.CountPrefix([]byte(vectorRowPrefix))
	if err != nil {
		return nil, err
	}
	return &CorpusRepository{
		backend:    backend,
		ownsStore:  owns,
		chunkRows:  chunks,
		vectorRows: vectors,
	}, nil
}

// Close closes the underlying backend if the repository opened it.
func (r *CorpusRepository) Close() error {
	if r.ownsStore && !r.backend.IsClosed() {
		return r.backend.Close()
	}
	return nil
}

// WriteRows appends aligned chunk and vector rows in one batch.
func (r *CorpusRepository) WriteRows(ctx context.Context, chunks []core.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", storage.ErrRowMismatch, len(chunks), len(vectors))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chunkRows != r.vectorRows {
		return fmt.Errorf("%w: store holds %d chunks, %d vectors", storage.ErrRowMismatch, r.chunkRows, r.vectorRows)
	}

	err := r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		if err := r.setChunks(ctx, wb, r.chunkRows, chunks); err != nil {
			return err
		}
		return r.setVectors(ctx, wb, r.vectorRows, vectors)
	})
	if err != nil {
		return err
	}
	r.chunkRows += len(chunks)
	r.vectorRows += len(vectors)
	return nil
}

// WriteChunks appends chunk rows only.
func (r *CorpusRepository) WriteChunks(ctx context.Context, chunks []core.DocChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		return r.setChunks(ctx, wb, r.chunkRows, chunks)
	})
	if err != nil {
		return err
	}
	r.chunkRows += len(chunks)
	return nil
}

// WriteVectors appends vector rows only.
func (r *CorpusRepository) WriteVectors(ctx context.Context, vectors [][]float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		return r.setVectors(ctx, wb, r.vectorRows, vectors)
	})
	if err != nil {
		return err
	}
	r.vectorRows += len(vectors)
	return nil
}

func (r *CorpusRepository) setChunks(ctx context.Context, wb *badger.WriteBatch, base int, chunks []core.DocChunk) error {
	for i := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, err := storage.MarshalChunk(&chunks[i])
		if err != nil {
			return err
		}
		if err := wb.Set(makeRowKey(chunkRowPrefix, base+i), value); err != nil {
			return err
		}
	}
	return nil
}

func (r *CorpusRepository) setVectors(ctx context.Context, wb *badger.WriteBatch, base int, vectors [][]float32) error {
	for i, vec := range vectors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wb.Set(makeRowKey(vectorRowPrefix, base+i), storage.MarshalVector(vec)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary stores the build summary.
func (r *CorpusRepository) WriteSummary(ctx context.Context, summary *core.BuildSummary) error {
	value, err := storage.MarshalBuildSummary(summary)
	if err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(summaryKey), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ReadChunks returns every chunk row in row order.
func (r *CorpusRepository) ReadChunks(ctx context.Context) ([]core.DocChunk, error) {
	var chunks []core.DocChunk
	err := r.backend.ScanPrefix([]byte(chunkRowPrefix), func(key, value []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := checkRow(chunkRowPrefix, key, len(chunks)); err != nil {
			return err
		}
		chunk, err := storage.UnmarshalChunk(value)
		if err != nil {
			return err
		}
		chunks = append(chunks, *chunk)
		return nil
	})
	return chunks, err
}

// ReadVectors returns every vector row in row order.
func (r *CorpusRepository) ReadVectors(ctx context.Context) ([][]float32, error) {
	var vectors [][]float32
	err := r.backend.ScanPrefix([]byte(vectorRowPrefix), func(key, value []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := checkRow(vectorRowPrefix, key, len(vectors)); err != nil {
			return err
		}
		vec, err := storage.UnmarshalVector(value)
		if err != nil {
			return err
		}
		vectors = append(vectors, vec)
		return nil
	})
	return vectors, err
}

// ReadSummary returns the stored build summary.
func (r *CorpusRepository) ReadSummary(ctx context.Context) (*core.BuildSummary, error) {
	var summary *core.BuildSummary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(summaryKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			summary, err = storage.UnmarshalBuildSummary(val)
			return err
		})
	}, false)
	return summary, err
}

// checkRow guards against gaps in the row sequence, which would misalign
// chunks and vectors.
func checkRow(prefix string, key []byte, want int) error {
	row, err := rowFromKey(prefix, key)
	if err != nil {
		return err
	}
	if row != want {
		return fmt.Errorf("%w: expected %s row %d, found %d", storage.ErrTruncatedData, prefix, want, row)
	}
	return nil
}
