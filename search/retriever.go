package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/evidentia/ai"
	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/lexical"
	"github.com/poiesic/evidentia/query"
	"github.com/poiesic/evidentia/vectorstore"
	"golang.org/x/sync/errgroup"
)

// MinFetch is the minimum number of candidates fetched from each side.
const MinFetch = 8

// VectorIndex is the read side of a vector store.
type VectorIndex interface {
	Search(vec []float32, topK int) ([]vectorstore.Hit, error)
	Meta(row int) (core.DocChunk, error)
}

// LexicalIndex scores corpus rows against query tokens.
type LexicalIndex interface {
	TopN(tokens []string, n int) []lexical.Hit
}

var (
	_ VectorIndex  = (*vectorstore.Store)(nil)
	_ LexicalIndex = (*lexical.Index)(nil)
)

// Retriever runs hybrid retrieval over a vector index and an optional
// lexical index. It holds no mutable state and is safe for concurrent use.
type Retriever struct {
	vectors       VectorIndex
	lexical       LexicalIndex
	embedder      ai.Embedder
	builder       *query.Builder
	vectorWeight  float64
	lexicalWeight float64
	logger        *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithWeights sets the fusion weights for the vector and lexical sides.
// Default is 0.6 and 0.4.
func WithWeights(vector, lexical float64) Option {
	return func(r *Retriever) error {
		if vector < 0 || lexical < 0 || vector+lexical == 0 {
			return fmt.Errorf("%w: vector=%v lexical=%v", ErrInvalidWeights, vector, lexical)
		}
		r.vectorWeight = vector
		r.lexicalWeight = lexical
		return nil
	}
}

// NewRetriever creates a retriever. lex may be nil, in which case
// retrieval is vector-only.
func NewRetriever(
	vectors VectorIndex,
	lex LexicalIndex,
	embedder ai.Embedder,
	builder *query.Builder,
	opts ...Option,
) (*Retriever, error) {
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if builder == nil {
		return nil, ErrBuilderRequired
	}

	r := &Retriever{
		vectors:       vectors,
		lexical:       lex,
		embedder:      embedder,
		builder:       builder,
		vectorWeight:  DefaultVectorWeight,
		lexicalWeight: DefaultLexicalWeight,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")

	if r.lexical == nil {
		r.logger.Warn("lexical index unavailable, retrieval is vector-only")
	}
	return r, nil
}

// LexicalAvailable reports whether a lexical index is attached.
func (r *Retriever) LexicalAvailable() bool {
	return r.lexical != nil
}

// Retrieve returns up to k chunks for s, best first, with fused scores
// rounded to 4 decimals. Every error is a *RetrievalError.
func (r *Retriever) Retrieve(ctx context.Context, s *core.Summary, k int) ([]core.Retrieval, error) {
	return r.RetrieveWithMonitor(ctx, s, k, nil)
}

// RetrieveWithMonitor is Retrieve with monitoring.
// The monitor receives callbacks at each stage of the retrieval process.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, s *core.Summary, k int, monitor Monitor) (results []core.Retrieval, err error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	defer func() {
		if p := recover(); p != nil {
			results = nil
			err = &RetrievalError{Stage: StagePanic, Err: fmt.Errorf("%w: %v", ErrPanic, p)}
		}
		if err != nil {
			results = nil
		}
		monitor.Finish(results, err)
	}()

	if s == nil {
		return nil, &RetrievalError{Stage: StageQuery, Err: core.ErrInvalidSummary}
	}
	if k <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &RetrievalError{Stage: StageEmbed, Err: err}
	}

	q := r.builder.Build(s)
	monitor.Start(q)
	r.logger.Debug("retrieval queries", "base", q.Base, "embed", q.Embed, "lexical", q.Lexical)

	fetch := max(MinFetch, 2*k)
	var vecHits, lexHits []Hit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard(StageVector, func() error {
		hits, err := r.searchVectors(gctx, q.Embed, fetch)
		vecHits = hits
		return err
	}))
	if r.lexical != nil {
		g.Go(guard(StageLexical, func() error {
			lexHits = r.searchLexical(q.Lexical, fetch)
			return nil
		}))
	}
	if err := g.Wait(); err != nil {
		return nil, stageError(StageVector, err)
	}

	monitor.AfterVectorSearch(vecHits)
	monitor.AfterLexicalSearch(lexHits, r.lexical != nil)
	if len(vecHits) == 0 || len(lexHits) == 0 {
		r.logger.Debug("single-sided retrieval", "vector_hits", len(vecHits), "lexical_hits", len(lexHits))
	}

	fused := Fuse(vecHits, lexHits, r.vectorWeight, r.lexicalWeight)
	monitor.AfterFusion(fused)
	if len(fused) > k {
		fused = fused[:k]
	}

	results = make([]core.Retrieval, 0, len(fused))
	for _, h := range fused {
		chunk, err := r.vectors.Meta(h.Row)
		if err != nil {
			return nil, &RetrievalError{Stage: StageResolve, Err: err}
		}
		results = append(results, core.Retrieval{Chunk: chunk, Score: round4(h.Score)})
	}
	return results, nil
}

func (r *Retriever) searchVectors(ctx context.Context, text string, n int) ([]Hit, error) {
	vec, err := r.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, &RetrievalError{Stage: StageEmbed, Err: err}
	}
	found, err := r.vectors.Search(vec, n)
	if err != nil {
		return nil, &RetrievalError{Stage: StageVector, Err: err}
	}
	hits := make([]Hit, len(found))
	for i, h := range found {
		hits[i] = Hit{Row: h.Row, Score: h.Score}
	}
	return hits, nil
}

func (r *Retriever) searchLexical(expr string, n int) []Hit {
	found := r.lexical.TopN(lexical.QueryTokens(expr), n)
	hits := make([]Hit, len(found))
	for i, h := range found {
		hits[i] = Hit{Row: h.Row, Score: h.Score}
	}
	return hits
}

// guard converts a panic inside an errgroup goroutine into a RetrievalError.
// A recover in the calling goroutine cannot catch it.
func guard(stage Stage, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = &RetrievalError{Stage: StagePanic, Err: fmt.Errorf("%w in %s: %v", ErrPanic, stage, p)}
			}
		}()
		return fn()
	}
}
