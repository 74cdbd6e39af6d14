package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/poiesic/evidentia/ai/mock"
	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/lexical"
	"github.com/poiesic/evidentia/query"
	"github.com/poiesic/evidentia/storage/badger"
	"github.com/poiesic/evidentia/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpusTexts = []string{
	"Type 2 diabetes follow up with HbA1c every three months and statin therapy.",
	"Acute chest pain evaluation: obtain an ECG and high sensitivity troponin, then apply risk stratification.",
	"Asthma control with inhaled corticosteroids and spirometry.",
	"Hypertension management with stable angina and home blood pressure monitoring.",
}

func newStore(t *testing.T, texts []string) *vectorstore.Store {
	t.Helper()
	repo, err := badger.NewMemoryCorpus()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	chunks := make([]core.DocChunk, len(texts))
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		chunks[i] = core.DocChunk{
			ID:    fmt.Sprintf("doc%d__0000", i),
			Title: fmt.Sprintf("Doc %d", i),
			Text:  text,
			End:   len(text),
		}
		vectors[i] = mock.HashVector(text, mock.DefaultDim)
	}
	require.NoError(t, repo.WriteRows(context.Background(), chunks, vectors))

	store, err := vectorstore.FromRepository(context.Background(), repo)
	require.NoError(t, err)
	return store
}

func newRetriever(t *testing.T, embedder *mock.MockEmbedder, withLexical bool, opts ...Option) *Retriever {
	t.Helper()
	store := newStore(t, corpusTexts)
	builder, err := query.NewBuilder(query.DefaultSynonyms())
	require.NoError(t, err)

	var lex LexicalIndex
	if withLexical {
		idx, err := lexical.New(store.CorpusTexts())
		require.NoError(t, err)
		lex = idx
	}
	r, err := NewRetriever(store, lex, embedder, builder, opts...)
	require.NoError(t, err)
	return r
}

func chestPainSummary() *core.Summary {
	return &core.Summary{
		CC:    "chest pain",
		Flags: map[string]bool{core.FlagIschemicFeatures: true},
	}
}

func TestNewRetriever(t *testing.T) {
	store := newStore(t, corpusTexts)
	builder, err := query.NewBuilder(nil)
	require.NoError(t, err)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		r, err := NewRetriever(store, nil, embedder, builder)
		require.NoError(t, err)
		assert.False(t, r.LexicalAvailable())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		r, err := NewRetriever(store, nil, embedder, builder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("custom weights", func(t *testing.T) {
		_, err := NewRetriever(store, nil, embedder, builder, WithWeights(0.5, 0.5), WithLogger(slog.Default()))
		require.NoError(t, err)
	})

	t.Run("invalid weights", func(t *testing.T) {
		_, err := NewRetriever(store, nil, embedder, builder, WithWeights(-1, 1))
		assert.ErrorIs(t, err, ErrInvalidWeights)
		_, err = NewRetriever(store, nil, embedder, builder, WithWeights(0, 0))
		assert.ErrorIs(t, err, ErrInvalidWeights)
	})

	t.Run("nil vector index", func(t *testing.T) {
		_, err := NewRetriever(nil, nil, embedder, builder)
		assert.Equal(t, ErrVectorIndexRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewRetriever(store, nil, nil, builder)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("nil builder", func(t *testing.T) {
		_, err := NewRetriever(store, nil, embedder, nil)
		assert.Equal(t, ErrBuilderRequired, err)
	})
}

func TestRetrieve_Hybrid(t *testing.T) {
	r := newRetriever(t, mock.NewMockEmbedder(), true)

	results, err := r.Retrieve(context.Background(), chestPainSummary(), 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 3)

	assert.Equal(t, "doc1__0000", results[0].Chunk.ID)
	assert.Equal(t, 1.0, results[0].Score)
	for i, res := range results {
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, res.Score)
		}
	}
}

func TestRetrieve_VectorOnly(t *testing.T) {
	r := newRetriever(t, mock.NewMockEmbedder(), false)

	results, err := r.Retrieve(context.Background(), chestPainSummary(), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc1__0000", results[0].Chunk.ID)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestRetrieve_Deterministic(t *testing.T) {
	r := newRetriever(t, mock.NewMockEmbedder(), true)
	ctx := context.Background()

	first, err := r.Retrieve(ctx, chestPainSummary(), 4)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(ctx, chestPainSummary(), 4)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRetrieve_NoWork(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	r := newRetriever(t, embedder, true)

	results, err := r.Retrieve(context.Background(), chestPainSummary(), 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, embedder.CallCount())

	_, err = r.Retrieve(context.Background(), nil, 3)
	var re *RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StageQuery, re.Stage)
}

func TestRetrieve_Errors(t *testing.T) {
	backendDown := errors.New("backend down")

	tests := []struct {
		name      string
		embed     func(ctx context.Context, text string) ([]float32, error)
		wantStage Stage
		wantErr   error
	}{
		{
			name: "embedding failure",
			embed: func(ctx context.Context, text string) ([]float32, error) {
				return nil, backendDown
			},
			wantStage: StageEmbed,
			wantErr:   backendDown,
		},
		{
			name: "dimension mismatch",
			embed: func(ctx context.Context, text string) ([]float32, error) {
				return []float32{1, 0}, nil
			},
			wantStage: StageVector,
			wantErr:   vectorstore.ErrDimensionMismatch,
		},
		{
			name: "panic in embedder",
			embed: func(ctx context.Context, text string) ([]float32, error) {
				panic("boom")
			},
			wantStage: StagePanic,
			wantErr:   ErrPanic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRetriever(t, mock.NewMockEmbedder().WithEmbedTextFunc(tt.embed), true)

			results, err := r.Retrieve(context.Background(), chestPainSummary(), 3)
			assert.Nil(t, results)
			var re *RetrievalError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.wantStage, re.Stage)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("canceled context", func(t *testing.T) {
		r := newRetriever(t, mock.NewMockEmbedder(), true)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.Retrieve(ctx, chestPainSummary(), 3)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type panickingLexical struct{}

func (panickingLexical) TopN(_ []string, _ int) []lexical.Hit { panic("lexical exploded") }

type brokenMeta struct {
	*vectorstore.Store
}

func (brokenMeta) Meta(row int) (core.DocChunk, error) {
	return core.DocChunk{}, vectorstore.ErrRowOutOfRange
}

func TestRetrieve_CollaboratorFailures(t *testing.T) {
	store := newStore(t, corpusTexts)
	builder, err := query.NewBuilder(query.DefaultSynonyms())
	require.NoError(t, err)

	t.Run("panic in lexical index", func(t *testing.T) {
		r, err := NewRetriever(store, panickingLexical{}, mock.NewMockEmbedder(), builder)
		require.NoError(t, err)

		_, err = r.Retrieve(context.Background(), chestPainSummary(), 3)
		var re *RetrievalError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, StagePanic, re.Stage)
		assert.Contains(t, err.Error(), "lexical")
	})

	t.Run("metadata resolution failure", func(t *testing.T) {
		r, err := NewRetriever(brokenMeta{store}, nil, mock.NewMockEmbedder(), builder)
		require.NoError(t, err)

		results, err := r.Retrieve(context.Background(), chestPainSummary(), 3)
		assert.Nil(t, results)
		var re *RetrievalError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, StageResolve, re.Stage)
		assert.ErrorIs(t, err, vectorstore.ErrRowOutOfRange)
	})
}

type recordingMonitor struct {
	calls   []string
	queries query.Queries
	lexical bool
	fused   int
	err     error
}

func (m *recordingMonitor) Start(q query.Queries) {
	m.calls = append(m.calls, "start")
	m.queries = q
}

func (m *recordingMonitor) AfterVectorSearch(_ []Hit) {
	m.calls = append(m.calls, "vector")
}

func (m *recordingMonitor) AfterLexicalSearch(_ []Hit, available bool) {
	m.calls = append(m.calls, "lexical")
	m.lexical = available
}

func (m *recordingMonitor) AfterFusion(fused []Hit) {
	m.calls = append(m.calls, "fusion")
	m.fused = len(fused)
}

func (m *recordingMonitor) Finish(_ []core.Retrieval, err error) {
	m.calls = append(m.calls, "finish")
	m.err = err
}

func TestRetrieveWithMonitor(t *testing.T) {
	r := newRetriever(t, mock.NewMockEmbedder(), true)

	mon := &recordingMonitor{}
	results, err := r.RetrieveWithMonitor(context.Background(), chestPainSummary(), 2, mon)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	assert.Equal(t, []string{"start", "vector", "lexical", "fusion", "finish"}, mon.calls)
	assert.True(t, mon.lexical)
	assert.GreaterOrEqual(t, mon.fused, 2)
	assert.Contains(t, mon.queries.Lexical, "troponin")
	assert.NoError(t, mon.err)

	t.Run("finish sees the error", func(t *testing.T) {
		failing := newRetriever(t, mock.NewMockEmbedder().WithEmbedTextFunc(
			func(ctx context.Context, text string) ([]float32, error) { return nil, errors.New("nope") }), true)
		mon := &recordingMonitor{}
		_, err := failing.RetrieveWithMonitor(context.Background(), chestPainSummary(), 2, mon)
		require.Error(t, err)
		assert.Equal(t, []string{"start", "finish"}, mon.calls)
		assert.Equal(t, err, mon.err)
	})
}
