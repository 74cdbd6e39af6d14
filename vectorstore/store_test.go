package vectorstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/poiesic/evidentia/ai/mock"
	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/index"
	"github.com/poiesic/evidentia/storage"
	"github.com/poiesic/evidentia/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpusTexts = []string{
	"chest pain troponin ecg",
	"diabetes hba1c lipid",
	"asthma inhaler spirometry",
	"chest pain ischemia",
}

func newRepo(t *testing.T, texts []string) storage.CorpusRepository {
	t.Helper()
	repo, err := badger.NewMemoryCorpus()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	chunks := make([]core.DocChunk, len(texts))
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		chunks[i] = core.DocChunk{ID: fmt.Sprintf("doc__%04d", i), Title: "Doc", Text: text, Start: 0, End: len(text)}
		vectors[i] = mock.HashVector(text, 32)
	}
	require.NoError(t, repo.WriteRows(context.Background(), chunks, vectors))
	return repo
}

func TestFromRepository(t *testing.T) {
	store, err := FromRepository(context.Background(), newRepo(t, corpusTexts))
	require.NoError(t, err)

	assert.Equal(t, 4, store.Size())
	assert.Equal(t, 32, store.Dim())
	assert.Equal(t, corpusTexts, store.CorpusTexts())
	assert.Nil(t, store.Summary())
}

func TestSearch(t *testing.T) {
	store, err := FromRepository(context.Background(), newRepo(t, corpusTexts))
	require.NoError(t, err)

	q := mock.HashVector("chest pain troponin", 32)
	hits, err := store.Search(q, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Row)
	assert.Equal(t, 3, hits[1].Row)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)

	t.Run("topK larger than corpus", func(t *testing.T) {
		hits, err := store.Search(q, 50)
		require.NoError(t, err)
		assert.Len(t, hits, 4)
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
		}
	})

	t.Run("zero topK", func(t *testing.T) {
		hits, err := store.Search(q, 0)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("wrong dimension", func(t *testing.T) {
		_, err := store.Search([]float32{1, 0}, 2)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("ties keep row order", func(t *testing.T) {
		hits, err := store.Search(make([]float32, 32), 4)
		require.NoError(t, err)
		for i, h := range hits {
			assert.Equal(t, i, h.Row)
		}
	})
}

func TestStoredVectorsAreUnitNorm(t *testing.T) {
	store, err := FromRepository(context.Background(), newRepo(t, corpusTexts))
	require.NoError(t, err)

	for row := 0; row < store.Size(); row++ {
		v, err := store.Vector(row)
		require.NoError(t, err)
		var s float64
		for _, x := range v {
			s += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(s), 1e-5)
	}
}

func TestMetaAndFindByID(t *testing.T) {
	store, err := FromRepository(context.Background(), newRepo(t, corpusTexts))
	require.NoError(t, err)

	meta, err := store.Meta(1)
	require.NoError(t, err)
	assert.Equal(t, "doc__0001", meta.ID)

	for _, row := range []int{-1, 4} {
		_, err := store.Meta(row)
		assert.ErrorIs(t, err, ErrRowOutOfRange)
		_, err = store.Vector(row)
		assert.ErrorIs(t, err, ErrRowOutOfRange)
	}

	row, ok := store.FindByID("doc__0003")
	assert.True(t, ok)
	assert.Equal(t, 3, row)
	_, ok = store.FindByID("missing")
	assert.False(t, ok)
}

func TestRowCountMismatchTruncates(t *testing.T) {
	ctx := context.Background()
	repo, err := badger.NewMemoryCorpus()
	require.NoError(t, err)
	defer repo.Close()

	chunks := []core.DocChunk{
		{ID: "a__0000", Text: "a", End: 1},
		{ID: "a__0001", Text: "b", End: 1},
		{ID: "a__0002", Text: "c", End: 1},
	}
	require.NoError(t, repo.WriteChunks(ctx, chunks))
	require.NoError(t, repo.WriteVectors(ctx, [][]float32{{1, 0}, {0, 1}}))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	store, err := FromRepository(ctx, repo, WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Size())
	assert.Len(t, store.CorpusTexts(), 2)
	_, ok := store.FindByID("a__0002")
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "row count mismatch")
}

func TestEmptyIndex(t *testing.T) {
	repo, err := badger.NewMemoryCorpus()
	require.NoError(t, err)
	defer repo.Close()

	_, err = FromRepository(context.Background(), repo)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestLoad(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, ErrIndexMissing)
	})

	t.Run("built index", func(t *testing.T) {
		docs := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(docs, "chest_pain_guideline_2021.md"), []byte("Chest pain needs troponin. ECG within ten minutes."), 0o644))
		out := filepath.Join(t.TempDir(), "idx")
		summary, err := index.Build(context.Background(), mock.NewMockEmbedder(), index.Options{DocsDir: docs, OutDir: out, Model: "mock-hash"})
		require.NoError(t, err)

		store, err := Load(context.Background(), out)
		require.NoError(t, err)
		assert.Equal(t, summary.Chunks, store.Size())
		require.NotNil(t, store.Summary())
		assert.Equal(t, "mock-hash", store.Summary().Model)
	})
}

func TestConcurrentSearch(t *testing.T) {
	store, err := FromRepository(context.Background(), newRepo(t, corpusTexts))
	require.NoError(t, err)

	q := mock.HashVector("chest pain", 32)
	want, err := store.Search(q, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Search(q, 3)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
