package evidentia

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/evidentia/ai/mock"
	"github.com/poiesic/evidentia/config"
	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = map[string]string{
	"chest_pain_guideline_2021.md": strings.Repeat("Patients with acute chest pain should have an ECG within ten minutes. "+
		"High-sensitivity troponin is preferred for myocardial injury. Ischemia risk stratification guides testing. ", 3),
	"ada_diabetes_standards_2025.md": "Type 2 diabetes follow up. HbA1c at least twice yearly when at goal. Statin therapy for lipid management.",
	"asthma_management.txt":          "Asthma control relies on inhaled corticosteroids and spirometry.",
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	docs := t.TempDir()
	for name, body := range corpus {
		require.NoError(t, os.WriteFile(filepath.Join(docs, name), []byte(body), 0o644))
	}
	cfg := config.Default()
	cfg.Embedder.Provider = config.ProviderMock
	cfg.Index.DocsDir = docs
	cfg.Index.Dir = filepath.Join(t.TempDir(), "rag_index")
	cfg.Serving.TimeoutMS = 5000
	return cfg
}

func chestPain() *core.Summary {
	return &core.Summary{
		HPI:   "Intermittent chest pressure on exertion with diaphoresis.",
		CC:    "chest pain",
		Flags: map[string]bool{core.FlagIschemicFeatures: true},
	}
}

func TestBuildAndServe(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	summary, err := Build(ctx, cfg, mock.NewMockProvider(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.FilesIndexed)
	assert.Equal(t, "mock-hash", summary.Model)

	engine, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer engine.Close()

	resp, err := engine.Evidence(ctx, chestPain())
	require.NoError(t, err)
	assert.False(t, resp.Degraded)
	require.NotEmpty(t, resp.Items)
	assert.LessOrEqual(t, len(resp.Items), 2)

	top := resp.Items[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, "Chest Pain Guideline 2021", top.Title)
	assert.Equal(t, "2021", top.Year)
	assert.GreaterOrEqual(t, top.Score, 0.0)
	assert.LessOrEqual(t, top.Score, 1.0)

	again, err := engine.Evidence(ctx, chestPain())
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, resp.Items, again.Items)

	st := engine.Status()
	assert.True(t, st.Enabled)
	assert.True(t, st.Initialized)
	assert.True(t, st.LexicalAvailable)
	assert.Equal(t, summary.Chunks, st.Rows)
	assert.Equal(t, mock.DefaultDim, st.Dim)
	assert.Equal(t, "mock-hash", st.IndexModel)
	assert.Equal(t, uint64(1), st.Serving.Cache.Hits)
}

func TestOpenMissingIndex(t *testing.T) {
	cfg := testConfig(t)
	_, err := Open(context.Background(), cfg)
	assert.ErrorIs(t, err, vectorstore.ErrIndexMissing)
}

func TestRetrievalDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrieval.Disabled = true

	engine, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer engine.Close()
	assert.Nil(t, engine.Retriever())

	resp, err := engine.Evidence(context.Background(), chestPain())
	require.NoError(t, err)
	require.NotEmpty(t, resp.Items)
	assert.Equal(t, "ACC/AHA Chest Pain Guideline (2021)", resp.Items[0].Title)

	st := engine.Status()
	assert.False(t, st.Enabled)
	assert.False(t, st.Initialized)
	assert.Zero(t, st.Rows)
}

func TestQueries(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrieval.Disabled = true
	engine, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer engine.Close()

	q := engine.Queries(chestPain())
	assert.Contains(t, q.Terms, "troponin")
	assert.Contains(t, q.Lexical, " AND ")
}

func TestNewProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Embedder.Provider = "carrier-pigeon"
	_, err := NewProvider(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg.Embedder.Provider = config.ProviderMock
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock-hash", p.Model())
	assert.NoError(t, p.Close())
}
