package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ProviderOpenAI, cfg.Embedder.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedder.Host)
	assert.Equal(t, 64, cfg.Embedder.BatchSize)
	assert.Equal(t, 800, cfg.Index.ChunkSize)
	assert.Equal(t, 200, *cfg.Index.Overlap)
	assert.Equal(t, []string{".txt", ".md"}, cfg.Index.Extensions)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Equal(t, 0.6, cfg.Retrieval.VectorWeight)
	assert.Equal(t, 0.4, cfg.Retrieval.LexicalWeight)
	assert.Equal(t, 6, cfg.Retrieval.MaxPerTerm)
	assert.Equal(t, 40, cfg.Retrieval.MaxTotal)
	assert.Equal(t, 600, cfg.Serving.TimeoutMS)
	assert.Equal(t, -100, *cfg.Serving.JitterMinMS)
	assert.Equal(t, 150, *cfg.Serving.JitterMaxMS)
	assert.Equal(t, 2, cfg.Serving.MaxCards)
	assert.Equal(t, 120, cfg.Serving.CacheTTLSec)
	assert.Equal(t, 256, cfg.Serving.CacheCapacity)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default().Serving, cfg.Serving)
	})

	t.Run("file values and explicit zeros", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		data := `
log_level: debug
embedder:
  provider: mock
index:
  dir: /srv/index
  chunk_size: 400
  overlap: 0
retrieval:
  top_k: 4
serving:
  timeout_ms: 300
  jitter_min_ms: 0
  jitter_max_ms: 0
  max_cards: 3
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, ProviderMock, cfg.Embedder.Provider)
		assert.Equal(t, "/srv/index", cfg.Index.Dir)
		assert.Equal(t, 400, cfg.Index.ChunkSize)
		assert.Equal(t, 0, *cfg.Index.Overlap)
		assert.Equal(t, 4, cfg.Retrieval.TopK)
		assert.Equal(t, 300, cfg.Serving.TimeoutMS)
		assert.Equal(t, 0, *cfg.Serving.JitterMinMS)
		assert.Equal(t, 0, *cfg.Serving.JitterMaxMS)
		assert.Equal(t, 3, cfg.Serving.MaxCards)
		assert.Equal(t, "embeddinggemma", cfg.Embedder.Model)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(dir, "env.yaml")
		require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  top_k: 4\n"), 0o644))
		t.Setenv("EVIDENTIA_TOPK", "12")
		t.Setenv("EVIDENTIA_INDEX_DIR", "/tmp/idx")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 12, cfg.Retrieval.TopK)
		assert.Equal(t, "/tmp/idx", cfg.Index.Dir)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("index: [1, 2"), 0o644))
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("index:\n  chunk_size: 100\n  overlap: 100\n"), 0o644))
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "index.overlap")
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"EVIDENTIA_EMBEDDING_PROVIDER": "mock",
		"EVIDENTIA_EMBEDDING_RPS":      "2.5",
		"EVIDENTIA_OVERLAP":            "0",
		"EVIDENTIA_RETRIEVAL_DISABLED": "true",
		"EVIDENTIA_TIMEOUT_MS":         " 900 ",
		"EVIDENTIA_SYNONYMS":           "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := &AppConfig{Retrieval: RetrievalConfig{SynonymsPath: "keep.yaml"}}
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, ProviderMock, cfg.Embedder.Provider)
	assert.Equal(t, 2.5, cfg.Embedder.RequestsPerSecond)
	require.NotNil(t, cfg.Index.Overlap)
	assert.Equal(t, 0, *cfg.Index.Overlap)
	assert.True(t, cfg.Retrieval.Disabled)
	assert.Equal(t, 900, cfg.Serving.TimeoutMS)
	assert.Equal(t, "keep.yaml", cfg.Retrieval.SynonymsPath)

	t.Run("unparseable value", func(t *testing.T) {
		bad := func(k string) (string, bool) {
			if k == "EVIDENTIA_TOPK" {
				return "eight", true
			}
			return "", false
		}
		err := (&AppConfig{}).ApplyEnv(bad)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "EVIDENTIA_TOPK")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AppConfig)
	}{
		{"unknown provider", func(c *AppConfig) { c.Embedder.Provider = "cohere" }},
		{"negative rps", func(c *AppConfig) { c.Embedder.RequestsPerSecond = -1 }},
		{"negative weights", func(c *AppConfig) { c.Retrieval.VectorWeight = -0.1 }},
		{"jitter inverted", func(c *AppConfig) { *c.Serving.JitterMinMS = 200 }},
		{"zero pool", func(c *AppConfig) { c.Serving.PoolSize = -1 }},
		{"negative max docs", func(c *AppConfig) { c.Index.MaxDocs = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("EVIDENTIA_TEST_LOADENV=from-file\n"), 0o644))
	t.Setenv("EVIDENTIA_TEST_LOADENV", "")
	os.Unsetenv("EVIDENTIA_TEST_LOADENV")

	require.NoError(t, LoadEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("EVIDENTIA_TEST_LOADENV"))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Retrieval.TopK = 5
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Retrieval.TopK)
}

func TestAIConfig(t *testing.T) {
	t.Setenv("TEST_EMBED_TOKEN", "secret")
	cfg := Default()
	cfg.Embedder.TokenEnv = "TEST_EMBED_TOKEN"
	cfg.Embedder.RequestsPerSecond = 3

	ai := cfg.AIConfig()
	assert.Equal(t, "secret", ai.Token)
	assert.Equal(t, cfg.Embedder.Model, ai.EmbeddingModel)
	assert.Equal(t, 3.0, ai.RequestsPerSecond)
	require.NoError(t, ai.Validate())
}
