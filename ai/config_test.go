package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "none", cfg.Token)
	assert.Equal(t, 64, cfg.BatchSize)
	assert.Zero(t, cfg.RequestsPerSecond)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with all options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithToken("sk-test"),
			WithBatchSize(16),
			WithRequestsPerSecond(5),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "sk-test", cfg.Token)
		assert.Equal(t, 16, cfg.BatchSize)
		assert.Equal(t, 5.0, cfg.RequestsPerSecond)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"adds v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trims trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps existing v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"leaves empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, "none", cfg.Token)
			assert.Equal(t, 64, cfg.BatchSize)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid default", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost(""))
		assert.ErrorContains(t, cfg.Validate(), "EmbeddingHost")
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingModel(""))
		assert.ErrorContains(t, cfg.Validate(), "EmbeddingModel")
	})

	t.Run("negative rate", func(t *testing.T) {
		cfg := NewConfig(WithRequestsPerSecond(-1))
		assert.ErrorContains(t, cfg.Validate(), "RequestsPerSecond")
	})

	t.Run("normalizes before validating", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost("http://example:1234"))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://example:1234/v1", cfg.EmbeddingHost)
	})
}
