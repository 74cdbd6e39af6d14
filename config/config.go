package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/evidentia/ai"
	"gopkg.in/yaml.v3"
)

// Embedder providers.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// EmbedderConfig configures the embedding backend.
type EmbedderConfig struct {
	// Provider is "openai" for any OpenAI-compatible server or "mock" for
	// the offline feature-hashing embedder.
	Provider string `yaml:"provider"`
	Host     string `yaml:"host"`
	Model    string `yaml:"model"`
	// TokenEnv names the environment variable holding the API token.
	TokenEnv          string  `yaml:"token_env"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// IndexConfig configures corpus builds and where the index lives.
type IndexConfig struct {
	DocsDir    string   `yaml:"docs_dir"`
	Dir        string   `yaml:"dir"`
	ChunkSize  int      `yaml:"chunk_size"`
	Overlap    *int     `yaml:"overlap"`
	Extensions []string `yaml:"extensions"`
	MaxDocs    int      `yaml:"max_docs"`
	Workers    int      `yaml:"workers"`
	MaxRetries int      `yaml:"max_retries"`
}

// RetrievalConfig configures query building and hybrid retrieval.
type RetrievalConfig struct {
	Disabled      bool    `yaml:"disabled"`
	TopK          int     `yaml:"top_k"`
	VectorWeight  float64 `yaml:"vector_weight"`
	LexicalWeight float64 `yaml:"lexical_weight"`
	// SynonymsPath overrides the built-in synonym table.
	SynonymsPath string `yaml:"synonyms_path"`
	MaxPerTerm   int    `yaml:"max_per_term"`
	MaxTotal     int    `yaml:"max_total"`
}

// ServingConfig configures the evidence service.
type ServingConfig struct {
	TimeoutMS     int  `yaml:"timeout_ms"`
	JitterMinMS   *int `yaml:"jitter_min_ms"`
	JitterMaxMS   *int `yaml:"jitter_max_ms"`
	MaxCards      int  `yaml:"max_cards"`
	CacheTTLSec   int  `yaml:"cache_ttl_seconds"`
	CacheCapacity int  `yaml:"cache_capacity"`
	PoolSize      int  `yaml:"pool_size"`
	// CatalogPath overrides the built-in fallback evidence catalog.
	CatalogPath string `yaml:"catalog_path"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LogLevel  string          `yaml:"log_level"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Serving   ServingConfig   `yaml:"serving"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a config from path, applies defaults and environment
// overrides, and validates the result. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
			}
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads the given .env files, or ./.env when none are given, into
// the process environment. Missing files are ignored and variables already
// set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Save writes cfg to path as YAML, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *AppConfig) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	e := &c.Embedder
	if e.Provider == "" {
		e.Provider = ProviderOpenAI
	}
	def := ai.DefaultConfig()
	if e.Host == "" {
		e.Host = def.EmbeddingHost
	}
	if e.Model == "" {
		e.Model = def.EmbeddingModel
	}
	if e.TokenEnv == "" {
		e.TokenEnv = "OPENAI_API_KEY"
	}
	if e.BatchSize == 0 {
		e.BatchSize = def.BatchSize
	}

	x := &c.Index
	if x.DocsDir == "" {
		x.DocsDir = "docs"
	}
	if x.Dir == "" {
		x.Dir = "rag_index"
	}
	if x.ChunkSize == 0 {
		x.ChunkSize = 800
	}
	if x.Overlap == nil {
		x.Overlap = intPtr(200)
	}
	if len(x.Extensions) == 0 {
		x.Extensions = []string{".txt", ".md"}
	}

	r := &c.Retrieval
	if r.TopK == 0 {
		r.TopK = 8
	}
	if r.VectorWeight == 0 && r.LexicalWeight == 0 {
		r.VectorWeight, r.LexicalWeight = 0.6, 0.4
	}
	if r.MaxPerTerm == 0 {
		r.MaxPerTerm = 6
	}
	if r.MaxTotal == 0 {
		r.MaxTotal = 40
	}

	s := &c.Serving
	if s.TimeoutMS == 0 {
		s.TimeoutMS = 600
	}
	if s.JitterMinMS == nil {
		s.JitterMinMS = intPtr(-100)
	}
	if s.JitterMaxMS == nil {
		s.JitterMaxMS = intPtr(150)
	}
	if s.MaxCards == 0 {
		s.MaxCards = 2
	}
	if s.CacheTTLSec == 0 {
		s.CacheTTLSec = 120
	}
	if s.CacheCapacity == 0 {
		s.CacheCapacity = 256
	}
	if s.PoolSize == 0 {
		s.PoolSize = 32
	}
}

// Validate checks value ranges. Defaults must already be applied.
func (c *AppConfig) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Embedder.Provider == ProviderOpenAI || c.Embedder.Provider == ProviderMock,
		"embedder.provider must be %q or %q, got %q", ProviderOpenAI, ProviderMock, c.Embedder.Provider)
	check(c.Embedder.BatchSize > 0, "embedder.batch_size must be positive")
	check(c.Embedder.RequestsPerSecond >= 0, "embedder.requests_per_second cannot be negative")
	check(c.Index.ChunkSize > 0, "index.chunk_size must be positive")
	check(c.Index.Overlap != nil && *c.Index.Overlap >= 0 && *c.Index.Overlap < c.Index.ChunkSize,
		"index.overlap must be in [0, chunk_size)")
	check(c.Index.MaxDocs >= 0, "index.max_docs cannot be negative")
	check(c.Retrieval.TopK > 0, "retrieval.top_k must be positive")
	check(c.Retrieval.VectorWeight >= 0 && c.Retrieval.LexicalWeight >= 0,
		"retrieval weights cannot be negative")
	check(c.Retrieval.MaxPerTerm > 0 && c.Retrieval.MaxTotal > 0, "retrieval expansion limits must be positive")
	check(c.Serving.TimeoutMS > 0, "serving.timeout_ms must be positive")
	check(c.Serving.JitterMinMS != nil && c.Serving.JitterMaxMS != nil && *c.Serving.JitterMinMS <= *c.Serving.JitterMaxMS,
		"serving.jitter_min_ms must not exceed jitter_max_ms")
	check(c.Serving.MaxCards > 0, "serving.max_cards must be positive")
	check(c.Serving.CacheTTLSec > 0 && c.Serving.CacheCapacity > 0, "serving cache ttl and capacity must be positive")
	check(c.Serving.PoolSize > 0, "serving.pool_size must be positive")

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// AIConfig returns the embedding backend configuration. The API token is
// read from the environment variable named by TokenEnv.
func (c *AppConfig) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedder.Host),
		ai.WithEmbeddingModel(c.Embedder.Model),
		ai.WithToken(os.Getenv(c.Embedder.TokenEnv)),
		ai.WithBatchSize(c.Embedder.BatchSize),
		ai.WithRequestsPerSecond(c.Embedder.RequestsPerSecond),
	)
}

func intPtr(v int) *int { return &v }
