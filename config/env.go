package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EVIDENTIA_"

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	key string
	set func(c *AppConfig, v string) error
}

var envBindings = []envBinding{
	{"LOG_LEVEL", func(c *AppConfig, v string) error { c.LogLevel = v; return nil }},
	{"EMBEDDING_PROVIDER", func(c *AppConfig, v string) error { c.Embedder.Provider = v; return nil }},
	{"EMBEDDING_HOST", func(c *AppConfig, v string) error { c.Embedder.Host = v; return nil }},
	{"EMBEDDING_MODEL", func(c *AppConfig, v string) error { c.Embedder.Model = v; return nil }},
	{"EMBEDDING_TOKEN_ENV", func(c *AppConfig, v string) error { c.Embedder.TokenEnv = v; return nil }},
	{"EMBEDDING_RPS", func(c *AppConfig, v string) error { return setFloat(&c.Embedder.RequestsPerSecond, v) }},
	{"DOCS_DIR", func(c *AppConfig, v string) error { c.Index.DocsDir = v; return nil }},
	{"INDEX_DIR", func(c *AppConfig, v string) error { c.Index.Dir = v; return nil }},
	{"CHUNK_SIZE", func(c *AppConfig, v string) error { return setInt(&c.Index.ChunkSize, v) }},
	{"OVERLAP", func(c *AppConfig, v string) error {
		c.Index.Overlap = new(int)
		return setInt(c.Index.Overlap, v)
	}},
	{"RETRIEVAL_DISABLED", func(c *AppConfig, v string) error { return setBool(&c.Retrieval.Disabled, v) }},
	{"TOPK", func(c *AppConfig, v string) error { return setInt(&c.Retrieval.TopK, v) }},
	{"SYNONYMS", func(c *AppConfig, v string) error { c.Retrieval.SynonymsPath = v; return nil }},
	{"TIMEOUT_MS", func(c *AppConfig, v string) error { return setInt(&c.Serving.TimeoutMS, v) }},
	{"MAX_CARDS", func(c *AppConfig, v string) error { return setInt(&c.Serving.MaxCards, v) }},
	{"CATALOG", func(c *AppConfig, v string) error { c.Serving.CatalogPath = v; return nil }},
}

// ApplyEnv overrides fields from EVIDENTIA_* variables found by lookup.
// Empty values are ignored.
func (c *AppConfig) ApplyEnv(lookup LookupFunc) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := b.set(c, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, EnvPrefix, b.key, err)
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}
