// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package evidentia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/evidentia/ai"
	"github.com/poiesic/evidentia/ai/mock"
	"github.com/poiesic/evidentia/ai/openai"
	"github.com/poiesic/evidentia/config"
	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/evidence"
	"github.com/poiesic/evidentia/index"
	"github.com/poiesic/evidentia/lexical"
	"github.com/poiesic/evidentia/query"
	"github.com/poiesic/evidentia/search"
	"github.com/poiesic/evidentia/serving"
	"github.com/poiesic/evidentia/vectorstore"
)

// Engine owns every retrieval component for the life of the process.
type Engine struct {
	cfg       *config.AppConfig
	provider  ai.Provider
	store     *vectorstore.Store
	lexical   *lexical.Index
	builder   *query.Builder
	retriever *search.Retriever
	service   *serving.Service
	logger    *slog.Logger
}

// Status describes the loaded engine.
type Status struct {
	Enabled          bool          `json:"enabled"`
	Initialized      bool          `json:"initialized"`
	IndexDir         string        `json:"index_dir"`
	Rows             int           `json:"rows"`
	Dim              int           `json:"dim"`
	Model            string        `json:"model"`
	IndexModel       string        `json:"index_model,omitempty"`
	BuiltAt          time.Time     `json:"built_at,omitzero"`
	LexicalAvailable bool          `json:"lexical_available"`
	Serving          serving.Stats `json:"serving"`
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.Provider
	logger   *slog.Logger
}

// WithProvider uses provider instead of the one named in the config.
// The engine takes ownership and closes it.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewProvider creates the embedding provider selected by cfg.
func NewProvider(cfg *config.AppConfig) (ai.Provider, error) {
	switch cfg.Embedder.Provider {
	case config.ProviderMock:
		return mock.NewMockProvider(), nil
	case config.ProviderOpenAI:
		return openai.NewProvider(cfg.AIConfig())
	default:
		return nil, fmt.Errorf("%w: unknown embedder provider %q", config.ErrInvalidConfig, cfg.Embedder.Provider)
	}
}

// Open builds an Engine from cfg. Unless retrieval is disabled, a missing
// or empty index is an error.
func Open(ctx context.Context, cfg *config.AppConfig, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	e := &Engine{cfg: cfg, logger: options.logger.With("component", "engine")}
	ok := false
	defer func() {
		if !ok {
			e.Close()
		}
	}()

	e.provider = options.provider
	if e.provider == nil {
		provider, err := NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		e.provider = provider
	}

	syn, err := loadSynonyms(cfg.Retrieval.SynonymsPath)
	if err != nil {
		return nil, err
	}
	e.builder, err = query.NewBuilder(syn,
		query.WithMaxPerTerm(cfg.Retrieval.MaxPerTerm),
		query.WithMaxTotal(cfg.Retrieval.MaxTotal),
	)
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(cfg.Serving.CatalogPath)
	if err != nil {
		return nil, err
	}

	var retriever serving.Retriever
	if !cfg.Retrieval.Disabled {
		if err := e.openRetriever(ctx); err != nil {
			return nil, err
		}
		retriever = e.retriever
	}

	e.service, err = serving.New(retriever, catalog,
		serving.WithLogger(options.logger),
		serving.WithTimeout(time.Duration(cfg.Serving.TimeoutMS)*time.Millisecond),
		serving.WithJitter(
			time.Duration(*cfg.Serving.JitterMinMS)*time.Millisecond,
			time.Duration(*cfg.Serving.JitterMaxMS)*time.Millisecond,
		),
		serving.WithTopK(cfg.Retrieval.TopK),
		serving.WithMaxCards(cfg.Serving.MaxCards),
		serving.WithCache(time.Duration(cfg.Serving.CacheTTLSec)*time.Second, cfg.Serving.CacheCapacity),
		serving.WithPoolSize(cfg.Serving.PoolSize),
	)
	if err != nil {
		return nil, err
	}

	ok = true
	e.logger.Info("engine ready",
		"retrieval", !cfg.Retrieval.Disabled, "rows", e.rows(), "model", e.provider.Model())
	return e, nil
}

func (e *Engine) openRetriever(ctx context.Context) error {
	store, err := vectorstore.Load(ctx, e.cfg.Index.Dir, vectorstore.WithLogger(e.logger))
	if err != nil {
		return err
	}
	e.store = store

	if sum := store.Summary(); sum != nil && sum.Model != "" && sum.Model != e.provider.Model() {
		e.logger.Warn("index was built with a different embedding model",
			"index_model", sum.Model, "model", e.provider.Model())
	}

	var lex search.LexicalIndex
	idx, err := lexical.New(store.CorpusTexts())
	if err != nil {
		e.logger.Warn("lexical index unavailable", "err", err)
	} else {
		e.lexical = idx
		lex = idx
	}

	e.retriever, err = search.NewRetriever(store, lex, e.provider.Embedder(), e.builder,
		search.WithWeights(e.cfg.Retrieval.VectorWeight, e.cfg.Retrieval.LexicalWeight),
		search.WithLogger(e.logger),
	)
	return err
}

// Evidence returns the evidence cards for summary.
func (e *Engine) Evidence(ctx context.Context, summary *core.Summary) (*serving.Response, error) {
	return e.service.Evidence(ctx, summary)
}

// Retriever returns the hybrid retriever, or nil when retrieval is disabled.
func (e *Engine) Retriever() *search.Retriever {
	return e.retriever
}

// Queries returns the queries built for summary.
func (e *Engine) Queries(summary *core.Summary) query.Queries {
	return e.builder.Build(summary)
}

// Status reports what the engine has loaded.
func (e *Engine) Status() Status {
	st := Status{
		Enabled:          !e.cfg.Retrieval.Disabled,
		Initialized:      e.store != nil,
		IndexDir:         e.cfg.Index.Dir,
		Rows:             e.rows(),
		Model:            e.provider.Model(),
		LexicalAvailable: e.lexical != nil,
		Serving:          e.service.Stats(),
	}
	if e.store != nil {
		st.Dim = e.store.Dim()
		if sum := e.store.Summary(); sum != nil {
			st.IndexModel = sum.Model
			st.BuiltAt = sum.CreatedAt
		}
	}
	return st
}

func (e *Engine) rows() int {
	if e.store == nil {
		return 0
	}
	return e.store.Size()
}

// Close releases the worker pool and the embedding provider.
func (e *Engine) Close() error {
	if e.service != nil {
		e.service.Release()
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			return err
		}
	}
	return nil
}

// BuildOptions maps cfg onto corpus build options.
func BuildOptions(cfg *config.AppConfig, model string, progress io.Writer, logger *slog.Logger) index.Options {
	return index.Options{
		DocsDir:    cfg.Index.DocsDir,
		OutDir:     cfg.Index.Dir,
		Model:      model,
		ChunkSize:  cfg.Index.ChunkSize,
		Overlap:    *cfg.Index.Overlap,
		Extensions: cfg.Index.Extensions,
		MaxDocs:    cfg.Index.MaxDocs,
		BatchSize:  cfg.Embedder.BatchSize,
		Workers:    cfg.Index.Workers,
		MaxRetries: cfg.Index.MaxRetries,
		Progress:   progress,
		Logger:     logger,
	}
}

// Build indexes cfg.Index.DocsDir into cfg.Index.Dir with provider.
func Build(ctx context.Context, cfg *config.AppConfig, provider ai.Provider, progress io.Writer, logger *slog.Logger) (*core.BuildSummary, error) {
	if provider == nil {
		return nil, errors.New("embedding provider required")
	}
	return index.Build(ctx, provider.Embedder(), BuildOptions(cfg, provider.Model(), progress, logger))
}

func loadSynonyms(path string) (query.Synonyms, error) {
	if path == "" {
		return query.DefaultSynonyms(), nil
	}
	return query.LoadSynonyms(path)
}

func loadCatalog(path string) (*evidence.Catalog, error) {
	if path == "" {
		return evidence.DefaultCatalog(), nil
	}
	return evidence.LoadCatalog(path, evidence.DefaultCatalogLimit)
}
