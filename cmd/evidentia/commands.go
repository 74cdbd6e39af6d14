package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/evidentia"
	"github.com/poiesic/evidentia/config"
	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/query"
	"github.com/poiesic/evidentia/vectorstore"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the global config and applies per-command overrides.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.Bool("offline") {
		cfg.Embedder.Provider = config.ProviderMock
	}
	return cfg, nil
}

func buildCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if dir := c.String("docs"); dir != "" {
		cfg.Index.DocsDir = dir
	}
	if dir := c.String("out"); dir != "" {
		cfg.Index.Dir = dir
	}
	if n := c.Int("max-docs"); n > 0 {
		cfg.Index.MaxDocs = n
	}

	provider, err := evidentia.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	defer provider.Close()

	fmt.Fprintf(os.Stderr, "Docs: %s\n", cfg.Index.DocsDir)
	fmt.Fprintf(os.Stderr, "Index: %s\n", cfg.Index.Dir)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", provider.Model())
	fmt.Fprintln(os.Stderr)

	summary, err := evidentia.Build(c.Context, cfg, provider, os.Stderr, slog.Default())
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return writeJSON(c.App.Writer, summary)
}

func queryCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	summary, err := readSummary(c.App.Reader, c.String("summary"))
	if err != nil {
		return err
	}
	if k := c.Int("k"); k > 0 {
		cfg.Retrieval.TopK = k
	}

	engine, err := evidentia.Open(c.Context, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if c.Bool("explain") {
		r := engine.Retriever()
		if r == nil {
			return errors.New("retrieval is disabled, nothing to explain")
		}
		_, err := r.RetrieveWithMonitor(c.Context, summary, cfg.Retrieval.TopK, newExplainMonitor(c.App.Writer))
		return err
	}

	resp, err := engine.Evidence(c.Context, summary)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, resp)
}

// searchHit is one raw chunk as printed by the search command.
type searchHit struct {
	Score float64 `json:"score"`
	core.DocChunk
}

func searchCommand(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return errors.New("search text is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	k := cfg.Retrieval.TopK
	if n := c.Int("k"); n > 0 {
		k = n
	}

	engine, err := evidentia.Open(c.Context, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	r := engine.Retriever()
	if r == nil {
		return errors.New("retrieval is disabled, nothing to search")
	}
	rets, err := r.Retrieve(c.Context, &core.Summary{CC: text}, k)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	hits := make([]searchHit, len(rets))
	for i, ret := range rets {
		hits[i] = searchHit{Score: ret.Score, DocChunk: ret.Chunk}
	}
	return writeJSON(c.App.Writer, hits)
}

func expandCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	summary, err := readSummary(c.App.Reader, c.String("summary"))
	if err != nil {
		return err
	}

	syn := query.DefaultSynonyms()
	if path := cfg.Retrieval.SynonymsPath; path != "" {
		if syn, err = query.LoadSynonyms(path); err != nil {
			return err
		}
	}
	builder, err := query.NewBuilder(syn,
		query.WithMaxPerTerm(cfg.Retrieval.MaxPerTerm),
		query.WithMaxTotal(cfg.Retrieval.MaxTotal),
	)
	if err != nil {
		return err
	}

	printQueries(c.App.Writer, builder.Build(summary))
	return nil
}

func statusCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := evidentia.Open(c.Context, cfg)
	if errors.Is(err, vectorstore.ErrIndexMissing) {
		return writeJSON(c.App.Writer, evidentia.Status{
			Enabled:  !cfg.Retrieval.Disabled,
			IndexDir: cfg.Index.Dir,
		})
	}
	if err != nil {
		return err
	}
	defer engine.Close()
	return writeJSON(c.App.Writer, engine.Status())
}

func readSummary(stdin io.Reader, path string) (*core.Summary, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading summary: %w", err)
	}

	var s core.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidSummary, err)
	}
	return &s, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printQueries(w io.Writer, q query.Queries) {
	fmt.Fprintf(w, "Base: %s\n", q.Base)
	fmt.Fprintf(w, "Terms (%d):\n", len(q.Terms))
	for _, t := range q.Terms {
		fmt.Fprintf(w, "  %s\n", t)
	}
	fmt.Fprintf(w, "Embed: %s\n", q.Embed)
	fmt.Fprintf(w, "Lexical: %s\n", q.Lexical)
}
