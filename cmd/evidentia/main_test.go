package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/evidentia"
	"github.com/poiesic/evidentia/serving"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const chestPainJSON = `{
  "hpi": "Intermittent chest pressure on exertion.",
  "cc": "chest pain",
  "flags": {"ischemic_features": true}
}`

type fixture struct {
	config  string
	docs    string
	index   string
	summary string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		config:  filepath.Join(root, "evidentia.yaml"),
		docs:    filepath.Join(root, "docs"),
		index:   filepath.Join(root, "rag_index"),
		summary: filepath.Join(root, "summary.json"),
	}
	require.NoError(t, os.MkdirAll(f.docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.docs, "chest_pain_guideline_2021.md"),
		[]byte("Acute chest pain warrants an ECG within ten minutes and high-sensitivity troponin."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.docs, "ada_standards_2025.md"),
		[]byte("Type 2 diabetes: check HbA1c at least twice yearly."), 0o644))
	require.NoError(t, os.WriteFile(f.summary, []byte(chestPainJSON), 0o644))

	cfg := "embedder:\n  provider: mock\nindex:\n  docs_dir: " + f.docs + "\n  dir: " + f.index + "\nserving:\n  timeout_ms: 5000\n"
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o644))
	return f
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"evidentia"}, args...))
	return out.String(), err
}

func TestCommands(t *testing.T) {
	f := newFixture(t)

	t.Run("status before build", func(t *testing.T) {
		out, err := run(t, "--config", f.config, "status")
		require.NoError(t, err)
		var st evidentia.Status
		require.NoError(t, json.Unmarshal([]byte(out), &st))
		assert.True(t, st.Enabled)
		assert.False(t, st.Initialized)
	})

	t.Run("build", func(t *testing.T) {
		out, err := run(t, "--config", f.config, "build", "--offline")
		require.NoError(t, err)
		assert.Contains(t, out, `"files_indexed": 2`)
	})

	t.Run("query", func(t *testing.T) {
		out, err := run(t, "--config", f.config, "query", "--summary", f.summary)
		require.NoError(t, err)
		var resp serving.Response
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.NotEmpty(t, resp.Items)
		assert.Equal(t, 1, resp.Items[0].Rank)
		assert.Equal(t, "Chest Pain Guideline 2021", resp.Items[0].Title)
	})

	t.Run("query explain", func(t *testing.T) {
		out, err := run(t, "--config", f.config, "query", "--summary", f.summary, "--explain")
		require.NoError(t, err)
		assert.Contains(t, out, "Vector (")
		assert.Contains(t, out, "Fused (")
		assert.Contains(t, out, "Chest Pain Guideline 2021")
	})

	t.Run("search", func(t *testing.T) {
		out, err := run(t, "--config", f.config, "search", "-k", "1", "chest", "pain", "troponin")
		require.NoError(t, err)
		var hits []searchHit
		require.NoError(t, json.Unmarshal([]byte(out), &hits))
		require.Len(t, hits, 1)
		assert.Equal(t, "Chest Pain Guideline 2021", hits[0].Title)
		assert.Equal(t, 2021, hits[0].Year)
		assert.Contains(t, hits[0].Text, "troponin")
		assert.GreaterOrEqual(t, hits[0].Score, 0.0)
		assert.LessOrEqual(t, hits[0].Score, 1.0)
	})

	t.Run("search without text", func(t *testing.T) {
		_, err := run(t, "--config", f.config, "search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search text is required")
	})

	t.Run("expand", func(t *testing.T) {
		out, err := run(t, "--config", f.config, "expand", "--summary", f.summary)
		require.NoError(t, err)
		assert.Contains(t, out, "Lexical: ")
		assert.Contains(t, out, "troponin")
	})

	t.Run("status after build", func(t *testing.T) {
		out, err := run(t, "--config", f.config, "status")
		require.NoError(t, err)
		var st evidentia.Status
		require.NoError(t, json.Unmarshal([]byte(out), &st))
		assert.True(t, st.Initialized)
		assert.Equal(t, 2, st.Rows)
		assert.Equal(t, "mock-hash", st.IndexModel)
	})

	t.Run("summary is required", func(t *testing.T) {
		_, err := run(t, "--config", f.config, "query")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "summary")
	})

	t.Run("bad summary json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
		_, err := run(t, "--config", f.config, "expand", "--summary", bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid summary")
	})
}

func TestReadSummaryFromStdin(t *testing.T) {
	s, err := readSummary(strings.NewReader(chestPainJSON), "-")
	require.NoError(t, err)
	assert.Equal(t, "chest pain", s.CC)
	assert.True(t, s.Flags["ischemic_features"])
}

func TestBuildCommandFlags(t *testing.T) {
	app := newApp()
	var build *cli.Command
	for _, cmd := range app.Commands {
		if cmd.Name == "build" {
			build = cmd
		}
	}
	require.NotNil(t, build)

	t.Run("offline defaults to false", func(t *testing.T) {
		var offline *cli.BoolFlag
		for _, flag := range build.Flags {
			if f, ok := flag.(*cli.BoolFlag); ok && f.Name == "offline" {
				offline = f
			}
		}
		require.NotNil(t, offline)
		assert.False(t, offline.Value)
	})

	t.Run("docs has no EnvVars", func(t *testing.T) {
		var docs *cli.StringFlag
		for _, flag := range build.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "docs" {
				docs = f
			}
		}
		require.NotNil(t, docs)
		assert.Empty(t, docs.EnvVars)
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, tc := range []string{"debug", "info", "warn", "error", "DEBUG", "Info"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "log-level", Value: "info"},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error { return nil },
				}
				require.NoError(t, app.Run([]string{"test", "--log-level", tc}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		_, err := run(t, "--log-level", "loud", "status")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				assert.Equal(t, "debug", c.String("log-level"))
				return nil
			},
		}
		require.NoError(t, app.Run([]string{"test", "-l", "debug"}))
	})
}
