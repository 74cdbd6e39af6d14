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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/evidentia/config"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "evidentia",
		Usage: "Clinical evidence retrieval over a local guideline corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (missing file means defaults)",
				Value:   "evidentia.yaml",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Dotenv files to load before reading the config",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Chunk, embed and index the document corpus",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "docs",
						Usage: "Corpus directory (overrides index.docs_dir)",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Index output directory (overrides index.dir)",
					},
					&cli.IntFlag{
						Name:  "max-docs",
						Usage: "Index at most N files, 0 for all",
					},
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Use the deterministic hash embedder instead of the configured provider",
					},
				},
			},
			{
				Name:   "query",
				Usage:  "Retrieve evidence cards for a summary",
				Action: queryCommand,
				Flags: []cli.Flag{
					summaryFlag(),
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Use the deterministic hash embedder instead of the configured provider",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print every retrieval stage instead of cards",
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of retrievals to request (overrides retrieval.top_k)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Retrieve raw chunks for free text",
				ArgsUsage: "<text>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of chunks to return (overrides retrieval.top_k)",
					},
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Use the deterministic hash embedder instead of the configured provider",
					},
				},
			},
			{
				Name:   "expand",
				Usage:  "Show the embedding and lexical queries built for a summary",
				Action: expandCommand,
				Flags:  []cli.Flag{summaryFlag()},
			},
			{
				Name:   "status",
				Usage:  "Report index and retrieval status",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Use the deterministic hash embedder instead of the configured provider",
					},
				},
			},
		},
	}
}

func summaryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "summary",
		Aliases:  []string{"s"},
		Usage:    "Path to a summary JSON file, or - for stdin",
		Required: true,
	}
}

func before(c *cli.Context) error {
	if err := config.LoadEnv(c.StringSlice("env-file")...); err != nil {
		return err
	}
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
