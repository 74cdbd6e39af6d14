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

package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/poiesic/evidentia/ai"
	"github.com/poiesic/evidentia/chunking"
	"github.com/poiesic/evidentia/core"
	"github.com/poiesic/evidentia/storage"
	"github.com/poiesic/evidentia/storage/badger"
)

const (
	// CorpusDirName is the corpus store directory inside an index directory.
	CorpusDirName = "corpus"
	// SummaryFileName is the build summary written next to the corpus store.
	SummaryFileName = "build_summary.json"

	writeBatchRows = 1024
)

// Build indexes every accepted file under opts.DocsDir and atomically
// replaces opts.OutDir with the result.
//
// The build runs in a sibling temp directory under an exclusive file lock;
// OutDir is only touched by the final swap. Zero documents or zero chunks is
// an error, never an empty index.
func Build(ctx context.Context, embedder ai.Embedder, opts Options) (*core.BuildSummary, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if opts.DocsDir == "" || opts.OutDir == "" {
		return nil, errors.New("docs dir and out dir are required")
	}
	opts.applyDefaults()
	logger := opts.Logger.With("component", "indexer")

	chunker, err := chunking.New(chunking.WithChunkSize(opts.ChunkSize), chunking.WithOverlap(opts.Overlap))
	if err != nil {
		return nil, err
	}

	outDir := filepath.Clean(opts.OutDir)
	unlock, err := acquireBuildLock(ctx, outDir, opts.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	logger.Info("starting corpus build", "docs_dir", opts.DocsDir, "out_dir", outDir,
		"chunk_size", opts.ChunkSize, "overlap", opts.Overlap, "max_docs", opts.MaxDocs)

	sources, err := discover(opts.DocsDir, opts.Extensions, opts.MaxDocs)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		logger.Error("no documents found", "docs_dir", opts.DocsDir, "extensions", opts.Extensions)
		return nil, fmt.Errorf("%w under %s (expected %v)", ErrNoDocuments, opts.DocsDir, opts.Extensions)
	}
	logger.Info("found documents", "count", len(sources))

	chunks, err := chunkSources(ctx, chunker, sources, logger)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		logger.Error("no chunks produced", "files", len(sources))
		return nil, fmt.Errorf("%w from %d files", ErrNoChunks, len(sources))
	}
	logger.Info("chunked corpus", "chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	var progress *ProgressTracker
	if opts.Progress != nil {
		progress = NewProgressTracker(opts.Progress, len(texts), opts.BatchSize)
		progress.Start()
	}
	be, err := newBatchEmbedder(embedder, &opts, progress)
	if err != nil {
		return nil, err
	}
	vectors, err := be.embedAll(ctx, texts)
	be.Release()
	if err != nil {
		return nil, fmt.Errorf("embedding corpus: %w", err)
	}
	if progress != nil {
		progress.Finish()
	}

	summary := &core.BuildSummary{
		DocsDir:      opts.DocsDir,
		OutDir:       outDir,
		Model:        opts.Model,
		FilesIndexed: len(sources),
		Chunks:       len(chunks),
		Dim:          len(vectors[0]),
		ChunkSize:    opts.ChunkSize,
		Overlap:      opts.Overlap,
		StorePath:    filepath.Join(outDir, CorpusDirName),
		SummaryPath:  filepath.Join(outDir, SummaryFileName),
		CreatedAt:    time.Now().UTC(),
	}

	tmpDir, err := os.MkdirTemp(filepath.Dir(outDir), "."+filepath.Base(outDir)+".build-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create build dir: %w", err)
	}
	if err := writeIndex(ctx, tmpDir, chunks, vectors, summary); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, err
	}
	if err := AtomicSwap(tmpDir, outDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("cannot install index at %s: %w", outDir, err)
	}

	logger.Info("corpus build complete", "files", summary.FilesIndexed, "chunks", summary.Chunks, "dim", summary.Dim)
	return summary, nil
}

func chunkSources(ctx context.Context, chunker *chunking.Chunker, sources []source, logger *slog.Logger) ([]core.DocChunk, error) {
	var chunks []core.DocChunk
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := readText(src.path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src.rel, err)
		}
		windows := chunker.Split(raw)
		if len(windows) == 0 {
			logger.Warn("document produced no chunks", "file", src.rel)
			continue
		}
		logger.Debug("chunked document", "file", src.rel, "index", i+1, "chunks", len(windows))

		for seq, w := range windows {
			chunk := core.DocChunk{
				ID:     fmt.Sprintf("%s__%04d", src.idKey, seq),
				Title:  src.title,
				Source: src.title,
				Text:   w.Text,
				File:   src.rel,
				Start:  w.Start,
				End:    w.End,
				Year:   src.year,
				Tags:   src.tags,
			}
			if err := core.ValidateDocChunk(&chunk); err != nil {
				return nil, err
			}
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// writeIndex persists rows and the summary into dir.
func writeIndex(ctx context.Context, dir string, chunks []core.DocChunk, vectors [][]float32, summary *core.BuildSummary) error {
	repo, err := badger.NewCorpusRepository(filepath.Join(dir, CorpusDirName))
	if err != nil {
		return fmt.Errorf("cannot open corpus store: %w", err)
	}
	for start := 0; start < len(chunks); start += writeBatchRows {
		end := min(start+writeBatchRows, len(chunks))
		if err := repo.WriteRows(ctx, chunks[start:end], vectors[start:end]); err != nil {
			repo.Close()
			return fmt.Errorf("writing rows %d-%d: %w", start, end, err)
		}
	}
	if err := repo.WriteSummary(ctx, summary); err != nil {
		repo.Close()
		return err
	}
	if err := repo.Close(); err != nil {
		return err
	}

	data, err := storage.MarshalBuildSummary(summary)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, SummaryFileName), data, 0o644)
}

// acquireBuildLock takes an exclusive lock on "<outDir>.lock".
func acquireBuildLock(ctx context.Context, outDir string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(outDir), 0o755); err != nil {
		return nil, err
	}
	lockPath := outDir + ".lock"
	l := flock.New(lockPath)

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	locked, err := l.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("cannot acquire build lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock: %s)", ErrBuildLocked, lockPath)
	}
	return func() { _ = l.Unlock() }, nil
}
