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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/evidentia/ai"
)

// batchEmbedder fans embedding batches out over a worker pool.
type batchEmbedder struct {
	embedder       ai.Embedder
	pool           *ants.Pool
	batchSize      int
	maxRetries     int
	retryBaseDelay time.Duration
	progress       *ProgressTracker
	logger         *slog.Logger
}

func newBatchEmbedder(embedder ai.Embedder, opts *Options, progress *ProgressTracker) (*batchEmbedder, error) {
	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, err
	}
	return &batchEmbedder{
		embedder:       embedder,
		pool:           pool,
		batchSize:      opts.BatchSize,
		maxRetries:     opts.MaxRetries,
		retryBaseDelay: opts.RetryBaseDelay,
		progress:       progress,
		logger:         opts.Logger.With("component", "batch-embedder"),
	}, nil
}

// Release releases the worker pool.
func (b *batchEmbedder) Release() {
	b.pool.Release()
}

// embedAll returns one unit-norm vector per text, in input order.
// The first failing batch cancels the remaining ones.
func (b *batchEmbedder) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([][]float32, len(texts))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			if err := b.embedBatch(ctx, texts[start:end], out[start:end]); err != nil {
				fail(fmt.Errorf("batch %d-%d: %w", start, end, err))
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, checkDims(out)
}

func (b *batchEmbedder) embedBatch(ctx context.Context, texts []string, dst [][]float32) error {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = b.embedder.EmbedTexts(ctx, texts)
		return err
	}, b.maxRetries, b.retryBaseDelay)
	if err != nil {
		b.logger.Error("embedding batch failed", "size", len(texts), "attempts", b.maxRetries, "err", err)
		return err
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: expected %d vectors, got %d", ErrEmbeddingMismatch, len(texts), len(vectors))
	}
	for i, v := range vectors {
		dst[i] = NormalizeVector(v)
	}
	if b.progress != nil {
		b.progress.Increment(len(texts))
	}
	return nil
}

func checkDims(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("%w: empty embedding", ErrEmbeddingMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: row %d has dim %d, want %d", ErrEmbeddingMismatch, i, len(v), dim)
		}
	}
	return nil
}
