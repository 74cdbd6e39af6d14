package storage

import (
	"context"

	"github.com/poiesic/evidentia/core"
)

// CorpusRepository persists one corpus build: chunk metadata rows, the
// aligned embedding rows and the build summary.
//
// Row i of the chunk table describes row i of the vector table. Readers
// return rows in row order.
type CorpusRepository interface {
	// WriteRows appends aligned chunk and vector rows starting at row 0
	// or after the rows already written. Lengths must match.
	WriteRows(ctx context.Context, chunks []core.DocChunk, vectors [][]float32) error

	// WriteChunks appends chunk rows without vectors.
	WriteChunks(ctx context.Context, chunks []core.DocChunk) error

	// WriteVectors appends vector rows without chunks.
	WriteVectors(ctx context.Context, vectors [][]float32) error

	// WriteSummary stores the build summary, replacing any previous one.
	WriteSummary(ctx context.Context, summary *core.BuildSummary) error

	// ReadChunks returns every chunk row in row order.
	ReadChunks(ctx context.Context) ([]core.DocChunk, error)

	// ReadVectors returns every vector row in row order.
	ReadVectors(ctx context.Context) ([][]float32, error)

	// ReadSummary returns the build summary.
	// Returns ErrNotFound if no summary was written.
	ReadSummary(ctx context.Context) (*core.BuildSummary, error)

	// Close releases resources held by the repository.
	Close() error
}
