package index

import "errors"

var (
	// ErrNoDocuments is returned when the docs directory has no accepted files.
	ErrNoDocuments = errors.New("no documents found")

	// ErrNoChunks is returned when documents were found but produced no chunks.
	ErrNoChunks = errors.New("no chunks produced")

	// ErrBuildLocked is returned when another build holds the output lock.
	ErrBuildLocked = errors.New("another build is in progress")

	// ErrEmbeddingMismatch is returned when the backend returns the wrong
	// number of vectors or vectors of inconsistent dimension.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")

	// ErrEmbedderRequired is returned when Build is called without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
