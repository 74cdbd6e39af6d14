package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider owns an Embedder and its lifecycle.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Model returns the embedding model identifier, recorded in build summaries.
	Model() string

	// Close releases resources held by the provider.
	Close() error
}
