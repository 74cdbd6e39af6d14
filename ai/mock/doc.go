// Package mock provides test doubles for the ai package.
//
// # Usage
//
//	// Default behavior: feature-hashed bag-of-words vectors
//	embedder := mock.NewMockEmbedder()
//	vec, _ := embedder.EmbedText(ctx, "chest pain")
//
//	// Inject a failure or a slow backend
//	embedder := mock.NewMockEmbedder().
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        <-ctx.Done()
//	        return nil, ctx.Err()
//	    })
//
//	// Check call counts
//	count := embedder.CallCount()
//
// The mock is also usable as an offline backend for `evidentia build
// --offline`, which is handy for smoke tests of a corpus directory.
package mock
