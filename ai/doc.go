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

// Package ai provides the embedding abstraction used by evidentia.
//
// The corpus indexer embeds chunk texts in batches and the hybrid retriever
// embeds one expanded query per request. Both depend on the Embedder
// interface defined here rather than on a concrete backend.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embedding APIs via langchaingo
//   - ai/mock: deterministic embedder for tests and offline builds
//
// Public constructors in ai/openai return interface types. The mock
// constructor returns the concrete *mock.MockEmbedder so tests can inject
// behavior and assert call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("nomic-embed-text"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "chest pain troponin")
package ai
