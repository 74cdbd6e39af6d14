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

// Package storage provides the storage abstraction for evidentia corpus builds.
//
// A corpus build is a pair of row-aligned tables (chunk metadata and
// embedding vectors) plus a build summary. The indexer writes them once; the
// vector store reads them back at startup and serves from memory.
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface type:
//
//	repo, err := badger.NewCorpusRepository(path)  // returns storage.CorpusRepository
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryCorpus()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// # Encoding
//
// Chunk rows are JSON. Vectors are little-endian float32 arrays. Row keys are
// big-endian so prefix iteration yields row order.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
package storage
