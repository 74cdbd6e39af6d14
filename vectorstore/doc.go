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

// Package vectorstore serves nearest-neighbor queries over a built corpus.
//
// Load reads the chunk and vector tables into memory once. Vectors are unit
// length, so the inner product used by Search is cosine similarity. The
// store is never mutated after loading, which makes it safe to share across
// concurrent requests without locks.
//
// If the chunk and vector tables disagree in length, the store keeps the
// shorter prefix of both and logs a warning instead of refusing to start.
package vectorstore
