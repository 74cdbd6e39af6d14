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

// Package search provides hybrid vector and lexical retrieval of evidence
// chunks for a clinical summary.
//
// The Retriever builds queries from the summary, then runs two searches
// concurrently:
//   - Vector search: the expanded query is embedded and matched against the
//     vector store by cosine similarity
//   - Lexical search: the boolean query is tokenized and scored with BM25
//
// Each side fetches max(8, 2k) candidates. Scores are min-max normalized
// per side and fused as 0.6*vector + 0.4*lexical, with a missing side
// contributing 0. When only one side has hits, its normalized scores are
// used alone. The lexical index is optional; without it retrieval is
// vector-only.
//
// Retrieve never panics and never returns partial results. Any failure is
// reported as a *RetrievalError naming the stage that failed, and callers
// are expected to treat it as zero hits.
package search
