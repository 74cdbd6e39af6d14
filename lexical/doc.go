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

// Package lexical implements an in-memory BM25 Okapi keyword index over the
// chunk corpus.
//
// The index is built once from the vector store's corpus texts and is
// read-only afterwards, so concurrent scoring needs no locking. Corpus
// texts and queries go through the same tokenizer: lowercase ASCII
// alphanumeric runs.
package lexical
