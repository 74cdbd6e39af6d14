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

// Package serving answers evidence requests for clinical summaries.
//
// For each request the Service fingerprints the retrieval-relevant fields
// of the summary and consults a TTL cache. On a miss it runs hybrid
// retrieval on a worker pool under a per-request deadline of the
// configured timeout plus a random jitter, fetches static fallback cards,
// assembles the final card list and caches it.
//
// Retrieval failures never fail a request. A timeout, a full worker pool
// or any retrieval error produces a response built from fallback cards
// alone, marked Degraded. The only error Evidence returns is for a summary
// that fails ingress validation.
package serving
