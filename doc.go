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

// Package evidentia retrieves supporting clinical evidence for patient
// summaries.
//
// An Engine is constructed once at process start from an AppConfig. It
// loads the corpus index built by package index, builds the lexical index
// and query builder, and serves evidence requests through a cached,
// deadline-bounded service that degrades to static fallback cards when
// retrieval is slow or failing.
//
//	cfg, err := config.Load("config.yaml")
//	engine, err := evidentia.Open(ctx, cfg)
//	defer engine.Close()
//	resp, err := engine.Evidence(ctx, &summary)
package evidentia
