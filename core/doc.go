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

// Package core defines the domain types shared by every evidentia package:
// corpus chunks, retrievals, evidence cards, build summaries and the typed
// patient summary record consumed at the ingress boundary.
//
// Types in this package carry no behavior beyond validation and hashing.
// Storage, retrieval and serving live in their own packages and exchange
// these values.
package core
