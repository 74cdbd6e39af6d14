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

// Package evidence turns ranked retrievals and static fallback cards into
// the evidence cards returned to callers.
//
// Assemble orders retrievals by score, renders each as a card with a
// cleaned snippet, appends the fallback cards, drops duplicates by
// (title, year, section) and assigns dense 1-based ranks up to a card cap.
// Retrieved cards always come before fallback cards.
package evidence
