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

package serving

import "errors"

var (
	// ErrFallbackRequired is returned when no fallback source is provided.
	ErrFallbackRequired = errors.New("fallback source required")

	// ErrInvalidOption is returned for out-of-range option values.
	ErrInvalidOption = errors.New("invalid serving option")

	// ErrRetrievalTimeout is logged when retrieval exceeds its deadline.
	ErrRetrievalTimeout = errors.New("retrieval timed out")

	// ErrRetrievalPanic wraps a panic raised by a retriever.
	ErrRetrievalPanic = errors.New("retriever panicked")
)
