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

package vectorstore

import "errors"

var (
	// ErrIndexMissing indicates the corpus store does not exist or cannot be opened.
	ErrIndexMissing = errors.New("corpus index missing, run build first")

	// ErrEmptyIndex indicates the corpus store holds no usable rows.
	ErrEmptyIndex = errors.New("corpus index is empty")

	// ErrRowOutOfRange indicates a row index outside [0, Size()).
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrDimensionMismatch indicates vectors of differing dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
