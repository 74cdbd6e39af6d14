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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a DocChunk failed validation.
	ErrInvalidChunk = errors.New("invalid doc chunk")

	// ErrInvalidSummary indicates a Summary failed validation at ingress.
	ErrInvalidSummary = errors.New("invalid summary")

	// ErrEmptyChunkID indicates the chunk ID is empty.
	ErrEmptyChunkID = errors.New("chunk id cannot be empty")

	// ErrEmptyContent indicates the chunk text is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidOffsets indicates start/end offsets are out of order.
	ErrInvalidOffsets = errors.New("chunk offsets must satisfy 0 <= start < end")

	// ErrEmptyFlagName indicates a flag key is blank.
	ErrEmptyFlagName = errors.New("flag name cannot be empty")

	// ErrCodeTooLong indicates a code list entry exceeds MaxCodeLength.
	ErrCodeTooLong = errors.New("code exceeds maximum length")

	// ErrNarrativeTooLong indicates a free-text field exceeds MaxNarrativeLength.
	ErrNarrativeTooLong = errors.New("narrative exceeds maximum length")
)
