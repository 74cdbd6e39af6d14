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

import (
	"fmt"
	"strings"
)

// ValidateDocChunk validates a DocChunk according to corpus rules.
//
// Validation rules:
//   - ID must not be empty
//   - Text must not be empty
//   - Offsets must satisfy 0 <= Start < End
//
// NOT validated:
//   - URL, Year, Section and Tags (all optional)
func ValidateDocChunk(chunk *DocChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkID)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Start < 0 || chunk.Start >= chunk.End {
		return fmt.Errorf("%w: %w (start=%d end=%d)", ErrInvalidChunk, ErrInvalidOffsets, chunk.Start, chunk.End)
	}

	return nil
}

// ValidateSummary validates a Summary at the ingress boundary.
//
// Validation rules:
//   - Flag names must not be blank
//   - Code entries must not exceed MaxCodeLength
//   - HPI and CC must not exceed MaxNarrativeLength
//
// An entirely empty summary is valid; the query builder falls back to a
// generic phrase for it.
func ValidateSummary(s *Summary) error {
	if s == nil {
		return fmt.Errorf("%w: summary is nil", ErrInvalidSummary)
	}

	for name := range s.Flags {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: %w", ErrInvalidSummary, ErrEmptyFlagName)
		}
	}

	for _, list := range [][]string{s.Codes.Diagnosis, s.Codes.Procedure, s.Codes.Labels} {
		for _, code := range list {
			if len(code) > MaxCodeLength {
				return fmt.Errorf("%w: %w: %q", ErrInvalidSummary, ErrCodeTooLong, code[:16]+"...")
			}
		}
	}

	if len(s.HPI) > MaxNarrativeLength || len(s.CC) > MaxNarrativeLength {
		return fmt.Errorf("%w: %w", ErrInvalidSummary, ErrNarrativeTooLong)
	}

	return nil
}
