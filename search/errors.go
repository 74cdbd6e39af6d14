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

package search

import (
	"errors"
	"fmt"
)

var (
	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrBuilderRequired is returned when a query builder is not provided.
	ErrBuilderRequired = errors.New("query builder required")

	// ErrInvalidWeights is returned for negative fusion weights or weights summing to zero.
	ErrInvalidWeights = errors.New("invalid fusion weights")

	// ErrPanic wraps a value recovered from a panic during retrieval.
	ErrPanic = errors.New("panic during retrieval")
)

// Stage names the part of the retrieval path that failed.
type Stage string

const (
	StageQuery   Stage = "query"
	StageEmbed   Stage = "embed"
	StageVector  Stage = "vector"
	StageLexical Stage = "lexical"
	StageResolve Stage = "resolve"
	StagePanic   Stage = "panic"
)

// RetrievalError is the only error type returned by Retriever.Retrieve.
type RetrievalError struct {
	Stage Stage
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	var re *RetrievalError
	if errors.As(err, &re) {
		return re
	}
	return &RetrievalError{Stage: stage, Err: err}
}
