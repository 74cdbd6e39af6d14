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

package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/poiesic/evidentia/core"
)

// MarshalRow encodes a row index so that byte order matches numeric order.
func MarshalRow(row int) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(row))
	return buf
}

// UnmarshalRow decodes a row index written by MarshalRow.
func UnmarshalRow(data []byte) (int, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("%w: row key has %d bytes", ErrTruncatedData, len(data))
	}
	return int(binary.BigEndian.Uint32(data)), nil
}

// MarshalChunk serializes a DocChunk to bytes.
func MarshalChunk(chunk *core.DocChunk) ([]byte, error) {
	data, err := json.Marshal(chunk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalChunk deserializes a DocChunk from bytes.
func UnmarshalChunk(data []byte) (*core.DocChunk, error) {
	var chunk core.DocChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalVector serializes a vector as little-endian float32 values.
func MarshalVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// UnmarshalVector deserializes a vector written by MarshalVector.
func UnmarshalVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: vector has %d bytes", ErrTruncatedData, len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}

// MarshalBuildSummary serializes a BuildSummary to indented JSON.
func MarshalBuildSummary(summary *core.BuildSummary) ([]byte, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalBuildSummary deserializes a BuildSummary from bytes.
func UnmarshalBuildSummary(data []byte) (*core.BuildSummary, error) {
	var summary core.BuildSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &summary, nil
}
