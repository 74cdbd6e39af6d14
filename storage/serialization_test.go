package storage

import (
	"bytes"
	"testing"

	"github.com/poiesic/evidentia/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowKeysSortNumerically(t *testing.T) {
	rows := []int{0, 1, 2, 255, 256, 65536}
	for i := 1; i < len(rows); i++ {
		assert.Equal(t, -1, bytes.Compare(MarshalRow(rows[i-1]), MarshalRow(rows[i])))
	}

	got, err := UnmarshalRow(MarshalRow(65536))
	require.NoError(t, err)
	assert.Equal(t, 65536, got)

	_, err = UnmarshalRow([]byte{1, 2})
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestChunkEncoding(t *testing.T) {
	chunk := &core.DocChunk{
		ID:     "chest_pain_guideline_2021__0003",
		Title:  "Chest Pain Guideline 2021",
		Source: "Chest Pain Guideline 2021",
		Text:   "High-sensitivity troponin is preferred.",
		File:   "chest_pain_guideline_2021.md",
		Start:  1200,
		End:    1240,
		Year:   2021,
		Tags:   map[string]string{"type": "guideline"},
	}

	data, err := MarshalChunk(chunk)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"year":2021`)
	assert.NotContains(t, string(data), `"url"`)

	decoded, err := UnmarshalChunk(data)
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)

	_, err = UnmarshalChunk([]byte("{not json"))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestVectorEncoding(t *testing.T) {
	vec := []float32{0.5, -0.25, 1e-7, 0}

	data := MarshalVector(vec)
	assert.Len(t, data, 16)
	// little-endian 0.5 = 0x3f000000
	assert.Equal(t, []byte{0, 0, 0, 0x3f}, data[:4])

	decoded, err := UnmarshalVector(data)
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = UnmarshalVector(data[:5])
	assert.ErrorIs(t, err, ErrTruncatedData)
}
