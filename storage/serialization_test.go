package storage

import (
	"testing"

	"github.com/poiesic/groundit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotNil(t, data)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalChunkRecord(t *testing.T) {
	record := &core.ChunkRecord{
		DocumentID: "physics-notes",
		Index:      3,
		Owner:      "user-7",
		Text:       "Entropy never decreases in an isolated system.",
		Start:      1200,
		End:        1246,
		Vector:     []float32{0.1, -0.5, 0.86},
		InsertedAt: 1725148800000000,
		UpdatedAt:  1725148800000000,
	}

	data := MarshalChunkRecord(record)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalChunkRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}

func TestMarshalUnmarshalChunkRecord_NoVector(t *testing.T) {
	record := &core.ChunkRecord{
		DocumentID: "pending-doc",
		Index:      0,
		Text:       "not yet embedded",
	}

	decoded, err := UnmarshalChunkRecord(MarshalChunkRecord(record))
	require.NoError(t, err)
	assert.Empty(t, decoded.Vector)
	assert.Equal(t, record.Text, decoded.Text)
}

func TestUnmarshalChunkRecord_Truncated(t *testing.T) {
	record := &core.ChunkRecord{
		DocumentID: "doc",
		Text:       "some chunk text",
		Vector:     []float32{1, 2, 3},
	}
	data := MarshalChunkRecord(record)

	_, err := UnmarshalChunkRecord(data[:len(data)/2])
	assert.Error(t, err)
}

func TestMarshalUnmarshalUnembeddedMarker(t *testing.T) {
	marker := &core.UnembeddedMarker{
		DocumentID: "physics-notes",
		Index:      3,
		Owner:      "user-7",
		Reason:     "embedding service unavailable",
		Attempts:   2,
		MarkedAt:   1725148800000000,
	}

	decoded, err := UnmarshalUnembeddedMarker(MarshalUnembeddedMarker(marker))
	require.NoError(t, err)
	assert.Equal(t, marker, decoded)
}
