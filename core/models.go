package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chunk is a bounded contiguous slice of a document's text, the atomic unit
// of indexing. Chunks are immutable once created. Index is contiguous per
// document starting at 0; sorting by Index reconstructs document order.
type Chunk struct {
	DocumentID string
	Index      uint32
	Text       string
	Start      uint32 // Rune offset of the chunk start in the source text
	End        uint32 // Rune offset one past the chunk end
}

// ChunkRecord is an indexed chunk together with its embedding vector and
// owner scope. Records are never mutated in place; re-indexing a document
// replaces its records.
type ChunkRecord struct {
	DocumentID string
	Index      uint32
	Owner      string
	Text       string
	Start      uint32
	End        uint32
	Vector     []float32 // Unit-normalized embedding (empty until embedded)
	InsertedAt int64     // Unix microseconds
	UpdatedAt  int64     // Unix microseconds
}

// UnembeddedMarker records a chunk whose embedding could not be generated
// after bounded retries. Marked chunks are excluded from search but remain
// observable, they are not silently dropped from the document.
type UnembeddedMarker struct {
	DocumentID string
	Index      uint32
	Owner      string
	Reason     string
	Attempts   uint32
	MarkedAt   int64 // Unix microseconds
}

// RetrievalResult is a search hit: a chunk record with its similarity score
// in [0,1] and its rank in the result sequence.
type RetrievalResult struct {
	Record *ChunkRecord
	Score  float32
	Rank   int
}

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the human user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the generation backend.
	RoleAssistant Role = "assistant"
)

// Turn is a single entry of a session's conversation history.
type Turn struct {
	Role Role
	Text string
}
