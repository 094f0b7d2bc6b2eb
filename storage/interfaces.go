package storage

import (
	"context"

	"github.com/poiesic/groundit/core"
)

// VectorRepository stores embedded document chunks and supports similarity
// search over them. Implementations must be thread-safe and support
// concurrent access.
type VectorRepository interface {
	// Upsert writes chunk records keyed by (owner, document, index).
	// Writing an existing key replaces the stored record. Records carrying
	// a vector pin the store's dimension on first write; later records
	// with a different vector length fail with core.ErrDimensionMismatch.
	// Sets InsertedAt on first write and refreshes UpdatedAt on every write.
	Upsert(ctx context.Context, records ...*core.ChunkRecord) error

	// SetVectors attaches embeddings to records already in the store,
	// returning how many were applied. A record whose key no longer exists,
	// or whose stored text differs from the given record's text, is skipped:
	// a deferred embedding write never resurrects a deleted document and
	// never attaches a stale vector to re-ingested text. Applied vectors pin
	// or must match the store dimension, and clear the chunk's unembedded
	// marker.
	SetVectors(ctx context.Context, records ...*core.ChunkRecord) (int, error)

	// Search finds the chunk records owned by owner most similar to the
	// given vector. Returns up to topK results with score >= minScore,
	// ordered by score descending; ties break by ascending
	// (document, index). Records without a vector are skipped.
	Search(ctx context.Context, owner string, vector []float32, topK int, minScore float32) ([]*core.RetrievalResult, error)

	// Get retrieves a single chunk record by its (owner, document, index)
	// key. Returns nil and no error when the record does not exist.
	Get(ctx context.Context, owner, documentID string, index uint32) (*core.ChunkRecord, error)

	// Document retrieves every chunk record of a document, ordered by
	// chunk index. Returns an empty slice for an unknown document.
	Document(ctx context.Context, documentID string) ([]*core.ChunkRecord, error)

	// DeleteDocument removes every chunk record and unembedded marker for
	// the document, across all owners. Returns the number of chunk records
	// removed; deleting an unknown document returns 0 and no error.
	DeleteDocument(ctx context.Context, documentID string) (int, error)

	// MarkUnembedded records that a chunk's embedding failed, keyed by
	// (document, index). Sets MarkedAt if not already set. A later Upsert
	// of the same chunk with a vector clears the marker.
	MarkUnembedded(ctx context.Context, markers ...*core.UnembeddedMarker) error

	// Unembedded lists the unembedded markers for a document, ordered by
	// chunk index. An empty documentID lists markers for all documents.
	Unembedded(ctx context.Context, documentID string) ([]*core.UnembeddedMarker, error)

	// Dimension returns the pinned vector dimension, or 0 if no vector
	// has been stored yet.
	Dimension(ctx context.Context) (int, error)

	// Close releases repository resources. It does not close the
	// underlying backend.
	Close() error
}
