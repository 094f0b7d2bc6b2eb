package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/groundit/core"
	"github.com/poiesic/groundit/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository on the given backend.
func NewVectorRepository(backend *Backend) (*VectorRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", core.ErrInvalidConfig)
	}
	return &VectorRepository{backend: backend}, nil
}

// Close releases repository resources. The backend is closed separately.
func (r *VectorRepository) Close() error {
	return nil
}

// Upsert writes chunk records keyed by (owner, document, index).
func (r *VectorRepository) Upsert(ctx context.Context, records ...*core.ChunkRecord) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	for _, record := range records {
		if err := core.ValidateChunkRecord(record); err != nil {
			return err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}

		now := time.Now().UTC().UnixMicro()
		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}

			if len(record.Vector) > 0 {
				if dim == 0 {
					dim = len(record.Vector)
					if err := writeDimension(tx, dim); err != nil {
						return err
					}
				} else if len(record.Vector) != dim {
					return fmt.Errorf("%w: vector has %d dimensions, store is pinned to %d",
						core.ErrDimensionMismatch, len(record.Vector), dim)
				}
				// Stored normalized so search reduces to a dot product.
				record.Vector = core.NormalizeVector(record.Vector)
			}

			key := makeChunkRecordKey(record.Owner, record.DocumentID, record.Index)
			if prev, err := readChunkRecord(tx, key); err != nil {
				return err
			} else if prev != nil {
				record.InsertedAt = prev.InsertedAt
			} else if record.InsertedAt == 0 {
				record.InsertedAt = now
			}
			record.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalChunkRecord(record)); err != nil {
				return err
			}
			docKey := makeDocumentIndexKey(record.DocumentID, record.Owner, record.Index)
			if err := tx.Set(docKey, nil); err != nil {
				return err
			}

			// An embedded chunk supersedes its failure marker.
			if len(record.Vector) > 0 {
				if err := tx.Delete(makeUnembeddedKey(record.DocumentID, record.Index)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return wrapStoreErr(err)
}

// SetVectors attaches embeddings to records that are still live. Embedding
// runs after the index write, so by the time a vector arrives the document
// may have been deleted or re-ingested; such records are skipped rather
// than rewritten.
func (r *VectorRepository) SetVectors(ctx context.Context, records ...*core.ChunkRecord) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	for _, record := range records {
		if err := core.ValidateChunkRecord(record); err != nil {
			return 0, err
		}
		if len(record.Vector) == 0 {
			return 0, fmt.Errorf("%w: record %q[%d] has no vector",
				core.ErrInvalidConfig, record.DocumentID, record.Index)
		}
	}

	applied := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}

		now := time.Now().UTC().UnixMicro()
		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}

			key := makeChunkRecordKey(record.Owner, record.DocumentID, record.Index)
			stored, err := readChunkRecord(tx, key)
			if err != nil {
				return err
			}
			if stored == nil || stored.Text != record.Text {
				// Deleted or replaced since this embedding was computed;
				// the vector no longer describes anything in the store.
				continue
			}

			if dim == 0 {
				dim = len(record.Vector)
				if err := writeDimension(tx, dim); err != nil {
					return err
				}
			} else if len(record.Vector) != dim {
				return fmt.Errorf("%w: vector has %d dimensions, store is pinned to %d",
					core.ErrDimensionMismatch, len(record.Vector), dim)
			}

			stored.Vector = core.NormalizeVector(record.Vector)
			stored.UpdatedAt = now
			if err := tx.Set(key, storage.MarshalChunkRecord(stored)); err != nil {
				return err
			}
			if err := tx.Delete(makeUnembeddedKey(record.DocumentID, record.Index)); err != nil {
				return err
			}
			applied++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return applied, nil
}

// Search scans the owner's chunk records and scores them against the query
// vector. Records without embeddings are skipped.
func (r *VectorRepository) Search(ctx context.Context, owner string, vector []float32, topK int, minScore float32) ([]*core.RetrievalResult, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if err := core.ValidateSearchParams(topK, minScore); err != nil {
		return nil, err
	}
	if err := core.ValidateOwner(owner); err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", core.ErrInvalidConfig)
	}

	var results []*core.RetrievalResult

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}
		if dim == 0 {
			// Nothing has been indexed yet.
			return nil
		}
		if len(vector) != dim {
			return fmt.Errorf("%w: query vector has %d dimensions, store is pinned to %d",
				core.ErrDimensionMismatch, len(vector), dim)
		}

		query := core.NormalizeVector(vector)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeOwnerScanPrefix(owner)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.ChunkRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalChunkRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Vector) == 0 {
				continue
			}

			score := core.CosineScore(query, record.Vector)
			if score >= minScore {
				results = append(results, &core.RetrievalResult{
					Record: record,
					Score:  score,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, wrapStoreErr(err)
	}

	// Order by score descending, ties by ascending (document, index) so
	// equal-score results are deterministic.
	slices.SortFunc(results, func(a, b *core.RetrievalResult) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if a.Record.DocumentID != b.Record.DocumentID {
			if a.Record.DocumentID < b.Record.DocumentID {
				return -1
			}
			return 1
		}
		return int(a.Record.Index) - int(b.Record.Index)
	})

	if len(results) > topK {
		results = results[:topK]
	}
	for i, result := range results {
		result.Rank = i + 1
	}
	return results, nil
}

// Get retrieves a single chunk record by its key. Returns nil and no error
// when the record does not exist.
func (r *VectorRepository) Get(ctx context.Context, owner, documentID string, index uint32) (*core.ChunkRecord, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if err := core.ValidateDocumentID(documentID); err != nil {
		return nil, err
	}
	if err := core.ValidateOwner(owner); err != nil {
		return nil, err
	}

	var record *core.ChunkRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = readChunkRecord(tx, makeChunkRecordKey(owner, documentID, index))
		return err
	}, false)

	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return record, nil
}

// Document retrieves every chunk record of a document, ordered by chunk
// index.
func (r *VectorRepository) Document(ctx context.Context, documentID string) ([]*core.ChunkRecord, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if err := core.ValidateDocumentID(documentID); err != nil {
		return nil, err
	}

	var records []*core.ChunkRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docPrefix := makeDocumentScanPrefix(documentID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = docPrefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			owner, index, err := parseDocumentIndexKey(iter.Item().Key(), docPrefix)
			if err != nil {
				return err
			}
			record, err := readChunkRecord(tx, makeChunkRecordKey(owner, documentID, index))
			if err != nil {
				return err
			}
			if record != nil {
				records = append(records, record)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, wrapStoreErr(err)
	}

	slices.SortFunc(records, func(a, b *core.ChunkRecord) int {
		return int(a.Index) - int(b.Index)
	})
	return records, nil
}

// DeleteDocument removes every chunk record and unembedded marker for the
// document, across all owners. Deleting an unknown document is a no-op.
func (r *VectorRepository) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	if err := core.ValidateDocumentID(documentID); err != nil {
		return 0, err
	}

	removed := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docPrefix := makeDocumentScanPrefix(documentID)
		var doomed [][]byte

		opts := badger.DefaultIteratorOptions
		opts.Prefix = docPrefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				iter.Close()
				return err
			}
			key := iter.Item().KeyCopy(nil)
			owner, index, err := parseDocumentIndexKey(key, docPrefix)
			if err != nil {
				iter.Close()
				return err
			}
			doomed = append(doomed, key, makeChunkRecordKey(owner, documentID, index))
			removed++
		}
		iter.Close()

		markerPrefix := makeUnembeddedScanPrefix(documentID)
		opts = badger.DefaultIteratorOptions
		opts.Prefix = markerPrefix
		opts.PrefetchValues = false
		iter = tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			doomed = append(doomed, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range doomed {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return removed, nil
}

// MarkUnembedded records embedding failures keyed by (document, index).
func (r *VectorRepository) MarkUnembedded(ctx context.Context, markers ...*core.UnembeddedMarker) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	for _, marker := range markers {
		if marker == nil {
			return fmt.Errorf("%w: marker is nil", core.ErrInvalidConfig)
		}
		if err := core.ValidateDocumentID(marker.DocumentID); err != nil {
			return err
		}
		if err := core.ValidateOwner(marker.Owner); err != nil {
			return err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().UnixMicro()
		for _, marker := range markers {
			if err := ctx.Err(); err != nil {
				return err
			}
			if marker.MarkedAt == 0 {
				marker.MarkedAt = now
			}
			key := makeUnembeddedKey(marker.DocumentID, marker.Index)
			if err := tx.Set(key, storage.MarshalUnembeddedMarker(marker)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return wrapStoreErr(err)
}

// Unembedded lists failure markers for a document, ordered by chunk index.
// An empty documentID lists markers for every document.
func (r *VectorRepository) Unembedded(ctx context.Context, documentID string) ([]*core.UnembeddedMarker, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if documentID != "" {
		if err := core.ValidateDocumentID(documentID); err != nil {
			return nil, err
		}
	}

	var markers []*core.UnembeddedMarker
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeUnembeddedScanPrefix(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Key order is (document, index), so iteration order is the
		// ordering we promise.
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var marker *core.UnembeddedMarker
			err := iter.Item().Value(func(val []byte) error {
				var err error
				marker, err = storage.UnmarshalUnembeddedMarker(val)
				return err
			})
			if err != nil {
				return err
			}
			markers = append(markers, marker)
		}
		return nil
	}, false)

	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return markers, nil
}

// Dimension returns the pinned vector dimension, or 0 if nothing embedded
// has been stored yet.
func (r *VectorRepository) Dimension(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	dim := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		dim, err = readDimension(tx)
		return err
	}, false)

	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return dim, nil
}

func readChunkRecord(tx *badger.Txn, key []byte) (*core.ChunkRecord, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record *core.ChunkRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalChunkRecord(val)
		return err
	})
	return record, err
}

func readDimension(tx *badger.Txn) (int, error) {
	item, err := tx.Get(makeDimensionKey())
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	dim := 0
	err = item.Value(func(val []byte) error {
		if len(val) != 4 {
			return fmt.Errorf("%w: dimension value", storage.ErrTruncatedData)
		}
		dim = int(binary.BigEndian.Uint32(val))
		return nil
	})
	return dim, err
}

func writeDimension(tx *badger.Txn, dim int) error {
	val := binary.BigEndian.AppendUint32(nil, uint32(dim))
	return tx.Set(makeDimensionKey(), val)
}

// wrapStoreErr tags backend failures with core.ErrVectorStore while leaving
// validation sentinels and context cancellation untouched.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrInvalidConfig) ||
		errors.Is(err, core.ErrDimensionMismatch) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrVectorStore, err)
}
