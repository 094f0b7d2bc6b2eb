package badger

import (
	"context"
	"testing"

	"github.com/poiesic/groundit/core"
	"github.com/poiesic/groundit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) storage.VectorRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func record(owner, doc string, index uint32, text string, vector []float32) *core.ChunkRecord {
	return &core.ChunkRecord{
		DocumentID: doc,
		Index:      index,
		Owner:      owner,
		Text:       text,
		Vector:     vector,
	}
}

func TestUpsertAndSearch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx,
		record("alice", "doc-1", 0, "exact match", []float32{1, 0, 0}),
		record("alice", "doc-1", 1, "close match", []float32{0.9, 0.1, 0}),
		record("alice", "doc-1", 2, "orthogonal", []float32{0, 1, 0}),
	)
	require.NoError(t, err)

	results, err := repo.Search(ctx, "alice", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "exact match", results[0].Record.Text)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
	assert.Equal(t, "close match", results[1].Record.Text)
	assert.Equal(t, "orthogonal", results[2].Record.Text)
	assert.InDelta(t, 0.5, float64(results[2].Score), 1e-6)

	// Ranks are 1-based positions in the final ordering.
	for i, result := range results {
		assert.Equal(t, i+1, result.Rank)
	}
}

func TestSearch_MinScoreFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx,
		record("alice", "doc-1", 0, "relevant", []float32{1, 0, 0}),
		record("alice", "doc-1", 1, "irrelevant", []float32{0, 1, 0}),
	)
	require.NoError(t, err)

	results, err := repo.Search(ctx, "alice", []float32{1, 0, 0}, 10, 0.6)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "relevant", results[0].Record.Text)
}

func TestSearch_TopKTruncation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := uint32(0); i < 5; i++ {
		err := repo.Upsert(ctx, record("alice", "doc-1", i, "chunk", []float32{1, 0, 0}))
		require.NoError(t, err)
	}

	results, err := repo.Search(ctx, "alice", []float32{1, 0, 0}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_TieBreakByDocumentAndIndex(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Identical vectors produce identical scores; order must be
	// deterministic by ascending (document, index).
	err := repo.Upsert(ctx,
		record("alice", "doc-b", 1, "b1", []float32{1, 0, 0}),
		record("alice", "doc-a", 2, "a2", []float32{1, 0, 0}),
		record("alice", "doc-a", 0, "a0", []float32{1, 0, 0}),
	)
	require.NoError(t, err)

	results, err := repo.Search(ctx, "alice", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a0", results[0].Record.Text)
	assert.Equal(t, "a2", results[1].Record.Text)
	assert.Equal(t, "b1", results[2].Record.Text)
}

func TestSearch_OwnerScoping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx,
		record("alice", "doc-1", 0, "alice's chunk", []float32{1, 0, 0}),
		record("bob", "doc-2", 0, "bob's chunk", []float32{1, 0, 0}),
		record("", "doc-3", 0, "shared chunk", []float32{1, 0, 0}),
	)
	require.NoError(t, err)

	results, err := repo.Search(ctx, "alice", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alice's chunk", results[0].Record.Text)

	results, err = repo.Search(ctx, "", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "shared chunk", results[0].Record.Text)
}

func TestSearch_SkipsUnembeddedRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx,
		record("alice", "doc-1", 0, "embedded", []float32{1, 0, 0}),
		record("alice", "doc-1", 1, "awaiting embedding", nil),
	)
	require.NoError(t, err)

	results, err := repo.Search(ctx, "alice", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "embedded", results[0].Record.Text)
}

func TestSearch_EmptyStore(t *testing.T) {
	repo := newTestRepo(t)

	results, err := repo.Search(context.Background(), "alice", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_InvalidParams(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Search(ctx, "alice", []float32{1, 0, 0}, 0, 0)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = repo.Search(ctx, "alice", []float32{1, 0, 0}, 5, 1.5)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = repo.Search(ctx, "alice", nil, 5, 0)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestDimensionPinning(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dim, err := repo.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dim)

	err = repo.Upsert(ctx, record("alice", "doc-1", 0, "first", []float32{1, 0, 0}))
	require.NoError(t, err)

	dim, err = repo.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dim)

	err = repo.Upsert(ctx, record("alice", "doc-1", 1, "wrong dims", []float32{1, 0, 0, 0}))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	_, err = repo.Search(ctx, "alice", []float32{1, 0}, 10, 0)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestUpsert_Validation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx, &core.ChunkRecord{DocumentID: "doc-1"})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	err = repo.Upsert(ctx, &core.ChunkRecord{Text: "orphan"})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestUpsert_PreservesInsertedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := record("alice", "doc-1", 0, "v1", []float32{1, 0, 0})
	require.NoError(t, repo.Upsert(ctx, first))
	require.NotZero(t, first.InsertedAt)

	second := record("alice", "doc-1", 0, "v2", []float32{0, 1, 0})
	require.NoError(t, repo.Upsert(ctx, second))

	assert.Equal(t, first.InsertedAt, second.InsertedAt)

	results, err := repo.Search(ctx, "alice", []float32{0, 1, 0}, 10, 0.9)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "v2", results[0].Record.Text)
}

func TestGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, record("alice", "doc-1", 2, "the chunk", []float32{1, 0, 0})))

	got, err := repo.Get(ctx, "alice", "doc-1", 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "the chunk", got.Text)
	assert.Equal(t, uint32(2), got.Index)

	missing, err := repo.Get(ctx, "alice", "doc-1", 3)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDocument(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx,
		record("alice", "doc-1", 2, "third", []float32{1, 0, 0}),
		record("alice", "doc-1", 0, "first", []float32{1, 0, 0}),
		record("alice", "doc-1", 1, "second", nil),
		record("alice", "doc-2", 0, "other doc", []float32{1, 0, 0}),
	))

	records, err := repo.Document(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "first", records[0].Text)
	assert.Equal(t, "second", records[1].Text)
	assert.Equal(t, "third", records[2].Text)

	empty, err := repo.Document(ctx, "doc-404")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteDocument(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx,
		record("alice", "doc-1", 0, "keep separate", []float32{1, 0, 0}),
		record("alice", "doc-2", 0, "delete me", []float32{1, 0, 0}),
		record("bob", "doc-2", 0, "delete me too", []float32{1, 0, 0}),
	)
	require.NoError(t, err)

	removed, err := repo.DeleteDocument(ctx, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// Removed across all owners, other documents untouched.
	results, err := repo.Search(ctx, "alice", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-1", results[0].Record.DocumentID)

	results, err = repo.Search(ctx, "bob", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Idempotent.
	removed, err = repo.DeleteDocument(ctx, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestDeleteDocument_PrefixIsNotAMatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx,
		record("alice", "doc-1", 0, "short id", []float32{1, 0, 0}),
		record("alice", "doc-10", 0, "longer id", []float32{1, 0, 0}),
	)
	require.NoError(t, err)

	removed, err := repo.DeleteDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	results, err := repo.Search(ctx, "alice", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-10", results[0].Record.DocumentID)
}

func TestUnembeddedMarkers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.MarkUnembedded(ctx,
		&core.UnembeddedMarker{DocumentID: "doc-1", Index: 2, Owner: "alice", Reason: "timeout", Attempts: 1},
		&core.UnembeddedMarker{DocumentID: "doc-1", Index: 0, Owner: "alice", Reason: "timeout", Attempts: 1},
		&core.UnembeddedMarker{DocumentID: "doc-2", Index: 0, Owner: "bob", Reason: "connection refused", Attempts: 3},
	)
	require.NoError(t, err)

	markers, err := repo.Unembedded(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, uint32(0), markers[0].Index)
	assert.Equal(t, uint32(2), markers[1].Index)
	assert.NotZero(t, markers[0].MarkedAt)

	all, err := repo.Unembedded(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUnembeddedMarker_ClearedByEmbeddedUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.MarkUnembedded(ctx,
		&core.UnembeddedMarker{DocumentID: "doc-1", Index: 0, Owner: "alice", Reason: "timeout", Attempts: 1},
	)
	require.NoError(t, err)

	// An unembedded upsert leaves the marker in place.
	require.NoError(t, repo.Upsert(ctx, record("alice", "doc-1", 0, "still pending", nil)))
	markers, err := repo.Unembedded(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, markers, 1)

	// A successful embedding clears it.
	require.NoError(t, repo.Upsert(ctx, record("alice", "doc-1", 0, "embedded now", []float32{1, 0, 0})))
	markers, err = repo.Unembedded(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestDeleteDocument_RemovesMarkers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, record("alice", "doc-1", 0, "chunk", nil)))
	require.NoError(t, repo.MarkUnembedded(ctx,
		&core.UnembeddedMarker{DocumentID: "doc-1", Index: 0, Owner: "alice", Reason: "timeout", Attempts: 1},
	))

	removed, err := repo.DeleteDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	markers, err := repo.Unembedded(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestClosedRepository(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, backend.Close())

	ctx := context.Background()
	err = repo.Upsert(ctx, record("alice", "doc-1", 0, "chunk", []float32{1, 0, 0}))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = repo.Search(ctx, "alice", []float32{1, 0, 0}, 10, 0)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = repo.DeleteDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestSetVectors_AttachesToLiveRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, record("alice", "doc-1", 0, "chunk text", nil)))
	require.NoError(t, repo.MarkUnembedded(ctx, &core.UnembeddedMarker{
		DocumentID: "doc-1", Index: 0, Owner: "alice", Reason: "backend down",
	}))

	applied, err := repo.SetVectors(ctx, record("alice", "doc-1", 0, "chunk text", []float32{3, 4, 0}))
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	stored, err := repo.Get(ctx, "alice", "doc-1", 0)
	require.NoError(t, err)
	require.NotNil(t, stored)
	// Stored normalized, like Upsert.
	assert.InDelta(t, 0.6, float64(stored.Vector[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(stored.Vector[1]), 1e-6)

	markers, err := repo.Unembedded(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestSetVectors_SkipsDeletedRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, record("alice", "doc-1", 0, "chunk text", nil)))
	removed, err := repo.DeleteDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	applied, err := repo.SetVectors(ctx, record("alice", "doc-1", 0, "chunk text", []float32{1, 0, 0}))
	require.NoError(t, err)
	assert.Zero(t, applied)

	// The late vector write must not re-create the record.
	records, err := repo.Document(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSetVectors_SkipsReplacedText(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, record("alice", "doc-1", 0, "first version", nil)))
	require.NoError(t, repo.Upsert(ctx, record("alice", "doc-1", 0, "second version", nil)))

	// A vector computed from the first version no longer describes the
	// stored text.
	applied, err := repo.SetVectors(ctx, record("alice", "doc-1", 0, "first version", []float32{1, 0, 0}))
	require.NoError(t, err)
	assert.Zero(t, applied)

	stored, err := repo.Get(ctx, "alice", "doc-1", 0)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Empty(t, stored.Vector)
}

func TestSetVectors_Validation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SetVectors(ctx, record("alice", "doc-1", 0, "chunk text", nil))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	require.NoError(t, repo.Upsert(ctx,
		record("alice", "doc-1", 0, "pinning", []float32{1, 0, 0}),
		record("alice", "doc-1", 1, "unembedded", nil),
	))
	_, err = repo.SetVectors(ctx, record("alice", "doc-1", 1, "unembedded", []float32{1, 0, 0, 0}))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestNULIdentifiersRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, record("alice", "doc-1", 0, "private to alice", []float32{1, 0, 0})))

	// A NUL inside an identifier would fuse with the key separator and
	// alias another owner's key range.
	err := repo.Upsert(ctx, record("alice\x00mallory", "doc-1", 0, "smuggled", []float32{1, 0, 0}))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	err = repo.Upsert(ctx, record("mallory", "doc\x001", 0, "smuggled", []float32{1, 0, 0}))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = repo.Search(ctx, "alice\x00mallory", []float32{1, 0, 0}, 10, 0)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = repo.Get(ctx, "alice\x00mallory", "doc-1", 0)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = repo.Document(ctx, "doc\x001")
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = repo.DeleteDocument(ctx, "doc-1\x00")
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	err = repo.MarkUnembedded(ctx, &core.UnembeddedMarker{DocumentID: "doc\x001", Index: 0})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = repo.Unembedded(ctx, "doc\x001")
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	// Alice's records are exactly as she left them.
	results, err := repo.Search(ctx, "alice", []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "private to alice", results[0].Record.Text)
}
