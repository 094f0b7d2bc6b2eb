package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/groundit/ai"
	"github.com/poiesic/groundit/chunker"
	"github.com/poiesic/groundit/core"
	"github.com/poiesic/groundit/storage"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
)

// Pipeline orchestrates chunking, embedding, and indexing of documents.
// Embedding runs on a worker pool; failures are isolated per chunk.
type Pipeline struct {
	repository     storage.VectorRepository
	embedder       ai.Embedder
	splitter       *chunker.Splitter
	pool           *ants.Pool
	retryAttempts  int
	retryBaseDelay time.Duration
	embedTimeout   time.Duration
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for background embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		return nil
	}
}

// WithSplitter sets a custom chunk splitter.
// Default uses the chunker package defaults.
func WithSplitter(splitter *chunker.Splitter) Option {
	return func(p *Pipeline) error {
		if splitter == nil {
			return fmt.Errorf("%w: nil splitter", core.ErrInvalidConfig)
		}
		p.splitter = splitter
		return nil
	}
}

// WithRetry sets the bounded retry policy applied to embedding calls.
// Default is 3 attempts starting at 500ms.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.retryAttempts = attempts
		p.retryBaseDelay = baseDelay
		return nil
	}
}

// WithEmbedTimeout bounds each background embedding pass.
// Default is 5 minutes.
func WithEmbedTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: embed timeout must be positive", core.ErrInvalidConfig)
		}
		p.embedTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.VectorRepository,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	splitter, err := chunker.New()
	if err != nil {
		return nil, err
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository:     repository,
		embedder:       provider.Embedder(),
		splitter:       splitter,
		pool:           pool,
		retryAttempts:  defaultRetryAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
		embedTimeout:   5 * time.Minute,
		logger:         slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest chunks the document, indexes the chunks, and schedules embedding
// on the worker pool. Returns the number of chunks indexed. Embedding
// failures never surface here; failed chunks are marked unembedded and
// picked up by Reembed. Re-ingesting a document replaces its prior chunks.
func (p *Pipeline) Ingest(ctx context.Context, documentID, owner, text string) (int, error) {
	records, err := p.index(ctx, documentID, owner, text)
	if err != nil {
		return 0, err
	}

	err = p.pool.Submit(func() {
		// Background work re-acquires its own context; the caller's may
		// be gone by the time this runs.
		embedCtx, cancel := context.WithTimeout(context.Background(), p.embedTimeout)
		defer cancel()
		p.embedRecords(embedCtx, records)
	})
	if err != nil {
		return 0, err
	}

	return len(records), nil
}

// IngestSync is Ingest with embedding completed before it returns. Used
// where the caller needs the document searchable immediately.
func (p *Pipeline) IngestSync(ctx context.Context, documentID, owner, text string) (int, error) {
	records, err := p.index(ctx, documentID, owner, text)
	if err != nil {
		return 0, err
	}

	p.embedRecords(ctx, records)
	return len(records), nil
}

// Reembed retries embedding for chunks previously marked unembedded.
// An empty documentID retries every marked chunk. Returns the number of
// chunks successfully embedded.
func (p *Pipeline) Reembed(ctx context.Context, documentID string) (int, error) {
	markers, err := p.repository.Unembedded(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if len(markers) == 0 {
		return 0, nil
	}

	p.logger.Info("retrying unembedded chunks", "component", "ingestion", "chunks", len(markers))

	embedded := 0
	for _, marker := range markers {
		record, err := p.repository.Get(ctx, marker.Owner, marker.DocumentID, marker.Index)
		if err != nil {
			return embedded, err
		}
		if record == nil {
			// Record was deleted out from under the marker; nothing to do.
			continue
		}

		if p.embedOne(ctx, record, marker.Attempts) {
			embedded++
		}
		if err := ctx.Err(); err != nil {
			return embedded, err
		}
	}
	return embedded, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// index chunks the text and upserts unembedded records, replacing any
// prior version of the document.
func (p *Pipeline) index(ctx context.Context, documentID, owner, text string) ([]*core.ChunkRecord, error) {
	if err := core.ValidateDocumentID(documentID); err != nil {
		return nil, err
	}
	if err := core.ValidateOwner(owner); err != nil {
		return nil, err
	}

	chunks := p.splitter.Split(documentID, text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document %q", core.ErrEmptyContent, documentID)
	}

	// Replace-on-reingest: stale chunks from a longer prior version must
	// not survive.
	if _, err := p.repository.DeleteDocument(ctx, documentID); err != nil {
		return nil, err
	}

	records := make([]*core.ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = &core.ChunkRecord{
			DocumentID: chunk.DocumentID,
			Index:      chunk.Index,
			Owner:      owner,
			Text:       chunk.Text,
			Start:      chunk.Start,
			End:        chunk.End,
		}
	}

	if err := p.repository.Upsert(ctx, records...); err != nil {
		return nil, err
	}

	p.logger.Info("document indexed", "component", "ingestion",
		"document_id", documentID, "chunks", len(records))
	return records, nil
}

// embedRecords embeds a batch of records, falling back to per-chunk
// embedding when the batch call fails. Failed chunks are marked
// unembedded; nothing here aborts the document.
func (p *Pipeline) embedRecords(ctx context.Context, records []*core.ChunkRecord) {
	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = p.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(records) {
			return fmt.Errorf("%w: expected %d vectors, received %d",
				core.ErrEmbeddingUnavailable, len(records), len(vectors))
		}
		return nil
	}, p.retryAttempts, p.retryBaseDelay)

	if err == nil {
		for i, record := range records {
			record.Vector = vectors[i]
		}
		applied, err := p.repository.SetVectors(ctx, records...)
		if err != nil {
			p.logger.Error("error storing embeddings", "component", "ingestion", "err", err)
			p.markAll(ctx, records, err)
			return
		}
		if applied < len(records) {
			p.logger.Debug("embeddings skipped for records no longer indexed",
				"component", "ingestion", "skipped", len(records)-applied)
		}
		return
	}

	p.logger.Warn("batch embedding failed, retrying per chunk",
		"component", "ingestion", "err", err)

	for _, record := range records {
		p.embedOne(ctx, record, 0)
		if ctx.Err() != nil {
			return
		}
	}
}

// embedOne embeds and stores a single record. On failure it writes an
// unembedded marker carrying the prior attempt count plus this one.
func (p *Pipeline) embedOne(ctx context.Context, record *core.ChunkRecord, priorAttempts uint32) bool {
	err := RetryWithBackoff(ctx, func() error {
		vector, err := p.embedder.EmbedDocument(ctx, record.Text)
		if err != nil {
			return err
		}
		record.Vector = vector
		return nil
	}, p.retryAttempts, p.retryBaseDelay)

	if err == nil {
		var applied int
		applied, err = p.repository.SetVectors(ctx, record)
		if err == nil && applied == 0 {
			// The record was deleted or replaced while embedding ran;
			// neither a vector nor a failure marker belongs in the store.
			return false
		}
	}
	if err != nil {
		p.mark(ctx, record, priorAttempts, err)
		return false
	}
	return true
}

func (p *Pipeline) markAll(ctx context.Context, records []*core.ChunkRecord, cause error) {
	for _, record := range records {
		p.mark(ctx, record, 0, cause)
	}
}

func (p *Pipeline) mark(ctx context.Context, record *core.ChunkRecord, priorAttempts uint32, cause error) {
	// A marker must not outlive its record: the document may have been
	// deleted or re-ingested while the failed embedding was in flight.
	current, err := p.repository.Get(context.WithoutCancel(ctx), record.Owner, record.DocumentID, record.Index)
	if err == nil && (current == nil || current.Text != record.Text) {
		return
	}

	p.logger.Warn("chunk left unembedded", "component", "ingestion",
		"document_id", record.DocumentID, "index", record.Index, "err", cause)

	marker := &core.UnembeddedMarker{
		DocumentID: record.DocumentID,
		Index:      record.Index,
		Owner:      record.Owner,
		Reason:     cause.Error(),
		Attempts:   priorAttempts + uint32(p.retryAttempts),
	}
	// The marker must land even when the embedding context has expired.
	if err := p.repository.MarkUnembedded(context.WithoutCancel(ctx), marker); err != nil {
		p.logger.Error("error writing unembedded marker", "component", "ingestion",
			"document_id", record.DocumentID, "index", record.Index, "err", err)
	}
}
