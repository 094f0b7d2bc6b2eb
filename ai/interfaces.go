package ai

import (
	"context"

	"github.com/poiesic/groundit/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// Document and query embedding are separate methods because asymmetric
// embedding models treat the two sides differently. Both sides always produce
// vectors of the same dimensionality.
type Embedder interface {
	// EmbedDocument generates a vector embedding for text that will be indexed.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments generates embeddings for multiple texts in a batch,
	// preserving input order. Batch processing is more efficient than calling
	// EmbedDocument multiple times.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a vector embedding for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// StreamFunc receives one response fragment as soon as the backend produces
// it. Returning an error aborts the stream.
type StreamFunc func(ctx context.Context, fragment string) error

// GenerationRequest carries everything the generation backend needs to
// produce a grounded answer.
type GenerationRequest struct {
	// SystemContext is the retrieval-derived grounding text for the session.
	// Empty for guest queries (degraded, ungrounded mode).
	SystemContext string

	// History is the ordered prior conversation, oldest first.
	History []core.Turn

	// Query is the new user question.
	Query string
}

// Generator wraps the text generation backend.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Stream submits a request and forwards each produced fragment to fn in
	// generation order. It returns the full concatenated response text after
	// the stream completes cleanly. A backend failure at any point, including
	// mid-stream, is returned as an error wrapping core.ErrGenerationUnavailable.
	Stream(ctx context.Context, req GenerationRequest, fn StreamFunc) (string, error)

	// Complete submits a single prompt and returns the full response text.
	// Used for non-interactive generation such as study aids.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
