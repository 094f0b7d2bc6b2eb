package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/groundit/ai"
	"github.com/poiesic/groundit/core"
	"github.com/poiesic/groundit/session"
	"github.com/poiesic/groundit/storage"
)

const (
	defaultTopK       = 5
	defaultMinScore   = 0.5
	defaultBufferSize = 16
)

// Fragment is one piece of a streamed answer. A Fragment with a non-nil
// Err is terminal: it is the last value sent before the stream closes, and
// its Text is empty.
type Fragment struct {
	Text string
	Err  error
}

// Request is one grounded query against a session.
type Request struct {
	// SessionKey selects the conversation. Empty falls back to the shared
	// guest session.
	SessionKey string

	// Owner scopes retrieval to that owner's documents. Empty means guest
	// access: retrieval is skipped and generation runs ungrounded.
	Owner string

	// Query is the user's question.
	Query string
}

// Coordinator drives a query through embedding, search, context assembly,
// and streamed generation. Safe for concurrent use; per-session ordering
// comes from the session store, not from the coordinator.
type Coordinator struct {
	repository storage.VectorRepository
	sessions   *session.Store
	embedder   ai.Embedder
	generator  ai.Generator
	topK       int
	minScore   float32
	bufferSize int
	logger     *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithTopK sets how many chunks ground a new session.
// Default is 5.
func WithTopK(topK int) Option {
	return func(c *Coordinator) error {
		if err := core.ValidateSearchParams(topK, c.minScore); err != nil {
			return err
		}
		c.topK = topK
		return nil
	}
}

// WithMinScore sets the similarity floor for retrieved chunks.
// Default is 0.5.
func WithMinScore(minScore float32) Option {
	return func(c *Coordinator) error {
		if err := core.ValidateSearchParams(c.topK, minScore); err != nil {
			return err
		}
		c.minScore = minScore
		return nil
	}
}

// WithBufferSize sets the fragment channel capacity. The producer blocks
// once the consumer falls this far behind.
// Default is 16.
func WithBufferSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			return fmt.Errorf("%w: buffer size must be positive, got %d", core.ErrInvalidConfig, size)
		}
		c.bufferSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates a retrieval coordinator.
func NewCoordinator(
	repository storage.VectorRepository,
	sessions *session.Store,
	provider ai.Provider,
	opts ...Option,
) (*Coordinator, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if sessions == nil {
		return nil, ErrSessionStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	c := &Coordinator{
		repository: repository,
		sessions:   sessions,
		embedder:   provider.Embedder(),
		generator:  provider.Generator(),
		topK:       defaultTopK,
		minScore:   defaultMinScore,
		bufferSize: defaultBufferSize,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Query answers a question against the session's grounding context and
// returns a finite, non-restartable stream of answer fragments. Fragments
// arrive in generation order; a failure after streaming has begun is
// reported as a single terminal error fragment. The channel closes when
// the answer is complete, the request fails, or ctx is cancelled. The
// completed exchange is appended to session history only after the stream
// finishes cleanly.
func (c *Coordinator) Query(ctx context.Context, req Request) (<-chan Fragment, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	out := make(chan Fragment, c.bufferSize)
	go c.run(ctx, req, out)
	return out, nil
}

func (c *Coordinator) run(ctx context.Context, req Request, out chan<- Fragment) {
	defer close(out)

	sess := c.sessions.GetOrCreate(req.SessionKey)
	logger := c.logger.With("component", "retrieval", "session_key", sess.Key())

	// History is snapshotted before generation; a racing request's turns
	// do not leak into this prompt.
	history := sess.History()

	systemContext, captured := sess.SystemContext()
	if !captured {
		assembled, capture, ok := c.ground(ctx, req, logger, out)
		if !ok {
			return
		}
		if capture {
			// First turn of the session captures the grounding context for
			// its whole lifetime; under a race the winner's capture is used.
			systemContext = sess.CaptureSystemContext(assembled)
		} else {
			// Grounding degraded on a failing index. Use the empty context
			// for this turn only; the next turn retries capture once the
			// index recovers.
			systemContext = assembled
		}
	}

	logger.Debug("state transition", "state", StateGenerating)
	streaming := false
	answer, err := c.generator.Stream(ctx, ai.GenerationRequest{
		SystemContext: systemContext,
		History:       history,
		Query:         req.Query,
	}, func(ctx context.Context, fragment string) error {
		if !streaming {
			streaming = true
			logger.Debug("state transition", "state", StateStreaming)
		}
		select {
		case out <- Fragment{Text: fragment}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err != nil {
		if ctx.Err() != nil {
			// Caller went away; nobody is reading, no turn is recorded.
			logger.Debug("query cancelled mid-stream")
			return
		}
		c.fail(ctx, logger, out, StateStreaming, err)
		return
	}

	sess.AppendExchange(req.Query, answer)
	logger.Debug("state transition", "state", StateDone)
}

// ground runs EMBEDDING_QUERY, SEARCHING, and ASSEMBLING_CONTEXT for a
// session's first turn. Guest requests skip retrieval entirely and ground
// on an empty context, a documented degraded mode rather than an error.
// capture reports whether the assembled context may be recorded on the
// session: a context that is empty only because search failed must not be,
// or a transient index outage would leave the session ungrounded forever.
func (c *Coordinator) ground(ctx context.Context, req Request, logger *slog.Logger, out chan<- Fragment) (assembled string, capture, ok bool) {
	if req.Owner == "" {
		logger.Debug("guest request, skipping retrieval")
		return "", true, true
	}

	logger.Debug("state transition", "state", StateEmbeddingQuery)
	vector, err := c.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		// No retry on the interactive path; the caller sees the failure
		// immediately.
		c.fail(ctx, logger, out, StateEmbeddingQuery, err)
		return "", false, false
	}

	logger.Debug("state transition", "state", StateSearching)
	capture = true
	results, err := c.repository.Search(ctx, req.Owner, vector, c.topK, c.minScore)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, false
		}
		// Index trouble degrades to an ungrounded answer instead of
		// failing the whole turn.
		logger.Warn("search failed, continuing with empty context", "err", err)
		results = nil
		capture = false
	}

	logger.Debug("state transition", "state", StateAssemblingContext, "chunks", len(results))
	return assembleContext(results), capture, true
}

// assembleContext concatenates retrieved chunk texts in rank order.
func assembleContext(results []*core.RetrievalResult) string {
	if len(results) == 0 {
		return ""
	}
	texts := make([]string, len(results))
	for i, result := range results {
		texts[i] = result.Record.Text
	}
	return strings.Join(texts, "\n\n")
}

// fail emits the single terminal error fragment.
func (c *Coordinator) fail(ctx context.Context, logger *slog.Logger, out chan<- Fragment, from State, err error) {
	logger.Error("query failed", "state", from, "err", err)
	select {
	case out <- Fragment{Err: err}:
	case <-ctx.Done():
	}
}
