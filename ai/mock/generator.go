package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/groundit/ai"
)

// Generator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type Generator struct {
	// StreamFunc is called by Stream if set.
	// If nil, uses default behavior: Fragments are forwarded one by one.
	StreamFunc func(ctx context.Context, req ai.GenerationRequest, fn ai.StreamFunc) (string, error)

	// CompleteFunc is called by Complete if set.
	// If nil, returns a canned single-line answer.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	// Fragments are the pieces the default Stream behavior emits in order.
	Fragments []string

	// FailAfter, when non-negative, makes the default Stream behavior return
	// FailErr after emitting that many fragments (mid-stream failure).
	FailAfter int

	// FailErr is the error returned by the FailAfter behavior.
	FailErr error

	// Guards callCount and lastRequest against concurrent Stream calls.
	mu          sync.Mutex
	lastRequest ai.GenerationRequest
	callCount   int
}

// NewGenerator creates a mock generator that streams the given fragments.
// Note: Returns concrete type to allow test assertions and behavior injection.
func NewGenerator(fragments ...string) *Generator {
	if len(fragments) == 0 {
		fragments = []string{"mock ", "answer"}
	}
	return &Generator{
		Fragments: fragments,
		FailAfter: -1,
	}
}

// Stream forwards the configured fragments to fn in order, honoring context
// cancellation between fragments, and returns their concatenation.
func (m *Generator) Stream(ctx context.Context, req ai.GenerationRequest, fn ai.StreamFunc) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = req
	m.mu.Unlock()

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req, fn)
	}

	var sb strings.Builder
	for i, fragment := range m.Fragments {
		if m.FailAfter >= 0 && i == m.FailAfter {
			return "", m.FailErr
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if fn != nil {
			if err := fn(ctx, fragment); err != nil {
				return "", err
			}
		}
		sb.WriteString(fragment)
	}
	return sb.String(), nil
}

// Complete returns a canned answer unless CompleteFunc is injected.
func (m *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return strings.Join(m.Fragments, ""), nil
}

// LastRequest returns the request passed to the most recent Stream call.
func (m *Generator) LastRequest() ai.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// CallCount returns the number of times any method was called.
func (m *Generator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *Generator) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.lastRequest = ai.GenerationRequest{}
	m.mu.Unlock()
	m.StreamFunc = nil
	m.CompleteFunc = nil
	m.FailAfter = -1
	m.FailErr = nil
}
