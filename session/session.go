package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/groundit/core"
)

// GuestSessionKey is the shared session for unauthenticated access. All
// guest traffic lands here unless the caller derives a stronger key.
const GuestSessionKey = "guest"

// ConnectionSessionKey derives a per-connection guest key so that
// concurrent anonymous conversations don't interleave. The connection id
// is content-hashed: remote addresses and other caller-supplied
// identifiers become fixed-width keys instead of landing in the store
// verbatim. An empty connection id falls back to the shared guest session.
func ConnectionSessionKey(connectionID string) string {
	if connectionID == "" {
		return GuestSessionKey
	}
	return fmt.Sprintf("guest:%016x", uint64(core.IDFromContent(connectionID)))
}

// Session is one conversation: an ordered turn history plus the grounding
// context captured on its first retrieval. All fields are guarded by mu;
// access goes through methods or the owning Store.
type Session struct {
	key       string
	createdAt time.Time

	mu            sync.Mutex
	history       []core.Turn
	systemContext string
	contextSet    bool
	lastActive    time.Time
}

// Key returns the session key.
func (s *Session) Key() string {
	return s.key
}

// CreatedAt returns when the session was first created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// History returns an ordered snapshot of the conversation. The returned
// slice is a copy; concurrent appends never mutate it.
func (s *Session) History() []core.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// SystemContext returns the captured grounding text and whether it has
// been captured yet.
func (s *Session) SystemContext() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemContext, s.contextSet
}

// CaptureSystemContext records the grounding text if none has been
// captured, and returns the effective value. The context is captured once
// for the session's lifetime; later calls return the original text, so new
// uploads do not re-ground an in-flight conversation.
func (s *Session) CaptureSystemContext(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.contextSet {
		s.systemContext = text
		s.contextSet = true
	}
	return s.systemContext
}

// AppendTurn appends one turn to the history. Appends for the same session
// are applied in the order their callers acquire the session lock.
func (s *Session) AppendTurn(role core.Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, core.Turn{Role: role, Text: text})
	s.lastActive = time.Now().UTC()
}

// AppendExchange appends a user turn and the assistant's answer under one
// critical section, so a racing request for the same session can never
// observe or interleave a half-recorded exchange.
func (s *Session) AppendExchange(query, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		core.Turn{Role: core.RoleUser, Text: query},
		core.Turn{Role: core.RoleAssistant, Text: answer},
	)
	s.lastActive = time.Now().UTC()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) activeAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
