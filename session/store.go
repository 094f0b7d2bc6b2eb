package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/groundit/core"
)

const defaultCapacity = 1024

// Store is the process-wide session table. Lookups take a read lock;
// creation and eviction take the write lock. Turn appends only lock the
// individual session, so traffic on different keys never serializes.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	capacity int
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithCapacity bounds the number of live sessions. When the bound is
// reached, creating a new session evicts the least recently active one.
// Default is 1024.
func WithCapacity(capacity int) Option {
	return func(s *Store) error {
		if capacity <= 0 {
			return fmt.Errorf("%w: session capacity must be positive, got %d", core.ErrInvalidConfig, capacity)
		}
		s.capacity = capacity
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a session store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		sessions: make(map[string]*Session),
		capacity: defaultCapacity,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// GetOrCreate returns the session for key, creating it on first access.
// Concurrent first access for the same key yields exactly one Session;
// every caller gets the same object. An empty key maps to the shared
// guest session.
func (s *Store) GetOrCreate(key string) *Session {
	if key == "" {
		key = GuestSessionKey
	}

	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		sess.touch(time.Now().UTC())
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under the write lock: another goroutine may have won the
	// race between our RUnlock and Lock.
	if sess, ok := s.sessions[key]; ok {
		sess.touch(time.Now().UTC())
		return sess
	}

	if len(s.sessions) >= s.capacity {
		s.evictOldestLocked()
	}

	now := time.Now().UTC()
	sess = &Session{
		key:        key,
		createdAt:  now,
		lastActive: now,
	}
	s.sessions[key] = sess
	s.logger.Debug("session created", "component", "session", "session_key", key)
	return sess
}

// AppendTurn appends one turn to the keyed session, creating the session
// if needed.
func (s *Store) AppendTurn(key string, role core.Role, text string) {
	s.GetOrCreate(key).AppendTurn(role, text)
}

// History returns an ordered snapshot of the keyed session's turns.
// Returns nil for a session that has never been created.
func (s *Store) History(key string) []core.Turn {
	if key == "" {
		key = GuestSessionKey
	}
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return sess.History()
}

// Evict removes the keyed session. Returns true if a session was removed.
// A later GetOrCreate for the same key starts a fresh session with a newly
// captured system context.
func (s *Store) Evict(key string) bool {
	if key == "" {
		key = GuestSessionKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; !ok {
		return false
	}
	delete(s.sessions, key)
	s.logger.Debug("session evicted", "component", "session", "session_key", key)
	return true
}

// EvictExpired removes every session whose last activity is older than
// now-ttl. Returns the number of sessions removed.
func (s *Store) EvictExpired(now time.Time, ttl time.Duration) int {
	cutoff := now.Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for key, sess := range s.sessions {
		if sess.activeAt().Before(cutoff) {
			delete(s.sessions, key)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("expired sessions evicted", "component", "session", "count", evicted, "ttl", ttl)
	}
	return evicted
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// evictOldestLocked drops the least recently active session. Caller holds
// the write lock.
func (s *Store) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, sess := range s.sessions {
		at := sess.activeAt()
		if first || at.Before(oldestAt) {
			oldestKey = key
			oldestAt = at
			first = false
		}
	}
	if !first {
		delete(s.sessions, oldestKey)
		s.logger.Debug("session evicted at capacity", "component", "session", "session_key", oldestKey)
	}
}
