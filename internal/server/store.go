package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/fleet-trip-import/internal/session"
	"github.com/ginjaninja78/fleet-trip-import/internal/session/phase"
)

// Store keeps the open import sessions of the HTTP surface.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session

	newSession func() *session.Session
	ttl        time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewStore creates a store. A zero ttl keeps sessions until they are deleted.
func NewStore(newSession func() *session.Session, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions:   make(map[string]*session.Session),
		newSession: newSession,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
}

// Create opens a new session in the UPLOAD phase.
func (st *Store) Create() *session.Session {
	s := st.newSession()

	st.mu.Lock()
	st.sessions[s.ID()] = s
	st.mu.Unlock()
	return s
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*session.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete resets and removes a session. It reports whether the session existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Reset()
	}
	return ok
}

// Len returns the number of open sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Evict removes sessions idle for longer than the TTL. Sessions with an
// import in flight are never evicted.
func (st *Store) Evict() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, s := range st.sessions {
		if s.Phase() == phase.Importing || s.UpdatedAt().After(cutoff) {
			continue
		}
		delete(st.sessions, id)
		evicted++
	}
	if evicted > 0 {
		st.logger.Info("Evicted idle import sessions", zap.Int("count", evicted), zap.Int("remaining", len(st.sessions)))
	}
	return evicted
}

// RunEviction evicts idle sessions periodically until ctx is done.
func (st *Store) RunEviction(ctx context.Context, interval time.Duration) {
	if st.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Evict()
		}
	}
}
