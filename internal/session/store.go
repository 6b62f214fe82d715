package session

import (
	"sort"
	"sync"
	"time"

	"github.com/kingrea/flowbench/internal/graph"
)

// Store is the registry of live sessions. The map lock is only held for
// lookups, so sessions with different ids never block each other.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	handoffs map[string]Handoff
	now      func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: map[string]*Session{},
		handoffs: map[string]Handoff{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create installs a new PENDING session for g, replacing any session that
// already uses id.
func (s *Store) Create(id string, g graph.Graph, order []string) *Session {
	sess := newSession(id, g, order, s.now())
	s.mu.Lock()
	s.sessions[id] = sess
	delete(s.handoffs, id)
	s.mu.Unlock()
	return sess
}

// Get returns the session with id.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete removes the session with id. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Touch refreshes the session's UpdatedAt. The caller holds the session lock.
func (s *Store) Touch(sess *Session) {
	sess.UpdatedAt = s.now()
}

// IDs returns the ids of every live session, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Summaries returns a snapshot of every live session sorted by id. Sessions
// locked by an in-flight call are waited for.
func (s *Store) Summaries() []Summary {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()
	out := make([]Summary, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		out = append(out, sess.summary())
		sess.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Handoff is what a finished nested session leaves behind for its parent.
// Failed handoffs carry the failure message instead of results.
type Handoff struct {
	Results map[string]any
	Failed  bool
	Message string
}

// PutResult stores the final results of a finished nested session so the
// parent that spawned it can collect them once.
func (s *Store) PutResult(id string, results map[string]any) {
	s.mu.Lock()
	s.handoffs[id] = Handoff{Results: results}
	s.mu.Unlock()
}

// PutFailure records that the nested session id ended in error.
func (s *Store) PutFailure(id, message string) {
	s.mu.Lock()
	s.handoffs[id] = Handoff{Failed: true, Message: message}
	s.mu.Unlock()
}

// TakeResult returns and forgets the handoff stored for id.
func (s *Store) TakeResult(id string) (Handoff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handoffs[id]
	if ok {
		delete(s.handoffs, id)
	}
	return h, ok
}

// DropResult forgets any results stored for id.
func (s *Store) DropResult(id string) {
	s.mu.Lock()
	delete(s.handoffs, id)
	s.mu.Unlock()
}
