package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/19taurus79/EridonAPI/internal/matching"
)

var ErrNotFound = errors.New("session not found")

// State is the working state of one reconciliation run: the leftovers still
// awaiting manual resolution and the matched list accumulated across
// automatic and manual matching. It lives in process memory only and is
// addressed by an opaque token.
type State struct {
	ID         string
	Leftovers  map[string]*matching.Unit
	Matched    []matching.MatchedRecord
	CreatedAt  time.Time
	LastAccess time.Time

	mu sync.Mutex
}

// Store holds reconciliation sessions keyed by id. All mutation of a
// session's state goes through WithLock, which serializes concurrent
// manual-match calls against the same session.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*State)}
}

// Create captures the post-auto-match state under a fresh opaque id.
func (s *Store) Create(leftovers map[string]*matching.Unit, matched []matching.MatchedRecord) *State {
	now := time.Now()
	st := &State{
		ID:         uuid.New().String(),
		Leftovers:  leftovers,
		Matched:    matched,
		CreatedAt:  now,
		LastAccess: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[st.ID] = st
	return st
}

func (s *Store) Get(id string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	return st, ok
}

func (s *Store) Put(st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[st.ID] = st
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// WithLock runs fn with exclusive access to the session. Concurrent
// manual-match calls against the same session serialize here; reads take
// the lock too, so every caller sees a consistent snapshot of leftovers and
// matched list. The store-level lock is released before fn runs, so fn may
// call back into the store (e.g. Delete).
func (s *Store) WithLock(id string, fn func(*State) error) error {
	s.mu.Lock()
	st, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	st.LastAccess = time.Now()
	s.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	return fn(st)
}

// Sweep evicts sessions idle longer than ttl and reports how many it
// removed. Sessions are otherwise never expired.
func (s *Store) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, st := range s.sessions {
		if st.LastAccess.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}
