package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store maps session ids to sessions. Sessions idle for longer than the TTL
// are dropped on access.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates an empty store. A zero ttl disables expiry.
func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      now,
	}
}

// Create registers a new empty session.
func (s *Store) Create() *Session {
	now := s.now()
	sess := newSession(uuid.NewString(), now)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the live session for id and refreshes its idle timer.
func (s *Store) Get(id string) (*Session, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

// Delete destroys the session and its credentials.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.ClearCredentials()
		delete(s.sessions, id)
	}
}

// Len reports the number of sessions held, including ones not yet pruned.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && sess.idleSince(now) > s.ttl
}

func (s *Store) pruneLocked(now time.Time) {
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			sess.ClearCredentials()
			delete(s.sessions, id)
		}
	}
}
