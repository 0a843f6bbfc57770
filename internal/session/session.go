// Package session keeps per-browser state in memory, keyed by an opaque id
// carried in a signed cookie.
package session

import (
	"sync"
	"time"

	"dayblocks/internal/models"
)

// Status is the authorization state of a session.
type Status int

const (
	Unauthenticated Status = iota
	AwaitingCallback
	Authenticated
)

func (s Status) String() string {
	switch s {
	case AwaitingCallback:
		return "awaiting_callback"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session holds the credentials and preferences of one browser.
type Session struct {
	ID string

	mu       sync.RWMutex
	creds    *models.Credentials
	pending  string
	email    string
	language string
	lastSeen time.Time

	submit sync.Mutex
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, lastSeen: now}
}

// Status derives the authorization state from the stored fields.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.creds != nil:
		return Authenticated
	case s.pending != "":
		return AwaitingCallback
	default:
		return Unauthenticated
	}
}

// Credentials returns a copy of the stored credentials.
func (s *Session) Credentials() (models.Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return models.Credentials{}, false
	}
	return *s.creds, true
}

// SetCredentials replaces any stored credentials and clears the pending state.
func (s *Session) SetCredentials(c models.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = &c
	s.pending = ""
}

// ClearCredentials drops the credentials, the pending state and the account email.
func (s *Session) ClearCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	s.pending = ""
	s.email = ""
}

// BeginAuthorization records the state value sent with a consent request.
func (s *Session) BeginAuthorization(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = state
}

// TakePendingState returns the pending state value and forgets it.
func (s *Session) TakePendingState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.pending
	s.pending = ""
	return state
}

// Email returns the account address, empty until it is known.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// SetEmail records the account address.
func (s *Session) SetEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = email
}

// Language returns the remembered display language, if any.
func (s *Session) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage remembers the display language for later requests.
func (s *Session) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = lang
}

// LockSubmission serializes schedule submissions for this session. The returned
// function releases the lock.
func (s *Session) LockSubmission() func() {
	s.submit.Lock()
	return s.submit.Unlock
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastSeen)
}
