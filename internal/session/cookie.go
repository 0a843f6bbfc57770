package session

import (
	"crypto/sha256"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const cookieName = "dayblocks_session"

// Manager ties the store to the browser through a signed session cookie.
type Manager struct {
	store  *Store
	codec  *securecookie.SecureCookie
	secure bool
	maxAge time.Duration
	logger *slog.Logger
}

// NewManager creates a Manager. The secret is used to sign the cookie value.
func NewManager(store *Store, secret string, secure bool, maxAge time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	hashKey := sha256.Sum256([]byte(secret))
	codec := securecookie.New(hashKey[:], nil)
	codec.MaxAge(int(maxAge / time.Second))
	return &Manager{store: store, codec: codec, secure: secure, maxAge: maxAge, logger: logger}
}

// Lookup returns the session named by the request cookie without creating one.
func (m *Manager) Lookup(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil, false
	}
	var id string
	if err := m.codec.Decode(cookieName, cookie.Value, &id); err != nil {
		m.logger.Debug("Rejected session cookie", "error", err)
		return nil, false
	}
	return m.store.Get(id)
}

// Load returns the request's session, creating one and setting the cookie when
// the request carries none.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if sess, ok := m.Lookup(r); ok {
		return sess, nil
	}
	sess := m.store.Create()
	encoded, err := m.codec.Encode(cookieName, sess.ID)
	if err != nil {
		m.store.Delete(sess.ID)
		return nil, err
	}
	cookie := &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.maxAge > 0 {
		cookie.MaxAge = int(m.maxAge / time.Second)
	}
	http.SetCookie(w, cookie)
	return sess, nil
}

// Destroy deletes the request's session and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) {
	if sess, ok := m.Lookup(r); ok {
		m.store.Delete(sess.ID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
