// Package auth runs the OAuth authorization-code flow for a browser session.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"dayblocks/internal/google"
	"dayblocks/internal/models"
	"dayblocks/internal/session"

	"golang.org/x/oauth2"
)

var (
	// ErrMissingCode is returned when the callback carries no authorization code.
	ErrMissingCode = errors.New("missing authorization code")
	// ErrStateMismatch is returned when the callback state does not match the
	// value issued with the consent request.
	ErrStateMismatch = errors.New("authorization state mismatch")
	// ErrReauthorize is returned when stored credentials can no longer be used
	// and the user must go through the consent screen again.
	ErrReauthorize = errors.New("credentials expired, authorization required")
)

// AuthorizationError wraps a failed code exchange.
type AuthorizationError struct {
	Err error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization exchange failed: %v", e.Err)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

// IdentityFunc resolves the account email for freshly issued credentials.
type IdentityFunc func(ctx context.Context, creds models.Credentials) (string, error)

// Controller drives the consent redirect and the callback exchange.
type Controller struct {
	config   *oauth2.Config
	identity IdentityFunc
	logger   *slog.Logger
}

// NewController creates a Controller. identity may be nil.
func NewController(config *oauth2.Config, identity IdentityFunc, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{config: config, identity: identity, logger: logger}
}

// Begin returns the consent URL for the session. Offline access and the consent
// prompt are always requested so every authorization yields a refresh token.
func (c *Controller) Begin(sess *session.Session) string {
	state := rand.Text()
	sess.BeginAuthorization(state)
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Complete exchanges the authorization code and stores the resulting
// credentials on the session, replacing any previous ones. Any failure of a
// pending flow leaves the session unauthenticated.
func (c *Controller) Complete(ctx context.Context, sess *session.Session, code, state string) error {
	pending := sess.TakePendingState()
	// Without a pending flow the callback was not started by this session and
	// must not touch its credentials.
	if pending == "" {
		if code == "" {
			return ErrMissingCode
		}
		return ErrStateMismatch
	}
	if code == "" {
		sess.ClearCredentials()
		return ErrMissingCode
	}
	if subtle.ConstantTimeCompare([]byte(pending), []byte(state)) != 1 {
		sess.ClearCredentials()
		return ErrStateMismatch
	}

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		sess.ClearCredentials()
		return &AuthorizationError{Err: err}
	}

	creds := google.FromToken(token)
	sess.SetCredentials(creds)
	c.logger.Info("Authorization completed", "session", sess.ID, "refresh_token", creds.RefreshToken != "", "expiry", creds.Expiry)

	if c.identity != nil {
		email, err := c.identity(ctx, creds)
		if err != nil {
			c.logger.Warn("Could not resolve account email", "session", sess.ID, "error", err)
		} else {
			sess.SetEmail(email)
		}
	}
	return nil
}

// Fresh returns credentials that are usable right now. An expired access token
// is refreshed through the provider when a refresh token is available and the
// new token is stored on the session. If that is not possible the credentials
// are cleared and ErrReauthorize is returned.
func (c *Controller) Fresh(ctx context.Context, sess *session.Session) (models.Credentials, error) {
	creds, ok := sess.Credentials()
	if !ok {
		return models.Credentials{}, ErrReauthorize
	}
	current := google.ToToken(creds)
	if current.Valid() {
		return creds, nil
	}

	token, err := c.config.TokenSource(ctx, current).Token()
	if err != nil {
		sess.ClearCredentials()
		c.logger.Info("Stored credentials could not be refreshed", "session", sess.ID, "error", err)
		return models.Credentials{}, fmt.Errorf("%w: %v", ErrReauthorize, err)
	}

	refreshed := google.FromToken(token)
	sess.SetCredentials(refreshed)
	c.logger.Debug("Refreshed access token", "session", sess.ID, "expiry", refreshed.Expiry)
	return refreshed, nil
}
