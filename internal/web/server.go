// Package web serves the landing page, the OAuth redirect endpoints and the
// schedule submission form.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"dayblocks/internal/gateway"
	"dayblocks/internal/locale"
	"dayblocks/internal/models"
	"dayblocks/internal/session"
)

// Authorizer runs the OAuth flow for a session.
type Authorizer interface {
	Begin(sess *session.Session) string
	Complete(ctx context.Context, sess *session.Session, code, state string) error
	Fresh(ctx context.Context, sess *session.Session) (models.Credentials, error)
}

// Delegator submits a schedule and its summary on the user's behalf.
type Delegator interface {
	Run(ctx context.Context, creds models.Credentials, events []models.Event, msg models.Message) (gateway.Result, error)
}

// Options configures a Server.
type Options struct {
	Sessions *session.Manager
	Auth     Authorizer
	Gateway  Delegator
	Catalog  *locale.Catalog
	Template []models.ScheduleEntry
	Timezone *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

// Server wires the HTTP routes to the session, auth and gateway components.
type Server struct {
	sessions *session.Manager
	auth     Authorizer
	gateway  Delegator
	catalog  *locale.Catalog
	template []models.ScheduleEntry
	timezone *time.Location
	logger   *slog.Logger
	now      func() time.Time
	mux      *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(opts Options) *Server {
	s := &Server{
		sessions: opts.Sessions,
		auth:     opts.Auth,
		gateway:  opts.Gateway,
		catalog:  opts.Catalog,
		template: opts.Template,
		timezone: opts.Timezone,
		logger:   opts.Logger,
		now:      opts.Now,
		mux:      http.NewServeMux(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.timezone == nil {
		s.timezone = time.UTC
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return RequestLogger(s.logger)(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleLanding)
	s.mux.HandleFunc("GET /auth/start", s.handleAuthStart)
	s.mux.HandleFunc("GET /auth/callback", s.handleAuthCallback)
	s.mux.HandleFunc("POST /schedule", s.handleSchedule)
	s.mux.HandleFunc("GET /schedule.ics", s.handleScheduleICS)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) log(ctx context.Context, operation string) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = s.logger
	}
	return logger.With("operation", operation)
}

// translator resolves the display language for the request and remembers an
// explicitly requested, supported language on the session.
func (s *Server) translator(r *http.Request, sess *session.Session) *locale.Translator {
	explicit := r.URL.Query().Get("lang")
	remembered := ""
	if sess != nil {
		if lang, ok := s.catalog.Match(explicit); ok {
			sess.SetLanguage(lang)
		}
		remembered = sess.Language()
	}
	return s.catalog.Translator(s.catalog.Resolve(explicit, remembered, r.Header.Get("Accept-Language")))
}

func (s *Server) writeMessage(w http.ResponseWriter, r *http.Request, tr *locale.Translator, status int, heading string, lines ...string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := renderMessage(w, tr, heading, lines...); err != nil {
		s.log(r.Context(), "render").ErrorContext(r.Context(), "failed to render page", "error", err)
	}
}
