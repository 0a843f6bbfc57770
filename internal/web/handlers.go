package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dayblocks/internal/auth"
	"dayblocks/internal/gateway"
	"dayblocks/internal/schedule"
	"dayblocks/internal/session"
)

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.Load(w, r)
	if err != nil {
		s.log(ctx, "landing").ErrorContext(ctx, "failed to start session", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	tr := s.translator(r, sess)

	state := LandingState{
		Authenticated: sess.Status() == session.Authenticated,
		Email:         sess.Email(),
		Today:         s.now().In(s.timezone).Format(time.DateOnly),
		Timezone:      s.timezone.String(),
		Supported:     s.catalog.Languages(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderLanding(w, tr, state); err != nil {
		s.log(ctx, "landing").ErrorContext(ctx, "failed to render landing page", "error", err)
	}
}

func (s *Server) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.Load(w, r)
	if err != nil {
		s.log(ctx, "auth_start").ErrorContext(ctx, "failed to start session", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	target := s.auth.Begin(sess)
	s.log(ctx, "auth_start").InfoContext(ctx, "redirecting to consent screen", "session", sess.ID)
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.log(ctx, "auth_callback")
	sess, err := s.sessions.Load(w, r)
	if err != nil {
		logger.ErrorContext(ctx, "failed to start session", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	tr := s.translator(r, sess)

	q := r.URL.Query()
	err = s.auth.Complete(ctx, sess, q.Get("code"), q.Get("state"))
	switch {
	case err == nil:
		logger.InfoContext(ctx, "session authorized", "session", sess.ID)
		http.Redirect(w, r, "/", http.StatusFound)
	case errors.Is(err, auth.ErrMissingCode):
		logger.WarnContext(ctx, "callback without authorization code", "session", sess.ID, "provider_error", q.Get("error"))
		s.writeMessage(w, r, tr, http.StatusBadRequest, tr.T("auth_failed"), tr.T("missing_code"))
	case errors.Is(err, auth.ErrStateMismatch):
		logger.WarnContext(ctx, "callback state mismatch", "session", sess.ID)
		s.writeMessage(w, r, tr, http.StatusBadRequest, tr.T("auth_failed"), tr.T("invalid_request"))
	default:
		logger.ErrorContext(ctx, "authorization exchange failed", "session", sess.ID, "error", err)
		s.writeMessage(w, r, tr, http.StatusInternalServerError, tr.T("auth_failed"))
	}
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.log(ctx, "schedule")

	sess, ok := s.sessions.Lookup(r)
	if !ok || sess.Status() != session.Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	unlock := sess.LockSubmission()
	defer unlock()

	tr := s.translator(r, sess)

	creds, err := s.auth.Fresh(ctx, sess)
	if err != nil {
		logger.InfoContext(ctx, "credentials unusable, consent required", "session", sess.ID, "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	day, loc, err := s.targetDay(r)
	if err != nil {
		logger.WarnContext(ctx, "invalid schedule request", "error", err)
		s.writeMessage(w, r, tr, http.StatusBadRequest, tr.T("invalid_request"))
		return
	}

	events := schedule.Materialize(s.template, day, loc)
	msg := gateway.SummaryMessage(tr.T("mail_subject"), tr.T("mail_intro", map[string]any{"Date": day.Format(time.DateOnly)}), events)
	msg.To = sess.Email()

	result, err := s.gateway.Run(ctx, creds, events, msg)
	if err != nil {
		logger.ErrorContext(ctx, "schedule submission failed", "session", sess.ID, "error", err)
		s.writeMessage(w, r, tr, http.StatusInternalServerError, tr.T("schedule_failed"))
		return
	}

	logger.InfoContext(ctx, "schedule created", "session", sess.ID, "events", result.Submitted, "mail_ok", result.Mail.OK())
	lines := []string{tr.T("schedule_created_body", map[string]any{"Count": strconv.Itoa(result.Submitted)})}
	if result.Mail.OK() {
		lines = append(lines, tr.T("mail_sent"))
	} else {
		lines = append(lines, tr.T("mail_failed"))
	}
	s.writeMessage(w, r, tr, http.StatusOK, tr.T("schedule_created"), lines...)
}

func (s *Server) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	day, loc, err := s.targetDay(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	events := schedule.Materialize(s.template, day, loc)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule-`+day.Format(time.DateOnly)+`.ics"`)
	if err := schedule.EncodeICS(w, events, s.now()); err != nil {
		s.log(ctx, "schedule_ics").ErrorContext(ctx, "failed to write calendar file", "error", err)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Destroy(w, r)
	s.log(r.Context(), "logout").InfoContext(r.Context(), "session destroyed")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// targetDay reads the optional date and timezone fields. The date defaults to
// today and the timezone to the configured one.
func (s *Server) targetDay(r *http.Request) (time.Time, *time.Location, error) {
	loc := s.timezone
	if name := strings.TrimSpace(r.FormValue("timezone")); name != "" {
		l, err := time.LoadLocation(name)
		if err != nil {
			return time.Time{}, nil, err
		}
		loc = l
	}

	raw := strings.TrimSpace(r.FormValue("date"))
	if raw == "" {
		return s.now().In(loc), loc, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, nil, err
	}
	return day, loc, nil
}
