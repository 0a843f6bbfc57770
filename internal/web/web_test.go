package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"dayblocks/internal/auth"
	"dayblocks/internal/gateway"
	"dayblocks/internal/locale"
	"dayblocks/internal/models"
	"dayblocks/internal/schedule"
	"dayblocks/internal/session"
)

type fakeAuthorizer struct {
	exchangeErr error
	expired     bool
}

func (f *fakeAuthorizer) Begin(sess *session.Session) string {
	sess.BeginAuthorization("state-1")
	return "https://accounts.example.com/o/oauth2/auth?state=state-1"
}

func (f *fakeAuthorizer) Complete(_ context.Context, sess *session.Session, code, state string) error {
	sess.TakePendingState()
	if code == "" {
		return auth.ErrMissingCode
	}
	if state != "state-1" {
		return auth.ErrStateMismatch
	}
	if f.exchangeErr != nil {
		return &auth.AuthorizationError{Err: f.exchangeErr}
	}
	sess.SetCredentials(models.Credentials{AccessToken: "access", Expiry: time.Now().Add(time.Hour)})
	sess.SetEmail("user@example.com")
	return nil
}

func (f *fakeAuthorizer) Fresh(_ context.Context, sess *session.Session) (models.Credentials, error) {
	creds, ok := sess.Credentials()
	if !ok || f.expired {
		sess.ClearCredentials()
		return models.Credentials{}, auth.ErrReauthorize
	}
	return creds, nil
}

type countingCalendar struct {
	mu     sync.Mutex
	failOn string
	calls  int
}

func (c *countingCalendar) InsertEvent(_ context.Context, event models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if event.Title == c.failOn {
		return errors.New("calendar unavailable")
	}
	return nil
}

type countingMail struct {
	mu    sync.Mutex
	err   error
	calls int
	sent  []models.Message
}

func (m *countingMail) Send(_ context.Context, msg models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeServices struct {
	calendar *countingCalendar
	mail     *countingMail
}

func (f *fakeServices) Calendar(context.Context, models.Credentials) (gateway.CalendarService, error) {
	return f.calendar, nil
}

func (f *fakeServices) Mail(context.Context, models.Credentials) (gateway.MailService, error) {
	return f.mail, nil
}

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	auth     *fakeAuthorizer
	calendar *countingCalendar
	mail     *countingMail
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog, err := locale.NewCatalog("en")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	env := &testEnv{
		auth:     &fakeAuthorizer{},
		calendar: &countingCalendar{},
		mail:     &countingMail{},
	}
	store := session.NewStore(time.Hour, nil)
	srv := NewServer(Options{
		Sessions: session.NewManager(store, "test-secret", false, time.Hour, logger),
		Auth:     env.auth,
		Gateway:  gateway.NewGateway(logger, &fakeServices{calendar: env.calendar, mail: env.mail}, nil),
		Catalog:  catalog,
		Template: schedule.DefaultTemplate(),
		Timezone: time.UTC,
		Logger:   logger,
		Now:      func() time.Time { return time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC) },
	})
	env.server = httptest.NewServer(srv.Handler())
	t.Cleanup(env.server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	env.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return env
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	resp, _ := e.get(t, "/auth/start")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("auth start status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	resp, _ = e.get(t, "/auth/callback?code=abc&state=state-1")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Fatalf("callback = %d %q, want redirect to /", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestLanding(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, `href="/auth/start"`) {
		t.Error("signed-out landing page has no sign-in link")
	}
	for _, action := range []string{`action="/schedule"`, `action="/logout"`} {
		if strings.Contains(body, action) {
			t.Errorf("signed-out landing page contains %s", action)
		}
	}

	env.signIn(t)
	_, body = env.get(t, "/")
	for _, action := range []string{`action="/schedule"`, `action="/logout"`} {
		if !strings.Contains(body, action) {
			t.Errorf("signed-in landing page is missing %s", action)
		}
	}
	if strings.Contains(body, `href="/auth/start"`) {
		t.Error("signed-in landing page still shows the sign-in link")
	}
	if !strings.Contains(body, "user@example.com") {
		t.Error("signed-in landing page does not show the account email")
	}
}

func TestLandingLanguage(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/?lang=xx")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unsupported language status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, `<html lang="en">`) {
		t.Error("unsupported language did not fall back to English")
	}

	_, body = env.get(t, "/?lang=es")
	if !strings.Contains(body, `<html lang="es">`) {
		t.Error("lang=es not applied")
	}

	// The explicit choice is remembered for later requests.
	_, body = env.get(t, "/")
	if !strings.Contains(body, `<html lang="es">`) {
		t.Error("language preference not remembered on the session")
	}

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/", nil)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if body := readBody(t, resp); !strings.Contains(body, `<html lang="pt">`) {
		t.Error("Accept-Language not honored for a fresh session")
	}
}

func TestScheduleRequiresAuthorization(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.post(t, "/schedule", url.Values{"date": {"2024-01-01"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("got %d %q, want redirect to /", resp.StatusCode, resp.Header.Get("Location"))
	}
	if env.calendar.calls != 0 || env.mail.calls != 0 {
		t.Errorf("calendar calls = %d, mail calls = %d, want none", env.calendar.calls, env.mail.calls)
	}
}

func TestScheduleExpiredCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	env.auth.expired = true

	resp, _ := env.post(t, "/schedule", url.Values{"date": {"2024-01-01"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if env.calendar.calls != 0 {
		t.Errorf("calendar calls = %d, want 0", env.calendar.calls)
	}

	env.auth.expired = false
	_, body := env.get(t, "/")
	if !strings.Contains(body, `href="/auth/start"`) {
		t.Error("session still signed in after failed refresh")
	}
}

func TestSchedule(t *testing.T) {
	tests := []struct {
		name       string
		failOn     string
		mailErr    error
		form       url.Values
		wantStatus int
		wantBody   string
		wantMail   int
	}{
		{
			name:       "success",
			form:       url.Values{"date": {"2024-01-01"}, "timezone": {"UTC"}},
			wantStatus: http.StatusOK,
			wantBody:   "19 events were added",
			wantMail:   1,
		},
		{
			name:       "mail failure still succeeds",
			mailErr:    errors.New("smtp down"),
			form:       url.Values{"date": {"2024-01-01"}},
			wantStatus: http.StatusOK,
			wantBody:   "could not be sent",
			wantMail:   1,
		},
		{
			name:       "calendar failure",
			failOn:     schedule.DefaultTemplate()[4].Label,
			form:       url.Values{"date": {"2024-01-01"}},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "could not create your schedule",
			wantMail:   0,
		},
		{
			name:       "invalid date",
			form:       url.Values{"date": {"01/02/2024"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid timezone",
			form:       url.Values{"date": {"2024-01-01"}, "timezone": {"Mars/Olympus"}},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.calendar.failOn = tt.failOn
			env.mail.err = tt.mailErr
			env.signIn(t)

			resp, body := env.post(t, "/schedule", tt.form)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantBody != "" && !strings.Contains(body, tt.wantBody) {
				t.Errorf("body does not contain %q:\n%s", tt.wantBody, body)
			}
			if env.mail.calls != tt.wantMail {
				t.Errorf("mail calls = %d, want %d", env.mail.calls, tt.wantMail)
			}
		})
	}
}

func TestScheduleSummaryRecipient(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	resp, _ := env.post(t, "/schedule", url.Values{"date": {"2024-01-01"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if env.calendar.calls != 19 {
		t.Errorf("calendar calls = %d, want 19", env.calendar.calls)
	}
	if len(env.mail.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(env.mail.sent))
	}
	msg := env.mail.sent[0]
	if msg.To != "user@example.com" {
		t.Errorf("To = %q, want the account email", msg.To)
	}
	if !strings.Contains(msg.Body, "2024-01-01") {
		t.Errorf("summary body does not mention the date:\n%s", msg.Body)
	}
}

func TestAuthCallback(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		exchangeErr error
		wantStatus  int
	}{
		{name: "missing code", query: "state=state-1", wantStatus: http.StatusBadRequest},
		{name: "state mismatch", query: "code=abc&state=other", wantStatus: http.StatusBadRequest},
		{name: "exchange rejected", query: "code=abc&state=state-1", exchangeErr: errors.New("invalid_grant"), wantStatus: http.StatusInternalServerError},
		{name: "success", query: "code=abc&state=state-1", wantStatus: http.StatusFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.auth.exchangeErr = tt.exchangeErr

			resp, _ := env.get(t, "/auth/start")
			if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "https://accounts.example.com/") {
				t.Fatalf("auth start Location = %q", loc)
			}
			resp, body := env.get(t, "/auth/callback?"+tt.query)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, tt.wantStatus, body)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	resp, _ := env.post(t, "/logout", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("got %d %q, want redirect to /", resp.StatusCode, resp.Header.Get("Location"))
	}

	_, body := env.get(t, "/")
	if !strings.Contains(body, `href="/auth/start"`) {
		t.Error("landing page still signed in after logout")
	}

	resp, _ = env.post(t, "/schedule", url.Values{"date": {"2024-01-01"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("schedule after logout status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if env.calendar.calls != 0 {
		t.Errorf("calendar calls after logout = %d, want 0", env.calendar.calls)
	}
}

func TestScheduleICS(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/schedule.ics?date=2024-01-01&timezone=UTC")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.Count(body, "BEGIN:VEVENT"); got != 19 {
		t.Errorf("VEVENT count = %d, want 19", got)
	}
	if got := strings.Count(body, "BEGIN:VALARM"); got != 38 {
		t.Errorf("VALARM count = %d, want 38", got)
	}
	if !strings.Contains(body, "DTSTART:20240101T060000Z") {
		t.Error("first event does not start at 06:00 UTC")
	}

	resp, _ = env.get(t, "/schedule.ics?date=tomorrow")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid date status = %d, want 400", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/healthz")
	if resp.StatusCode != http.StatusOK || body != "OK" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}
