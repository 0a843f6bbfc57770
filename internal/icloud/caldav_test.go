package icloud

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"dayblocks/internal/models"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
)

type putRecorder struct {
	mu     sync.Mutex
	method string
	path   string
	user   string
	body   string
}

func (p *putRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	user, _, _ := r.BasicAuth()
	p.mu.Lock()
	p.method, p.path, p.user, p.body = r.Method, r.URL.Path, user, string(body)
	p.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}

func TestInsertEvent(t *testing.T) {
	recorder := &putRecorder{}
	srv := httptest.NewServer(recorder)
	defer srv.Close()

	httpClient := &http.Client{Transport: &customTransport{Username: "ana", Password: "app-password", Transport: http.DefaultTransport}}
	webdavClient, err := webdav.NewClient(httpClient, srv.URL)
	if err != nil {
		t.Fatalf("failed to create webdav client: %v", err)
	}
	client := &CalDAVClient{
		webdavClient: webdavClient,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		endpoint:     srv.URL,
		calendarPath: "/123/calendars/routine",
		now:          func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	}

	event := models.Event{
		UID:       "4b1d7c2e",
		Title:     "Focus",
		StartTime: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC),
		TimeZone:  "UTC",
		Reminders: []time.Duration{10 * time.Minute, 30 * time.Minute},
	}
	if err := client.InsertEvent(context.Background(), event); err != nil {
		t.Fatalf("InsertEvent returned error: %v", err)
	}

	if recorder.method != http.MethodPut {
		t.Fatalf("expected PUT, got %s", recorder.method)
	}
	if recorder.path != "/123/calendars/routine/4b1d7c2e.ics" {
		t.Fatalf("unexpected path %s", recorder.path)
	}
	if recorder.user != "ana" {
		t.Fatalf("expected basic auth user, got %q", recorder.user)
	}

	cal, err := ical.NewDecoder(strings.NewReader(recorder.body)).Decode()
	if err != nil {
		t.Fatalf("uploaded body is not iCalendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if uid, _ := events[0].Props.Text(ical.PropUID); uid != "4b1d7c2e" {
		t.Fatalf("unexpected uid %q", uid)
	}
}

func TestInsertEventServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	webdavClient, err := webdav.NewClient(srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("failed to create webdav client: %v", err)
	}
	client := &CalDAVClient{
		webdavClient: webdavClient,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		calendarPath: "/cal",
		now:          time.Now,
	}
	err = client.InsertEvent(context.Background(), models.Event{UID: "x", Title: "x", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)})
	if err == nil {
		t.Fatalf("expected error for forbidden response")
	}
}
