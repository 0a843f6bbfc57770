// Package icloud mirrors schedule events to a CalDAV calendar, iCloud by default.
package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"dayblocks/internal/models"
	"dayblocks/internal/schedule"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

// DefaultEndpoint is the iCloud CalDAV root.
const DefaultEndpoint = "https://caldav.icloud.com/"

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "dayblocks/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVClient writes events into one calendar of a CalDAV server.
type CalDAVClient struct {
	webdavClient *webdav.Client
	logger       *slog.Logger
	endpoint     string
	calendarPath string
	now          func() time.Time
}

// NewClient connects to the server and resolves the calendar named calendarName.
func NewClient(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string) (*CalDAVClient, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	logger.Info("Finding CalDAV calendar", "calendarName", calendarName)
	calendarPath, err := findCalendar(ctx, caldavClient, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	logger.Info("Found CalDAV calendar", "path", calendarPath)

	return &CalDAVClient{
		webdavClient: webdavClient,
		logger:       logger,
		endpoint:     endpoint,
		calendarPath: calendarPath,
		now:          time.Now,
	}, nil
}

// InsertEvent writes the event as <uid>.ics into the calendar collection.
func (c *CalDAVClient) InsertEvent(ctx context.Context, event models.Event) error {
	cal := schedule.NewCalendar([]models.Event{event}, c.now())

	eventPath := path.Join(c.calendarPath, fmt.Sprintf("%s.ics", event.UID))

	writer, err := c.webdavClient.Create(ctx, eventPath)
	if err != nil {
		return fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}
	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		writer.Close()
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to upload event to CalDAV server: %w", err)
	}

	c.logger.Debug("Mirrored event to CalDAV", "eventTitle", event.Title, "uid", event.UID)
	return nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func findCalendar(ctx context.Context, client *caldav.Client, name string) (string, error) {
	principalPath, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := client.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := client.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return strings.TrimSuffix(cal.Path, "/"), nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
