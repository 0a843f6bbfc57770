package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dayblocks/internal/models"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const primaryCalendar = "primary"

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service    *calendar.Service
	calendarID string
	logger     *slog.Logger
}

// NewCalendarClient creates a Calendar client on top of an authorized HTTP client.
// Events are written to the account's primary calendar.
func NewCalendarClient(ctx context.Context, logger *slog.Logger, httpClient *http.Client, opts ...option.ClientOption) (*CalendarClient, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{service: service, calendarID: primaryCalendar, logger: logger}, nil
}

// InsertEvent creates one event in the calendar.
func (c *CalendarClient) InsertEvent(ctx context.Context, event models.Event) error {
	created, err := c.service.Events.Insert(c.calendarID, toCalendarEvent(event)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to insert event %q: %w", event.Title, err)
	}
	c.logger.Debug("Inserted event into Google Calendar", "title", event.Title, "id", created.Id)
	return nil
}

// toCalendarEvent converts the internal Event model to a Google Calendar event.
func toCalendarEvent(event models.Event) *calendar.Event {
	reminders := &calendar.EventReminders{
		UseDefault: false,
		// UseDefault must be sent even though it is the zero value.
		ForceSendFields: []string{"UseDefault"},
	}
	for _, minutes := range event.ReminderMinutes() {
		reminders.Overrides = append(reminders.Overrides, &calendar.EventReminder{
			Method:  "popup",
			Minutes: minutes,
		})
	}

	return &calendar.Event{
		Summary: event.Title,
		Start: &calendar.EventDateTime{
			DateTime: event.StartTime.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.EndTime.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		Reminders: reminders,
	}
}
