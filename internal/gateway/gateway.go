// Package gateway performs the outbound calendar and mail calls on behalf of an
// authorized user.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"dayblocks/internal/models"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// CalendarService creates events in a calendar.
type CalendarService interface {
	InsertEvent(ctx context.Context, event models.Event) error
}

// MailService delivers a message.
type MailService interface {
	Send(ctx context.Context, msg models.Message) error
}

// Services builds the provider clients for a set of credentials.
type Services interface {
	Calendar(ctx context.Context, creds models.Credentials) (CalendarService, error)
	Mail(ctx context.Context, creds models.Credentials) (MailService, error)
}

// Outcome is the result of a call whose failure does not fail the request.
type Outcome struct {
	Err error
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// CalendarSubmissionError reports the first event the calendar rejected.
// Events created before the failure are left in place.
type CalendarSubmissionError struct {
	Title string
	Err   error
}

func (e *CalendarSubmissionError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("calendar submission failed: %v", e.Err)
	}
	return fmt.Sprintf("calendar submission failed at %q: %v", e.Title, e.Err)
}

func (e *CalendarSubmissionError) Unwrap() error { return e.Err }

// Result summarizes a Run.
type Result struct {
	Submitted int
	Mail      Outcome
	Mirror    *Outcome // nil when no mirror is configured
}

// Gateway orchestrates calendar submission, the optional mirror and the summary mail.
type Gateway struct {
	logger      *slog.Logger
	services    Services
	mirror      CalendarService
	concurrency int
}

// NewGateway creates a Gateway. mirror may be nil.
func NewGateway(logger *slog.Logger, services Services, mirror CalendarService) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		logger:      logger,
		services:    services,
		mirror:      mirror,
		concurrency: defaultConcurrency,
	}
}

// SubmitSchedule inserts every event. Inserts run concurrently and the call
// returns once all of them have finished. The first failure is returned as a
// *CalendarSubmissionError.
func (g *Gateway) SubmitSchedule(ctx context.Context, creds models.Credentials, events []models.Event) error {
	cal, err := g.services.Calendar(ctx, creds)
	if err != nil {
		return &CalendarSubmissionError{Err: err}
	}
	if err := g.insertAll(ctx, cal, events); err != nil {
		return err
	}
	g.logger.Info("Submitted schedule to calendar", "count", len(events))
	return nil
}

// SendSummary sends one message. Failures are returned in the Outcome.
func (g *Gateway) SendSummary(ctx context.Context, creds models.Credentials, msg models.Message) Outcome {
	mail, err := g.services.Mail(ctx, creds)
	if err != nil {
		return Outcome{Err: err}
	}
	if err := mail.Send(ctx, msg); err != nil {
		return Outcome{Err: err}
	}
	return Outcome{}
}

// Run submits the events, mirrors them when a mirror is configured, then
// sends the summary. Only a calendar failure is returned as an error.
func (g *Gateway) Run(ctx context.Context, creds models.Credentials, events []models.Event, msg models.Message) (Result, error) {
	if err := g.SubmitSchedule(ctx, creds, events); err != nil {
		return Result{}, err
	}
	result := Result{Submitted: len(events)}

	if g.mirror != nil {
		mirror := Outcome{Err: g.insertAll(ctx, g.mirror, events)}
		if !mirror.OK() {
			g.logger.Warn("Failed to mirror schedule to CalDAV", "error", mirror.Err)
		}
		result.Mirror = &mirror
	}

	result.Mail = g.SendSummary(ctx, creds, msg)
	if !result.Mail.OK() {
		g.logger.Warn("Failed to send summary message", "error", result.Mail.Err)
	}
	return result, nil
}

func (g *Gateway) insertAll(ctx context.Context, cal CalendarService, events []models.Event) error {
	var group errgroup.Group
	group.SetLimit(g.concurrency)
	for _, event := range events {
		group.Go(func() error {
			if err := cal.InsertEvent(ctx, event); err != nil {
				return &CalendarSubmissionError{Title: event.Title, Err: err}
			}
			return nil
		})
	}
	return group.Wait()
}
