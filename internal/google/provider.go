package google

import (
	"context"
	"log/slog"

	"dayblocks/internal/models"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// Provider builds API clients authorized with a session's credentials.
type Provider struct {
	config *oauth2.Config
	logger *slog.Logger
	opts   []option.ClientOption
}

// NewProvider creates a Provider. Extra client options are passed to every API
// service it constructs.
func NewProvider(config *oauth2.Config, logger *slog.Logger, opts ...option.ClientOption) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{config: config, logger: logger, opts: opts}
}

// Calendar returns a Calendar client for the credentials.
func (p *Provider) Calendar(ctx context.Context, creds models.Credentials) (*CalendarClient, error) {
	return NewCalendarClient(ctx, p.logger, HTTPClient(ctx, p.config, creds), p.opts...)
}

// Mail returns a Gmail client for the credentials.
func (p *Provider) Mail(ctx context.Context, creds models.Credentials) (*MailClient, error) {
	return NewMailClient(ctx, p.logger, HTTPClient(ctx, p.config, creds), p.opts...)
}

// Email looks up the address of the account behind the credentials.
func (p *Provider) Email(ctx context.Context, creds models.Credentials) (string, error) {
	return LookupEmail(ctx, HTTPClient(ctx, p.config, creds), p.opts...)
}
