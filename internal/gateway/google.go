package gateway

import (
	"context"

	"dayblocks/internal/google"
	"dayblocks/internal/models"
)

type googleServices struct {
	provider *google.Provider
}

// GoogleServices adapts a Google provider to Services.
func GoogleServices(provider *google.Provider) Services {
	return googleServices{provider: provider}
}

func (s googleServices) Calendar(ctx context.Context, creds models.Credentials) (CalendarService, error) {
	return s.provider.Calendar(ctx, creds)
}

func (s googleServices) Mail(ctx context.Context, creds models.Credentials) (MailService, error) {
	return s.provider.Mail(ctx, creds)
}
