package google

import (
	"context"
	"net/http"

	"dayblocks/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
)

// Scopes requested on every consent screen.
var Scopes = []string{
	calendar.CalendarScope,
	gmail.GmailSendScope,
	drive.DriveFileScope,
	"openid",
	oauth2api.UserinfoEmailScope,
}

// NewOAuthConfig returns the web-flow OAuth2 config for the Google endpoint.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// ToToken converts stored credentials into an oauth2 token.
func ToToken(c models.Credentials) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
		TokenType:    "Bearer",
	}
}

// FromToken converts an oauth2 token into stored credentials.
func FromToken(t *oauth2.Token) models.Credentials {
	return models.Credentials{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}

// HTTPClient returns an HTTP client authorized with the credentials. The client
// refreshes the access token when it expires and a refresh token is present.
func HTTPClient(ctx context.Context, config *oauth2.Config, c models.Credentials) *http.Client {
	return config.Client(ctx, ToToken(c))
}
