package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"dayblocks/internal/models"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const me = "me"

// MailClient sends messages through the Gmail API as the authorized user.
type MailClient struct {
	service *gmail.Service
	logger  *slog.Logger
}

// NewMailClient creates a Gmail client on top of an authorized HTTP client.
func NewMailClient(ctx context.Context, logger *slog.Logger, httpClient *http.Client, opts ...option.ClientOption) (*MailClient, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &MailClient{service: service, logger: logger}, nil
}

// Send delivers a plain-text message. When msg.To is empty the message is
// addressed to the authorized account itself.
func (c *MailClient) Send(ctx context.Context, msg models.Message) error {
	to := msg.To
	if to == "" {
		profile, err := c.service.Users.GetProfile(me).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to resolve mailbox address: %w", err)
		}
		to = profile.EmailAddress
	}

	raw := buildRawMessage(to, msg.Subject, msg.Body)
	sent, err := c.service.Users.Messages.Send(me, &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	c.logger.Debug("Sent message through Gmail", "id", sent.Id)
	return nil
}

// buildRawMessage renders an RFC 822 message with a UTF-8 plain-text body.
func buildRawMessage(to, subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(toCRLF(body))
	return b.Bytes()
}

func toCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
