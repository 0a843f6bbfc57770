package gateway

import (
	"fmt"
	"strings"

	"dayblocks/internal/models"
)

// SummaryMessage composes the plain-text confirmation listing every event.
// The message is addressed to the account itself.
func SummaryMessage(subject, intro string, events []models.Event) models.Message {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "%s - %s  %s\n", ev.StartTime.Format("15:04"), ev.EndTime.Format("15:04"), ev.Title)
	}
	return models.Message{Subject: subject, Body: b.String()}
}
