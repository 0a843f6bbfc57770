package models

// Message is a plain-text mail message.
type Message struct {
	To      string // Empty means the authorized account itself
	Subject string
	Body    string
}
