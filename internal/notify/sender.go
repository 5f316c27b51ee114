package notify

import "context"

// Message is a rendered email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers rendered email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
