package notify

import (
	"context"
	"log/slog"
)

// NoopSender logs sends but does not deliver them.
type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) Send(_ context.Context, msg Message) error {
	slog.Info("noop_email_send", "to_count", len(msg.To), "subject", msg.Subject)
	return nil
}
