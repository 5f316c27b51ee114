// Package payment coordinates charges with the external payment processor.
package payment

import (
	"context"

	"github.com/communitylink/membership-api/internal/model"
)

// Intent is a charge created at the processor.
type Intent struct {
	Reference    string
	ClientSecret string
}

// Resolution is the processor's view of an intent.
type Resolution struct {
	Status         model.PaymentStatus
	FailureMessage string
}

// WebhookEvent is a verified processor callback about an intent.
type WebhookEvent struct {
	Type      string
	Reference string
}

// Processor is the payment processor consumed by the orchestrator.
type Processor interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	GetStatus(ctx context.Context, reference string) (*Resolution, error)
	// ParseWebhook verifies the signature and extracts the intent reference.
	// A nil event with nil error means the event type is not relevant.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
