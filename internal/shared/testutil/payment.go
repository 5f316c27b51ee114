package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/payment"
)

// MockProcessor is an in-memory payment.Processor.
// Intents start pending; tests resolve them with Succeed or Fail.
type MockProcessor struct {
	mu      sync.Mutex
	seq     int
	intents map[string]*payment.Resolution
	Charges []MockCharge
	Lookups int

	CreateIntentFunc func(ctx context.Context, amount int64, currency string, metadata map[string]string) (*payment.Intent, error)
	GetStatusFunc    func(ctx context.Context, reference string) (*payment.Resolution, error)
	ParseWebhookFunc func(payload []byte, signature string) (*payment.WebhookEvent, error)
}

// MockCharge records a CreateIntent call
type MockCharge struct {
	Reference string
	Amount    int64
	Currency  string
	Metadata  map[string]string
}

// Ensure MockProcessor implements payment.Processor
var _ payment.Processor = (*MockProcessor)(nil)

func NewMockProcessor() *MockProcessor {
	return &MockProcessor{intents: map[string]*payment.Resolution{}}
}

func (m *MockProcessor) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, amount, currency, metadata)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	reference := fmt.Sprintf("pi_test_%d", m.seq)
	m.intents[reference] = &payment.Resolution{Status: model.PaymentPending}
	m.Charges = append(m.Charges, MockCharge{
		Reference: reference,
		Amount:    amount,
		Currency:  currency,
		Metadata:  metadata,
	})

	return &payment.Intent{Reference: reference, ClientSecret: reference + "_secret"}, nil
}

func (m *MockProcessor) GetStatus(ctx context.Context, reference string) (*payment.Resolution, error) {
	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, reference)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Lookups++
	resolution, ok := m.intents[reference]
	if !ok {
		return nil, &payment.ProcessorError{Code: "resource_missing", Message: "No such payment_intent: " + reference}
	}
	copied := *resolution
	return &copied, nil
}

// ParseWebhook treats the payload as a bare intent reference; the signature must be "valid".
func (m *MockProcessor) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if m.ParseWebhookFunc != nil {
		return m.ParseWebhookFunc(payload, signature)
	}
	if signature != "valid" {
		return nil, fmt.Errorf("signature mismatch")
	}
	return &payment.WebhookEvent{Type: "payment_intent.succeeded", Reference: string(payload)}, nil
}

// Succeed resolves an intent as paid
func (m *MockProcessor) Succeed(reference string) {
	m.resolve(reference, &payment.Resolution{Status: model.PaymentSucceeded})
}

// Fail resolves an intent as declined
func (m *MockProcessor) Fail(reference, message string) {
	m.resolve(reference, &payment.Resolution{Status: model.PaymentFailed, FailureMessage: message})
}

// Cancel resolves an intent as canceled at the processor
func (m *MockProcessor) Cancel(reference string) {
	m.resolve(reference, &payment.Resolution{Status: model.PaymentCanceled, FailureMessage: "The payment was canceled."})
}

// LastCharge returns the most recent CreateIntent call
func (m *MockProcessor) LastCharge() MockCharge {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Charges[len(m.Charges)-1]
}

func (m *MockProcessor) resolve(reference string, resolution *payment.Resolution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[reference] = resolution
}
