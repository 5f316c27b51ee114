package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/shared/logger"
	"github.com/communitylink/membership-api/internal/shared/metrics"
	"gorm.io/gorm"
)

// ChargeRequest describes the amount collected now and the registration it pays for.
type ChargeRequest struct {
	Amount           int64 // cents collected now
	Currency         string
	MembershipFee    int64
	RemainingBalance int64
	Email            string
	Registration     []byte // validated registration payload
	Metadata         map[string]string
}

// Charge is the result handed back to the registering client.
type Charge struct {
	Reference        string
	ClientSecret     string
	Amount           int64
	Currency         string
	RemainingBalance int64
}

type Orchestrator struct {
	db         *gorm.DB
	processor  Processor
	repository *IntentRepository
	currency   string
	now        func() time.Time
}

func NewOrchestrator(db *gorm.DB, processor Processor, repository *IntentRepository, currency string) *Orchestrator {
	return &Orchestrator{
		db:         db,
		processor:  processor,
		repository: repository,
		currency:   strings.ToLower(currency),
		now:        time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Charge creates a processor intent and records it as pending.
// Nothing about the member is persisted here.
func (o *Orchestrator) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	log := logger.FromContext(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount=%d: %w", req.Amount, ErrInvalidChargeAmount)
	}

	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = o.currency
	}

	intent, err := o.processor.CreateIntent(ctx, req.Amount, currency, req.Metadata)
	if err != nil {
		metrics.PaymentCharges.WithLabelValues("error").Inc()
		var procErr *ProcessorError
		if errors.As(err, &procErr) {
			log.Warn("Payment intent declined", "code", procErr.Code, "email", logger.MaskEmail(req.Email))
			return nil, err
		}
		log.Error("Payment processor unavailable", "error", err)
		return nil, fmt.Errorf("%w: create intent: %w", ErrProcessorUnavailable, err)
	}

	record := &model.PaymentIntent{
		Reference:        intent.Reference,
		Amount:           req.Amount,
		Currency:         currency,
		MembershipFee:    req.MembershipFee,
		RemainingBalance: req.RemainingBalance,
		Email:            strings.ToLower(req.Email),
		Status:           model.PaymentPending,
		Registration:     string(req.Registration),
	}
	if err := o.repository.Create(ctx, o.db, record); err != nil {
		log.Error("Failed to record payment intent", "reference", intent.Reference, "error", err)
		return nil, fmt.Errorf("record payment intent: %w", err)
	}

	metrics.PaymentCharges.WithLabelValues("created").Inc()
	log.Info("Payment intent created",
		"reference", intent.Reference,
		"amount", req.Amount,
		"currency", currency,
		"remaining_balance", req.RemainingBalance,
	)

	return &Charge{
		Reference:        intent.Reference,
		ClientSecret:     intent.ClientSecret,
		Amount:           req.Amount,
		Currency:         currency,
		RemainingBalance: req.RemainingBalance,
	}, nil
}

// Confirm resolves the intent with the processor and records the outcome.
// It returns the stored intent only when the payment succeeded; a declined or
// canceled payment yields a *ProcessorError and an unresolved one
// ErrPaymentPending. A decline is not final: the client may retry on the same
// intent, so anything short of succeeded or canceled is asked again.
func (o *Orchestrator) Confirm(ctx context.Context, reference string) (*model.PaymentIntent, error) {
	log := logger.FromContext(ctx)

	record, err := o.Intent(ctx, reference)
	if err != nil {
		return nil, err
	}

	switch record.Status {
	case model.PaymentSucceeded:
		return record, nil
	case model.PaymentCanceled:
		return nil, failureFor(record)
	}

	resolution, err := o.processor.GetStatus(ctx, reference)
	if err != nil {
		log.Error("Payment status lookup failed", "reference", reference, "error", err)
		return nil, fmt.Errorf("%w: get status: %w", ErrProcessorUnavailable, err)
	}

	switch resolution.Status {
	case model.PaymentSucceeded:
		now := o.now().UTC()
		if _, err := o.repository.UpdateStatus(ctx, o.db, reference, model.PaymentSucceeded, map[string]interface{}{
			"confirmed_at":    now,
			"failure_message": nil,
		}); err != nil {
			return nil, fmt.Errorf("record payment success: %w", err)
		}
		if record.Status == model.PaymentFailed {
			log.Info("Payment succeeded after decline", "reference", reference)
		}
		record.Status = model.PaymentSucceeded
		record.ConfirmedAt = &now
		record.FailureMessage = nil
		metrics.PaymentCharges.WithLabelValues("succeeded").Inc()
		log.Info("Payment confirmed", "reference", reference)
		return record, nil

	case model.PaymentFailed, model.PaymentCanceled:
		message := resolution.FailureMessage
		if message == "" {
			message = defaultFailureMessage
		}
		if _, err := o.repository.UpdateStatus(ctx, o.db, reference, resolution.Status, map[string]interface{}{
			"failure_message": message,
		}); err != nil {
			return nil, fmt.Errorf("record payment failure: %w", err)
		}
		record.Status = resolution.Status
		record.FailureMessage = &message
		metrics.PaymentCharges.WithLabelValues(string(resolution.Status)).Inc()
		log.Warn("Payment failed", "reference", reference, "status", resolution.Status, "reason", message)
		return nil, failureFor(record)

	default:
		return nil, fmt.Errorf("reference=%s: %w", reference, ErrPaymentPending)
	}
}

// Intent returns the stored intent for reference.
func (o *Orchestrator) Intent(ctx context.Context, reference string) (*model.PaymentIntent, error) {
	record, err := o.repository.FindByReference(ctx, o.db, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reference=%s: %w", reference, ErrIntentNotFound)
		}
		return nil, fmt.Errorf("find payment intent: %w", err)
	}
	return record, nil
}

// ParseWebhook delegates verification to the processor.
func (o *Orchestrator) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := o.processor.ParseWebhook(payload, signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWebhook, err)
	}
	return event, nil
}

func failureFor(record *model.PaymentIntent) error {
	message := defaultFailureMessage
	if record.FailureMessage != nil && *record.FailureMessage != "" {
		message = *record.FailureMessage
	}
	code := "payment_failed"
	if record.Status == model.PaymentCanceled {
		code = "payment_canceled"
	}
	return &ProcessorError{Code: code, Message: message}
}
