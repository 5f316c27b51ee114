package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/communitylink/membership-api/internal/model"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe webhook event types that resolve an intent
const (
	eventIntentSucceeded = "payment_intent.succeeded"
	eventIntentFailed    = "payment_intent.payment_failed"
	eventIntentCanceled  = "payment_intent.canceled"
)

// StripeProcessor is the Processor backed by Stripe PaymentIntents.
type StripeProcessor struct {
	api           *client.API
	webhookSecret string
}

var _ Processor = (*StripeProcessor)(nil)

func NewStripeProcessor(secretKey, webhookSecret string) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeProcessor{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, translateStripeError(err)
	}

	return &Intent{
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (p *StripeProcessor) GetStatus(ctx context.Context, reference string) (*Resolution, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(reference, params)
	if err != nil {
		return nil, translateStripeError(err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return &Resolution{Status: model.PaymentSucceeded}, nil
	case stripe.PaymentIntentStatusCanceled:
		return &Resolution{Status: model.PaymentCanceled, FailureMessage: "The payment was canceled."}, nil
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// A declined attempt drops back to requires_payment_method with the decline attached
		if pi.LastPaymentError != nil {
			return &Resolution{Status: model.PaymentFailed, FailureMessage: pi.LastPaymentError.Msg}, nil
		}
	}
	return &Resolution{Status: model.PaymentPending}, nil
}

func (p *StripeProcessor) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify stripe signature: %w", err)
	}

	switch string(event.Type) {
	case eventIntentSucceeded, eventIntentFailed, eventIntentCanceled:
	default:
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}

	return &WebhookEvent{
		Type:      string(event.Type),
		Reference: pi.ID,
	}, nil
}

// translateStripeError keeps card and request errors as processor failures and
// treats everything else as the processor being unreachable.
func translateStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
			return &ProcessorError{Code: string(stripeErr.Code), Message: stripeErr.Msg}
		}
	}
	return err
}
