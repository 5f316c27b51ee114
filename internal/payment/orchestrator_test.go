package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/payment"
	"github.com/communitylink/membership-api/internal/shared/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrchestrator(t *testing.T) (*payment.Orchestrator, *testutil.MockProcessor, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t)
	processor := testutil.NewMockProcessor()
	orchestrator := payment.NewOrchestrator(db, processor, payment.NewIntentRepository(), "AUD")
	return orchestrator, processor, db
}

func chargeRequest(amount, fee int64) payment.ChargeRequest {
	return payment.ChargeRequest{
		Amount:           amount,
		MembershipFee:    fee,
		RemainingBalance: fee - amount,
		Email:            "Jane@Example.com",
		Registration:     []byte(`{"email":"jane@example.com"}`),
		Metadata:         map[string]string{"email": "jane@example.com"},
	}
}

func TestCharge_RecordsPendingIntent(t *testing.T) {
	ctx := context.Background()
	orchestrator, processor, _ := setupOrchestrator(t)

	// When: Charge the upfront portion of an installment plan
	charge, err := orchestrator.Charge(ctx, chargeRequest(30000, 100000))
	require.NoError(t, err)

	// Then: Processor was asked for the upfront portion only
	assert.Equal(t, int64(30000), processor.LastCharge().Amount)
	assert.Equal(t, "aud", processor.LastCharge().Currency)
	assert.Equal(t, int64(70000), charge.RemainingBalance)
	assert.NotEmpty(t, charge.ClientSecret)

	stored, err := orchestrator.Intent(ctx, charge.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, stored.Status)
	assert.Equal(t, "jane@example.com", stored.Email)
	assert.Equal(t, int64(100000), stored.MembershipFee)
}

func TestCharge_RejectsNonPositiveAmount(t *testing.T) {
	orchestrator, processor, _ := setupOrchestrator(t)

	_, err := orchestrator.Charge(context.Background(), chargeRequest(0, 10000))
	assert.ErrorIs(t, err, payment.ErrInvalidChargeAmount)
	assert.Empty(t, processor.Charges)
}

func TestCharge_ProcessorDeclineIsSurfacedVerbatim(t *testing.T) {
	ctx := context.Background()
	orchestrator, processor, db := setupOrchestrator(t)

	processor.CreateIntentFunc = func(context.Context, int64, string, map[string]string) (*payment.Intent, error) {
		return nil, &payment.ProcessorError{Code: "card_declined", Message: "Your card was declined."}
	}

	_, err := orchestrator.Charge(ctx, chargeRequest(10000, 10000))

	var procErr *payment.ProcessorError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "Your card was declined.", procErr.Message)
	assert.ErrorIs(t, err, payment.ErrPaymentFailed)

	var count int64
	require.NoError(t, db.Model(&model.PaymentIntent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCharge_ProcessorUnavailable(t *testing.T) {
	orchestrator, processor, _ := setupOrchestrator(t)

	processor.CreateIntentFunc = func(context.Context, int64, string, map[string]string) (*payment.Intent, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	_, err := orchestrator.Charge(context.Background(), chargeRequest(10000, 10000))
	assert.ErrorIs(t, err, payment.ErrProcessorUnavailable)
}

func TestConfirm_Succeeded(t *testing.T) {
	ctx := context.Background()
	orchestrator, processor, _ := setupOrchestrator(t)

	charge, err := orchestrator.Charge(ctx, chargeRequest(10000, 10000))
	require.NoError(t, err)

	// Given: Still pending at the processor
	_, err = orchestrator.Confirm(ctx, charge.Reference)
	assert.ErrorIs(t, err, payment.ErrPaymentPending)

	// When: Processor resolves
	processor.Succeed(charge.Reference)
	intent, err := orchestrator.Confirm(ctx, charge.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSucceeded, intent.Status)
	assert.NotNil(t, intent.ConfirmedAt)

	// Then: A second confirm answers from the stored record
	lookups := processor.Lookups
	again, err := orchestrator.Confirm(ctx, charge.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSucceeded, again.Status)
	assert.Equal(t, lookups, processor.Lookups)
}

func TestConfirm_Failed(t *testing.T) {
	ctx := context.Background()
	orchestrator, processor, _ := setupOrchestrator(t)

	charge, err := orchestrator.Charge(ctx, chargeRequest(10000, 10000))
	require.NoError(t, err)
	processor.Fail(charge.Reference, "Insufficient funds.")

	_, err = orchestrator.Confirm(ctx, charge.Reference)
	var procErr *payment.ProcessorError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "Insufficient funds.", procErr.Message)

	stored, err := orchestrator.Intent(ctx, charge.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, stored.Status)
	require.NotNil(t, stored.FailureMessage)
	assert.Equal(t, "Insufficient funds.", *stored.FailureMessage)
}

func TestConfirm_RetryAfterDeclineSucceeds(t *testing.T) {
	ctx := context.Background()
	orchestrator, processor, _ := setupOrchestrator(t)

	charge, err := orchestrator.Charge(ctx, chargeRequest(10000, 10000))
	require.NoError(t, err)

	// Given: The first attempt was declined and recorded
	processor.Fail(charge.Reference, "Your card was declined.")
	_, err = orchestrator.Confirm(ctx, charge.Reference)
	require.ErrorIs(t, err, payment.ErrPaymentFailed)

	// When: The customer retries on the same intent and it goes through
	processor.Succeed(charge.Reference)
	lookups := processor.Lookups
	intent, err := orchestrator.Confirm(ctx, charge.Reference)

	// Then: The processor is asked again and the success is recorded
	require.NoError(t, err)
	assert.Equal(t, lookups+1, processor.Lookups)
	assert.Equal(t, model.PaymentSucceeded, intent.Status)
	assert.Nil(t, intent.FailureMessage)

	stored, err := orchestrator.Intent(ctx, charge.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSucceeded, stored.Status)
	assert.Nil(t, stored.FailureMessage)
	assert.NotNil(t, stored.ConfirmedAt)
}

func TestConfirm_CanceledIsFinal(t *testing.T) {
	ctx := context.Background()
	orchestrator, processor, _ := setupOrchestrator(t)

	charge, err := orchestrator.Charge(ctx, chargeRequest(10000, 10000))
	require.NoError(t, err)
	processor.Cancel(charge.Reference)

	_, err = orchestrator.Confirm(ctx, charge.Reference)
	var procErr *payment.ProcessorError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "payment_canceled", procErr.Code)

	// Then: A canceled intent is answered from the stored record
	processor.Succeed(charge.Reference)
	lookups := processor.Lookups
	_, err = orchestrator.Confirm(ctx, charge.Reference)
	assert.ErrorIs(t, err, payment.ErrPaymentFailed)
	assert.Equal(t, lookups, processor.Lookups)

	stored, err := orchestrator.Intent(ctx, charge.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCanceled, stored.Status)
}

func TestConfirm_UnknownReference(t *testing.T) {
	orchestrator, _, _ := setupOrchestrator(t)

	_, err := orchestrator.Confirm(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, payment.ErrIntentNotFound)
}

func TestParseWebhook_InvalidSignature(t *testing.T) {
	orchestrator, _, _ := setupOrchestrator(t)

	_, err := orchestrator.ParseWebhook([]byte("pi_test_1"), "forged")
	assert.ErrorIs(t, err, payment.ErrInvalidWebhook)

	event, err := orchestrator.ParseWebhook([]byte("pi_test_1"), "valid")
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1", event.Reference)
}
