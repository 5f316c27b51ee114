package payment

import (
	"net/http"

	sharedError "github.com/communitylink/membership-api/internal/shared/error"
)

const (
	paymentFailed        = "PAYMENT_FAILED"           // errInfo
	paymentPending       = "PAYMENT_PENDING"          // errInfo
	processorUnavailable = "PAYMENT_PROCESSOR_DOWN"   // errInfo
	intentNotFound       = "PAYMENT_INTENT_NOT_FOUND" // errInfo
	invalidWebhook       = "PAYMENT_INVALID_WEBHOOK"  // errInfo
	invalidChargeAmount  = "PAYMENT_INVALID_AMOUNT"   // errInfo
)

const defaultFailureMessage = "The payment was not completed."

var (
	ErrPaymentFailed        = sharedError.NewDomainError(paymentFailed)
	ErrPaymentPending       = sharedError.NewDomainError(paymentPending)
	ErrProcessorUnavailable = sharedError.NewDomainError(processorUnavailable)
	ErrIntentNotFound       = sharedError.NewDomainError(intentNotFound)
	ErrInvalidWebhook       = sharedError.NewDomainError(invalidWebhook)
	ErrInvalidChargeAmount  = sharedError.NewDomainError(invalidChargeAmount)
)

// ProcessorError is a processor-side failure such as a declined card.
// Message is the processor's own text and is shown to the caller unchanged.
type ProcessorError struct {
	Code    string
	Message string
}

func (e *ProcessorError) Error() string {
	if e.Code != "" {
		return "payment processor: " + e.Code + ": " + e.Message
	}
	return "payment processor: " + e.Message
}

func (e *ProcessorError) Info() string {
	return paymentFailed
}

// Is lets errors.Is(err, ErrPaymentFailed) match processor failures.
func (e *ProcessorError) Is(target error) bool {
	return target == ErrPaymentFailed
}

func init() {
	sharedError.RegisterDomainErrorResponse(paymentFailed, sharedError.ErrorResponse{
		Status:  http.StatusPaymentRequired,
		Code:    "PAY-001",
		Message: defaultFailureMessage,
	})

	sharedError.RegisterDomainErrorResponse(paymentPending, sharedError.ErrorResponse{
		Status:  http.StatusConflict,
		Code:    "PAY-002",
		Message: "The payment has not been confirmed yet.",
	})

	sharedError.RegisterDomainErrorResponse(processorUnavailable, sharedError.ErrorResponse{
		Status:  http.StatusBadGateway,
		Code:    "PAY-003",
		Message: "The payment processor is unavailable. Please retry.",
	})

	sharedError.RegisterDomainErrorResponse(intentNotFound, sharedError.ErrorResponse{
		Status:  http.StatusNotFound,
		Code:    "PAY-004",
		Message: "Payment not found.",
	})

	sharedError.RegisterDomainErrorResponse(invalidWebhook, sharedError.ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    "PAY-005",
		Message: "Webhook signature verification failed.",
	})

	sharedError.RegisterDomainErrorResponse(invalidChargeAmount, sharedError.ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    "PAY-006",
		Message: "Charge amount must be positive.",
	})
}
