package registration

import (
	"net/http"

	sharedError "github.com/communitylink/membership-api/internal/shared/error"
)

const (
	registrationCorrupt = "REGISTRATION_CORRUPT" // errInfo
)

// ErrRegistrationCorrupt means the payload stored with a payment intent cannot be read back.
var ErrRegistrationCorrupt = sharedError.NewDomainError(registrationCorrupt)

func init() {
	sharedError.RegisterDomainErrorResponse(registrationCorrupt, sharedError.ErrorResponse{
		Status:  http.StatusInternalServerError,
		Code:    "REG-001",
		Message: "The registration for this payment could not be read. Please contact the office.",
	})
}
