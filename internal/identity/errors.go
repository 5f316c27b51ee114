package identity

import (
	"net/http"

	sharedError "github.com/communitylink/membership-api/internal/shared/error"
)

const (
	accountExists      = "IDENTITY_ACCOUNT_EXISTS"      // errInfo
	accountNotFound    = "IDENTITY_ACCOUNT_NOT_FOUND"   // errInfo
	accountDisabled    = "IDENTITY_ACCOUNT_DISABLED"    // errInfo
	invalidCredentials = "IDENTITY_INVALID_CREDENTIALS" // errInfo
	unavailable        = "IDENTITY_UNAVAILABLE"         // errInfo
)

var (
	ErrAccountExists      = sharedError.NewDomainError(accountExists)
	ErrAccountNotFound    = sharedError.NewDomainError(accountNotFound)
	ErrAccountDisabled    = sharedError.NewDomainError(accountDisabled)
	ErrInvalidCredentials = sharedError.NewDomainError(invalidCredentials)
	ErrUnavailable        = sharedError.NewDomainError(unavailable)
)

func init() {
	sharedError.RegisterDomainErrorResponse(accountExists, sharedError.ErrorResponse{
		Status:  http.StatusConflict,
		Code:    "IDP-001",
		Message: "A login account already exists for this email.",
	})

	sharedError.RegisterDomainErrorResponse(accountNotFound, sharedError.ErrorResponse{
		Status:  http.StatusNotFound,
		Code:    "IDP-002",
		Message: "Login account not found.",
	})

	sharedError.RegisterDomainErrorResponse(accountDisabled, sharedError.ErrorResponse{
		Status:  http.StatusForbidden,
		Code:    "IDP-003",
		Message: "This login account is disabled.",
	})

	sharedError.RegisterDomainErrorResponse(invalidCredentials, sharedError.ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    "IDP-004",
		Message: "Email or password is incorrect.",
	})

	sharedError.RegisterDomainErrorResponse(unavailable, sharedError.ErrorResponse{
		Status:  http.StatusBadGateway,
		Code:    "IDP-005",
		Message: "The identity provider is unavailable. Please retry.",
	})
}
