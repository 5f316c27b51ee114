package member

import (
	"errors"
	"net/http"

	sharedError "github.com/communitylink/membership-api/internal/shared/error"
)

const (
	memberNotFound      = "MEMBER_NOT_FOUND"       // errInfo
	duplicateEmail      = "MEMBER_DUPLICATE_EMAIL" // errInfo
	transitionConflict  = "MEMBER_CONFLICT"        // errInfo
	invalidTransition   = "MEMBER_PRECONDITION"    // errInfo
	passwordRequired    = "MEMBER_PASSWORD_REQ"    // errInfo
	memberInactive      = "MEMBER_INACTIVE"        // errInfo
	paymentNotConfirmed = "MEMBER_PAYMENT_PENDING" // errInfo
)

var (
	ErrMemberNotFound = sharedError.NewDomainError(memberNotFound)
	// ErrDuplicateEmail is raised by the directory's unique index, even after validation passed.
	ErrDuplicateEmail = sharedError.NewDomainError(duplicateEmail)
	// ErrConflict means the member changed between read and conditional write; re-fetch before retrying.
	ErrConflict = sharedError.NewDomainError(transitionConflict)
	// ErrPrecondition means the current state does not permit the transition.
	ErrPrecondition     = sharedError.NewDomainError(invalidTransition)
	ErrPasswordRequired = sharedError.NewDomainError(passwordRequired)
	ErrMemberInactive   = sharedError.NewDomainError(memberInactive)
	// ErrPaymentNotConfirmed guards intake against unconfirmed payments.
	ErrPaymentNotConfirmed = sharedError.NewDomainError(paymentNotConfirmed)

	// errDuplicateKey is any unique index violation on insert; intake decides what it means.
	errDuplicateKey = errors.New("member: duplicate key")
)

func init() {
	sharedError.RegisterDomainErrorResponse(memberNotFound, sharedError.ErrorResponse{
		Status:  http.StatusNotFound,
		Code:    "MEMBER-001",
		Message: "Member not found.",
	})

	sharedError.RegisterDomainErrorResponse(duplicateEmail, sharedError.ErrorResponse{
		Status:  http.StatusConflict,
		Code:    "MEMBER-002",
		Message: "A member with this email is already registered.",
	})

	sharedError.RegisterDomainErrorResponse(transitionConflict, sharedError.ErrorResponse{
		Status:  http.StatusConflict,
		Code:    "MEMBER-003",
		Message: "The member was changed by another request. Reload and try again.",
	})

	sharedError.RegisterDomainErrorResponse(invalidTransition, sharedError.ErrorResponse{
		Status:  http.StatusUnprocessableEntity,
		Code:    "MEMBER-004",
		Message: "This action is not allowed in the member's current state.",
	})

	sharedError.RegisterDomainErrorResponse(passwordRequired, sharedError.ErrorResponse{
		Status:  http.StatusUnprocessableEntity,
		Code:    "MEMBER-005",
		Message: "A password is required to create the member's login account.",
	})

	sharedError.RegisterDomainErrorResponse(memberInactive, sharedError.ErrorResponse{
		Status:  http.StatusForbidden,
		Code:    "MEMBER-006",
		Message: "Portal access requires an active membership.",
	})

	sharedError.RegisterDomainErrorResponse(paymentNotConfirmed, sharedError.ErrorResponse{
		Status:  http.StatusConflict,
		Code:    "MEMBER-007",
		Message: "The payment for this registration has not been confirmed.",
	})
}
