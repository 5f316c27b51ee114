package validator

import (
	"errors"
	"fmt"
	"strings"

	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	"github.com/go-playground/validator/v10"
)

// ToErrorResponse converts gin binding/validator errors into a standardized response.
func ToErrorResponse(err error) (*sharedError.ErrorResponse, bool) {
	validationErr, ok := ToValidationError(err)
	if !ok {
		return nil, false
	}

	resp := sharedError.ValidationFailed
	resp.Fields = validationErr.Fields
	return &resp, true
}

// ToValidationError converts validator errors into a field-keyed ValidationError.
// Field keys are json paths relative to the validated struct, e.g. familyMembers[0].email.
func ToValidationError(err error) (*sharedError.ValidationError, bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, false
	}

	if len(validationErrors) == 0 {
		return nil, false
	}

	out := sharedError.NewValidationError()
	for _, fe := range validationErrors {
		out.Add(fieldPath(fe), getErrorMessage(fe))
	}
	return out, true
}

// fieldPath strips the top-level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// getErrorMessage returns user-friendly error message for validation error
func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "This field is required."
	case "email":
		return "Email address is not valid."
	case "min":
		return fmt.Sprintf("Must be at least %s.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	case "datetime":
		return fmt.Sprintf("Date must use the format %s.", fe.Param())
	case "phone":
		return "Phone number is not valid."
	case "bsb":
		return "BSB must be 6 digits (XXX-XXX)."
	case "accountnumber":
		return "Account number must be 6 to 10 digits."
	case "eq":
		return fmt.Sprintf("Must be %s.", fe.Param())
	default:
		return fmt.Sprintf("'%s' is not valid.", fe.Field())
	}
}
