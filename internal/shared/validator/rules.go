package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// phoneRegex accepts local and international formats
	// e.g. 0412 345 678, +61 412 345 678, 02 9876-5432
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{7,19}$`)

	// bsbRegex matches a 6 digit bank-state-branch code, optionally split 3-3
	bsbRegex = regexp.MustCompile(`^[0-9]{3}-?[0-9]{3}$`)

	accountNumberRegex = regexp.MustCompile(`^[0-9]{6,10}$`)
)

// ValidatePhone validates a phone number
// This is a common validator used across multiple domains
func ValidatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

// ValidateBSB validates the routing identifier of a direct-debit mandate
func ValidateBSB(fl validator.FieldLevel) bool {
	return bsbRegex.MatchString(fl.Field().String())
}

// ValidateAccountNumber validates a 6-10 digit bank account number
func ValidateAccountNumber(fl validator.FieldLevel) bool {
	return accountNumberRegex.MatchString(fl.Field().String())
}
