package registration

import (
	"github.com/communitylink/membership-api/internal/model"
)

// RegistrationRequest is the public membership application. Amounts are in dollars.
// Field rules run through the standalone validator in Validator, not gin binding,
// so they merge with the rules that need the directory.
type RegistrationRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=255"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Address     string `json:"address" validate:"required,max=255"`

	MembershipCategory model.MembershipCategory `json:"membershipCategory" validate:"required,oneof=general life"`
	MembershipType     model.MembershipType     `json:"membershipType" validate:"required,oneof=single family"`
	PaymentType        model.PaymentType        `json:"paymentType" validate:"required,oneof=upfront installments"`
	InstallmentAmount  *float64                 `json:"installmentAmount,omitempty"`
	DirectDebit        *DirectDebitRequest      `json:"directDebit,omitempty"`

	FamilyMembers []FamilyMemberRequest `json:"familyMembers,omitempty" validate:"omitempty,dive"`

	DeclarationAccepted bool `json:"declarationAccepted"`
}

type FamilyMemberRequest struct {
	FirstName    string             `json:"firstName" validate:"required,max=100"`
	LastName     string             `json:"lastName" validate:"required,max=100"`
	Email        string             `json:"email" validate:"required,email,max=255"`
	PhoneNumber  string             `json:"phoneNumber" validate:"omitempty,phone"`
	DateOfBirth  string             `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Relationship model.Relationship `json:"relationship" validate:"required,oneof=spouse child parent sibling"`
}

// DirectDebitRequest is the bank authority for the installment remainder
type DirectDebitRequest struct {
	AccountName       string `json:"accountName" validate:"required,max=150"`
	BSB               string `json:"bsb" validate:"required,bsb"`
	AccountNumber     string `json:"accountNumber" validate:"required,accountnumber"`
	AuthorityAccepted bool   `json:"authorityAccepted"`
}

type CreateIntentResponse struct {
	PaymentReference string  `json:"paymentReference"`
	ClientSecret     string  `json:"clientSecret"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	MembershipFee    float64 `json:"membershipFee"`
	RemainingBalance float64 `json:"remainingBalance"`
}

type CompleteRequest struct {
	PaymentReference string `json:"paymentReference" binding:"required"`
}

type CompleteResponse struct {
	ReferenceNo   string             `json:"referenceNo"`
	Status        model.MemberStatus `json:"status"`
	Email         string             `json:"email"`
	FamilyMembers int                `json:"familyMembers"`
}
