package registration_test

import (
	"context"
	"testing"
	"time"

	"github.com/communitylink/membership-api/internal/member"
	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/registration"
	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	"github.com/communitylink/membership-api/internal/shared/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var today = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newValidator(t *testing.T) (*registration.Validator, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t)
	v, err := registration.NewValidator(db, member.NewDirectory())
	require.NoError(t, err)
	return v.WithClock(func() time.Time { return today }), db
}

func validRequest() *registration.RegistrationRequest {
	return &registration.RegistrationRequest{
		FirstName:           "Jane",
		LastName:            "Doe",
		Email:               "jane@example.com",
		PhoneNumber:         "0412 345 678",
		DateOfBirth:         "1985-06-30",
		Address:             "1 Main St, Springfield",
		MembershipCategory:  model.CategoryGeneral,
		MembershipType:      model.TypeSingle,
		PaymentType:         model.PaymentUpfront,
		DeclarationAccepted: true,
	}
}

func familyMember(first, email, relationship string) registration.FamilyMemberRequest {
	return registration.FamilyMemberRequest{
		FirstName:    first,
		LastName:     "Doe",
		Email:        email,
		DateOfBirth:  "1987-01-15",
		Relationship: model.Relationship(relationship),
	}
}

func installmentRequest(amount float64) *registration.RegistrationRequest {
	req := validRequest()
	req.MembershipCategory = model.CategoryLife
	req.PaymentType = model.PaymentInstallments
	req.InstallmentAmount = &amount
	req.DirectDebit = &registration.DirectDebitRequest{
		AccountName:       "J Doe",
		BSB:               "062-000",
		AccountNumber:     "12345678",
		AuthorityAccepted: true,
	}
	return req
}

// fieldsOf asserts validation failed and returns the field map
func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *sharedError.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestValidate_ValidRequests(t *testing.T) {
	v, _ := newValidator(t)

	family := validRequest()
	family.MembershipType = model.TypeFamily
	family.FamilyMembers = []registration.FamilyMemberRequest{
		familyMember("John", "john@example.com", "spouse"),
		familyMember("Amy", "amy@example.com", "child"),
	}

	for name, req := range map[string]*registration.RegistrationRequest{
		"general single":    validRequest(),
		"general family":    family,
		"life installments": installmentRequest(300),
	} {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, v.Validate(context.Background(), req))
		})
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	v, _ := newValidator(t)

	err := v.Validate(context.Background(), &registration.RegistrationRequest{})

	fields := fieldsOf(t, err)
	for _, field := range []string{
		"firstName", "lastName", "email", "phoneNumber", "dateOfBirth", "address",
		"membershipCategory", "membershipType", "paymentType", "declarationAccepted",
	} {
		assert.Contains(t, fields, field)
	}
}

func TestValidate_Age(t *testing.T) {
	v, _ := newValidator(t)

	// Turns 18 tomorrow
	req := validRequest()
	req.DateOfBirth = "2008-03-02"
	fields := fieldsOf(t, v.Validate(context.Background(), req))
	assert.Contains(t, fields, "dateOfBirth")

	// Turns 18 today
	req.DateOfBirth = "2008-03-01"
	assert.NoError(t, v.Validate(context.Background(), req))

	// Each family member is checked on their own
	req.MembershipType = model.TypeFamily
	minor := familyMember("Kid", "kid@example.com", "child")
	minor.DateOfBirth = "2015-01-01"
	req.FamilyMembers = []registration.FamilyMemberRequest{familyMember("John", "john@example.com", "spouse"), minor}
	fields = fieldsOf(t, v.Validate(context.Background(), req))
	assert.Contains(t, fields, "familyMembers[1].dateOfBirth")
	assert.NotContains(t, fields, "familyMembers[0].dateOfBirth")
}

func TestValidate_FamilyRules(t *testing.T) {
	v, _ := newValidator(t)

	testCases := []struct {
		name    string
		members []registration.FamilyMemberRequest
		field   string
	}{
		{
			name:  "no family members",
			field: "familyMembers",
		},
		{
			name: "more than three",
			members: []registration.FamilyMemberRequest{
				familyMember("A", "a@example.com", "child"),
				familyMember("B", "b@example.com", "child"),
				familyMember("C", "c@example.com", "child"),
				familyMember("D", "d@example.com", "child"),
			},
			field: "familyMembers",
		},
		{
			name: "duplicate family email",
			members: []registration.FamilyMemberRequest{
				familyMember("A", "a@example.com", "child"),
				familyMember("B", "A@example.com", "child"),
			},
			field: "familyMembers[1].email",
		},
		{
			name: "same email as primary",
			members: []registration.FamilyMemberRequest{
				familyMember("A", "jane@example.com", "spouse"),
			},
			field: "familyMembers[0].email",
		},
		{
			name: "unknown relationship",
			members: []registration.FamilyMemberRequest{
				familyMember("A", "a@example.com", "cousin"),
			},
			field: "familyMembers[0].relationship",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			req.MembershipType = model.TypeFamily
			req.FamilyMembers = tc.members

			fields := fieldsOf(t, v.Validate(context.Background(), req))
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestValidate_InstallmentRules(t *testing.T) {
	v, _ := newValidator(t)

	// Below the minimum
	fields := fieldsOf(t, v.Validate(context.Background(), installmentRequest(299.99)))
	assert.Contains(t, fields, "installmentAmount")

	// Equal to the full fee
	fields = fieldsOf(t, v.Validate(context.Background(), installmentRequest(1000)))
	assert.Contains(t, fields, "installmentAmount")

	// Just under the fee
	assert.NoError(t, v.Validate(context.Background(), installmentRequest(999.99)))

	// Missing amount
	req := installmentRequest(300)
	req.InstallmentAmount = nil
	fields = fieldsOf(t, v.Validate(context.Background(), req))
	assert.Contains(t, fields, "installmentAmount")

	// Mandate problems
	req = installmentRequest(300)
	req.DirectDebit.BSB = "12-345"
	req.DirectDebit.AccountNumber = "12345"
	req.DirectDebit.AccountName = ""
	req.DirectDebit.AuthorityAccepted = false
	fields = fieldsOf(t, v.Validate(context.Background(), req))
	assert.Contains(t, fields, "directDebit.bsb")
	assert.Contains(t, fields, "directDebit.accountNumber")
	assert.Contains(t, fields, "directDebit.accountName")
	assert.Contains(t, fields, "directDebit.authorityAccepted")

	req = installmentRequest(300)
	req.DirectDebit = nil
	fields = fieldsOf(t, v.Validate(context.Background(), req))
	assert.Contains(t, fields, "directDebit")

	// General memberships are paid upfront
	req = installmentRequest(50)
	req.MembershipCategory = model.CategoryGeneral
	fields = fieldsOf(t, v.Validate(context.Background(), req))
	assert.Contains(t, fields, "paymentType")
}

func TestValidate_EmailAlreadyRegistered(t *testing.T) {
	v, db := newValidator(t)

	existing := &model.Member{
		ReferenceNo:         "CM-00000001",
		Email:               "john@example.com",
		FirstName:           "John",
		LastName:            "Doe",
		DateOfBirth:         time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		Category:            model.CategoryGeneral,
		Type:                model.TypeSingle,
		PaymentType:         model.PaymentUpfront,
		PaymentStatus:       model.PaymentSucceeded,
		Status:              model.StatusActive,
		MembershipStartDate: today,
		BadgeTaken:          model.BadgeNo,
		IsPrimaryMember:     true,
	}
	require.NoError(t, member.NewDirectory().Create(context.Background(), db, existing))

	// Primary scope
	req := validRequest()
	req.Email = "John@Example.com"
	fields := fieldsOf(t, v.Validate(context.Background(), req))
	assert.Contains(t, fields, "email")

	// Family scope
	req = validRequest()
	req.MembershipType = model.TypeFamily
	req.FamilyMembers = []registration.FamilyMemberRequest{familyMember("John", "john@example.com", "spouse")}
	fields = fieldsOf(t, v.Validate(context.Background(), req))
	assert.Contains(t, fields, "familyMembers[0].email")
	assert.NotContains(t, fields, "email")
}

func TestValidate_DeclarationAndFormats(t *testing.T) {
	v, _ := newValidator(t)

	req := validRequest()
	req.DeclarationAccepted = false
	req.Email = "not-an-email"
	req.PhoneNumber = "12"
	req.DateOfBirth = "30/06/1985"

	fields := fieldsOf(t, v.Validate(context.Background(), req))
	assert.Contains(t, fields, "declarationAccepted")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phoneNumber")
	assert.Contains(t, fields, "dateOfBirth")
}
