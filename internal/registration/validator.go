package registration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/communitylink/membership-api/internal/fee"
	"github.com/communitylink/membership-api/internal/member"
	"github.com/communitylink/membership-api/internal/model"
	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	sharedValidator "github.com/communitylink/membership-api/internal/shared/validator"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	minimumAge       = 18
	maxFamilyMembers = 3
	dateLayout       = time.DateOnly
)

// Validator checks a registration before any money moves. It only reads.
type Validator struct {
	db        *gorm.DB
	directory *member.Directory
	validate  *validator.Validate
	now       func() time.Time
}

func NewValidator(db *gorm.DB, directory *member.Directory) (*Validator, error) {
	v, err := sharedValidator.New()
	if err != nil {
		return nil, fmt.Errorf("registration validator: %w", err)
	}
	return &Validator{
		db:        db,
		directory: directory,
		validate:  v,
		now:       time.Now,
	}, nil
}

// WithClock replaces the clock used for age checks.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate returns a *sharedError.ValidationError listing every failed field,
// or another error when the directory could not be consulted.
func (v *Validator) Validate(ctx context.Context, req *RegistrationRequest) error {
	errs := sharedError.NewValidationError()

	if err := v.validate.StructCtx(ctx, req); err != nil {
		fieldErrs, ok := sharedValidator.ToValidationError(err)
		if !ok {
			return fmt.Errorf("validate registration: %w", err)
		}
		for field, msg := range fieldErrs.Fields {
			errs.Add(field, msg)
		}
	}

	today := v.now().UTC()
	checkAge(errs, "dateOfBirth", req.DateOfBirth, today)
	for i, fm := range req.FamilyMembers {
		checkAge(errs, familyField(i, "dateOfBirth"), fm.DateOfBirth, today)
	}

	v.checkFamily(errs, req)
	checkPayment(errs, req)

	if !req.DeclarationAccepted {
		errs.Add("declarationAccepted", "The declaration must be accepted.")
	}

	if err := v.checkEmailsAvailable(ctx, errs, req); err != nil {
		return err
	}

	return errs.OrNil()
}

func (v *Validator) checkFamily(errs *sharedError.ValidationError, req *RegistrationRequest) {
	if req.MembershipType != model.TypeFamily {
		if len(req.FamilyMembers) > 0 {
			errs.Add("familyMembers", "Family members are only accepted on a family membership.")
		}
		return
	}

	if n := len(req.FamilyMembers); n < 1 || n > maxFamilyMembers {
		errs.Add("familyMembers", fmt.Sprintf("A family membership needs between 1 and %d family members.", maxFamilyMembers))
	}

	primary := normalizeEmail(req.Email)
	seen := make(map[string]int, len(req.FamilyMembers))
	for i, fm := range req.FamilyMembers {
		email := normalizeEmail(fm.Email)
		if email == "" {
			continue
		}
		if email == primary {
			errs.Add(familyField(i, "email"), "Must differ from the primary member's email.")
			continue
		}
		if first, dup := seen[email]; dup {
			errs.Add(familyField(i, "email"), fmt.Sprintf("Duplicates family member %d.", first+1))
			continue
		}
		seen[email] = i
	}
}

func checkPayment(errs *sharedError.ValidationError, req *RegistrationRequest) {
	if req.PaymentType != model.PaymentInstallments {
		return
	}
	if req.MembershipCategory != model.CategoryLife {
		if req.MembershipCategory.Valid() {
			errs.Add("paymentType", "Installments are only available for life memberships.")
		}
		return
	}
	if !req.MembershipType.Valid() {
		return
	}

	total := fee.Fee(req.MembershipCategory, req.MembershipType)
	switch {
	case req.InstallmentAmount == nil:
		errs.Add("installmentAmount", "This field is required.")
	default:
		amount := fee.ToCents(*req.InstallmentAmount)
		if amount < fee.MinimumInstallment {
			errs.Add("installmentAmount", fmt.Sprintf("Must be at least %.2f.", fee.ToDollars(fee.MinimumInstallment)))
		} else if amount >= total {
			errs.Add("installmentAmount", fmt.Sprintf("Must be less than the membership fee of %.2f.", fee.ToDollars(total)))
		}
	}

	switch {
	case req.DirectDebit == nil:
		errs.Add("directDebit", "A direct debit authority is required for installments.")
	case !req.DirectDebit.AuthorityAccepted:
		errs.Add("directDebit.authorityAccepted", "The direct debit authority must be accepted.")
	}
}

// checkEmailsAvailable is a best-effort pre-check; the directory's unique
// index still decides at intake.
func (v *Validator) checkEmailsAvailable(ctx context.Context, errs *sharedError.ValidationError, req *RegistrationRequest) error {
	fields := map[string]string{}
	if _, failed := errs.Fields["email"]; !failed && req.Email != "" {
		fields[normalizeEmail(req.Email)] = "email"
	}
	for i, fm := range req.FamilyMembers {
		field := familyField(i, "email")
		email := normalizeEmail(fm.Email)
		if _, failed := errs.Fields[field]; failed || email == "" {
			continue
		}
		if _, taken := fields[email]; !taken {
			fields[email] = field
		}
	}
	if len(fields) == 0 {
		return nil
	}

	emails := make([]string, 0, len(fields))
	for email := range fields {
		emails = append(emails, email)
	}
	taken, err := v.directory.EmailsTaken(ctx, v.db, emails)
	if err != nil {
		return fmt.Errorf("check registered emails: %w", err)
	}
	for _, email := range taken {
		errs.Add(fields[email], "This email is already registered.")
	}
	return nil
}

// checkAge skips values the struct rules already rejected.
func checkAge(errs *sharedError.ValidationError, field, value string, today time.Time) {
	if _, failed := errs.Fields[field]; failed || value == "" {
		return
	}
	dob, err := time.Parse(dateLayout, value)
	if err != nil {
		return
	}
	if ageOn(dob, today) < minimumAge {
		errs.Add(field, fmt.Sprintf("Must be at least %d years old.", minimumAge))
	}
}

func ageOn(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

func familyField(i int, name string) string {
	return fmt.Sprintf("familyMembers[%d].%s", i, name)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
