package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/communitylink/membership-api/internal/fee"
	"github.com/communitylink/membership-api/internal/member"
	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/payment"
	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	"github.com/communitylink/membership-api/internal/shared/logger"
	"github.com/communitylink/membership-api/internal/shared/metrics"
)

// RegistrationService runs the public flow: validate, charge, then record the
// members once the processor confirms the payment.
type RegistrationService struct {
	validator    *Validator
	orchestrator *payment.Orchestrator
	lifecycle    *member.Lifecycle
}

func NewRegistrationService(validator *Validator, orchestrator *payment.Orchestrator, lifecycle *member.Lifecycle) *RegistrationService {
	return &RegistrationService{
		validator:    validator,
		orchestrator: orchestrator,
		lifecycle:    lifecycle,
	}
}

// CreateIntent validates the registration and opens a payment intent for the
// amount due now. No member exists until Complete succeeds.
func (s *RegistrationService) CreateIntent(ctx context.Context, req *RegistrationRequest) (*CreateIntentResponse, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		var verr *sharedError.ValidationError
		if errors.As(err, &verr) {
			metrics.Registrations.WithLabelValues("invalid").Inc()
			log.Warn("Registration rejected by validation", "fields", len(verr.Fields), "email", logger.MaskEmail(req.Email))
		}
		return nil, err
	}

	total := fee.Fee(req.MembershipCategory, req.MembershipType)
	var installment int64
	if req.PaymentType == model.PaymentInstallments {
		installment = fee.ToCents(*req.InstallmentAmount)
	}
	amount, remaining := fee.ChargeNow(total, req.PaymentType, installment)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode registration: %w", err)
	}

	charge, err := s.orchestrator.Charge(ctx, payment.ChargeRequest{
		Amount:           amount,
		MembershipFee:    total,
		RemainingBalance: remaining,
		Email:            normalizeEmail(req.Email),
		Registration:     payload,
		Metadata: map[string]string{
			"email":               normalizeEmail(req.Email),
			"membership_category": string(req.MembershipCategory),
			"membership_type":     string(req.MembershipType),
			"payment_type":        string(req.PaymentType),
			"family_members":      strconv.Itoa(len(req.FamilyMembers)),
		},
	})
	if err != nil {
		metrics.Registrations.WithLabelValues("charge_failed").Inc()
		return nil, err
	}

	metrics.Registrations.WithLabelValues("intent_created").Inc()
	attrs := []any{"reference", charge.Reference, "email", logger.MaskEmail(req.Email), "amount", charge.Amount}
	if req.DirectDebit != nil {
		attrs = append(attrs, "debit_account", logger.MaskAccountNumber(req.DirectDebit.AccountNumber))
	}
	log.Info("Registration intent created", attrs...)
	return &CreateIntentResponse{
		PaymentReference: charge.Reference,
		ClientSecret:     charge.ClientSecret,
		Amount:           fee.ToDollars(charge.Amount),
		Currency:         charge.Currency,
		MembershipFee:    fee.ToDollars(total),
		RemainingBalance: fee.ToDollars(charge.RemainingBalance),
	}, nil
}

// Complete confirms the payment and records the members. It only needs the
// payment reference, so a webhook or a retrying client can drive it.
func (s *RegistrationService) Complete(ctx context.Context, paymentReference string) (*CompleteResponse, error) {
	log := logger.FromContext(ctx)

	intent, err := s.orchestrator.Confirm(ctx, paymentReference)
	if err != nil {
		return nil, err
	}

	var req RegistrationRequest
	if err := json.Unmarshal([]byte(intent.Registration), &req); err != nil {
		log.Error("Stored registration unreadable", "reference", paymentReference, "error", err)
		return nil, fmt.Errorf("decode registration %s: %w", paymentReference, ErrRegistrationCorrupt)
	}

	intake, err := toIntake(&req, intent)
	if err != nil {
		log.Error("Stored registration invalid", "reference", paymentReference, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRegistrationCorrupt, err)
	}

	primary, err := s.lifecycle.Intake(ctx, intake, intent)
	if err != nil {
		metrics.Registrations.WithLabelValues("intake_failed").Inc()
		return nil, err
	}

	metrics.Registrations.WithLabelValues("completed").Inc()
	return &CompleteResponse{
		ReferenceNo:   primary.ReferenceNo,
		Status:        primary.Status,
		Email:         primary.Email,
		FamilyMembers: len(req.FamilyMembers),
	}, nil
}

// HandleWebhook completes registrations from processor callbacks. Outcomes the
// processor cannot act on are logged and acknowledged.
func (s *RegistrationService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	log := logger.FromContext(ctx)

	event, err := s.orchestrator.ParseWebhook(payload, signature)
	if err != nil {
		log.Warn("Webhook rejected", "error", err)
		return err
	}
	if event == nil {
		return nil
	}

	_, err = s.Complete(ctx, event.Reference)
	switch {
	case err == nil:
		log.Info("Registration completed from webhook", "event", event.Type, "reference", event.Reference)
		return nil
	case errors.Is(err, payment.ErrPaymentFailed),
		errors.Is(err, payment.ErrPaymentPending),
		errors.Is(err, payment.ErrIntentNotFound),
		errors.Is(err, member.ErrDuplicateEmail),
		errors.Is(err, ErrRegistrationCorrupt):
		log.Warn("Webhook acknowledged without intake", "event", event.Type, "reference", event.Reference, "error", err)
		return nil
	default:
		return err
	}
}

func toIntake(req *RegistrationRequest, intent *model.PaymentIntent) (member.IntakeRequest, error) {
	primary, err := toApplicant(req.FirstName, req.LastName, req.Email, req.PhoneNumber, req.DateOfBirth, req.Address)
	if err != nil {
		return member.IntakeRequest{}, err
	}

	intake := member.IntakeRequest{
		Primary:       primary,
		Category:      req.MembershipCategory,
		Type:          req.MembershipType,
		PaymentType:   req.PaymentType,
		MembershipFee: intent.MembershipFee,
	}

	for _, fm := range req.FamilyMembers {
		applicant, err := toApplicant(fm.FirstName, fm.LastName, fm.Email, fm.PhoneNumber, fm.DateOfBirth, req.Address)
		if err != nil {
			return member.IntakeRequest{}, err
		}
		intake.Family = append(intake.Family, member.FamilyApplicant{Applicant: applicant, Relationship: fm.Relationship})
	}

	if req.PaymentType == model.PaymentInstallments && req.InstallmentAmount != nil {
		installment := intent.MembershipFee - intent.RemainingBalance
		intake.InstallmentAmount = &installment
		if dd := req.DirectDebit; dd != nil {
			intake.Mandate = model.DirectDebitMandate{
				AccountName:     &dd.AccountName,
				BSB:             &dd.BSB,
				AccountNumber:   &dd.AccountNumber,
				AuthorityAccept: &dd.AuthorityAccepted,
			}
		}
	}
	return intake, nil
}

func toApplicant(first, last, email, phone, dob, address string) (member.Applicant, error) {
	born, err := time.Parse(dateLayout, dob)
	if err != nil {
		return member.Applicant{}, fmt.Errorf("date of birth %q: %w", dob, err)
	}
	return member.Applicant{
		FirstName:   first,
		LastName:    last,
		Email:       email,
		PhoneNumber: phone,
		DateOfBirth: born,
		Address:     address,
	}, nil
}
