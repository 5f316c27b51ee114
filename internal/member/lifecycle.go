package member

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/communitylink/membership-api/internal/identity"
	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/notify"
	"github.com/communitylink/membership-api/internal/shared/database"
	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	"github.com/communitylink/membership-api/internal/shared/logger"
	"github.com/communitylink/membership-api/internal/shared/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transition names reported in logs and metrics
const (
	TransitionIntake      = "intake"
	TransitionApprove     = "approve"
	TransitionReject      = "reject"
	TransitionSuspend     = "suspend"
	TransitionReactivate  = "reactivate"
	TransitionRenew       = "renew"
	TransitionExpire      = "expire"
	TransitionInstallment = "installment"
	TransitionBadge       = "badge"
)

// SystemActor is recorded when no administrator triggered a transition.
const SystemActor = "system"

// Term is the length of one general membership period, a fixed 365 days
// regardless of leap years.
const Term = 365 * 24 * time.Hour

const expireBatchSize = 100

// Applicant is a person captured by a registration.
type Applicant struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	DateOfBirth time.Time
	Address     string
}

type FamilyApplicant struct {
	Applicant
	Relationship model.Relationship
}

// IntakeRequest is a validated registration whose payment has been collected.
type IntakeRequest struct {
	Primary           Applicant
	Family            []FamilyApplicant
	Category          model.MembershipCategory
	Type              model.MembershipType
	PaymentType       model.PaymentType
	MembershipFee     int64
	InstallmentAmount *int64
	Mandate           model.DirectDebitMandate
}

// Lifecycle drives every member status transition. Each transition is a
// conditional write on the expected prior status, so concurrent transitions
// on one member never both succeed.
type Lifecycle struct {
	db        *gorm.DB
	directory *Directory
	identity  identity.Provider
	notifier  notify.Notifier
	now       func() time.Time
}

func NewLifecycle(db *gorm.DB, directory *Directory, provider identity.Provider, notifier notify.Notifier) *Lifecycle {
	return &Lifecycle{
		db:        db,
		directory: directory,
		identity:  provider,
		notifier:  notifier,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for timestamps and expiry checks.
func (l *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	l.now = now
	return l
}

func (l *Lifecycle) clock() time.Time {
	return l.now().UTC()
}

// Intake persists the primary member and any family members for a confirmed
// payment. Repeating it for the same payment returns the existing primary.
func (l *Lifecycle) Intake(ctx context.Context, req IntakeRequest, intent *model.PaymentIntent) (member *model.Member, err error) {
	log := logger.FromContext(ctx)
	defer func() { observe(TransitionIntake, err) }()

	if intent == nil || intent.Status != model.PaymentSucceeded {
		return nil, fmt.Errorf("intake: %w", ErrPaymentNotConfirmed)
	}

	existing, err := l.directory.FindByPaymentReference(ctx, l.db, intent.Reference)
	if err == nil {
		log.Info("Intake already recorded", "reference_no", existing.ReferenceNo, "payment_reference", intent.Reference)
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find by payment reference: %w", err)
	}

	now := l.clock()
	primary := l.newPrimary(req, intent.Reference, now)
	family := make([]*model.Member, 0, len(req.Family))
	for _, applicant := range req.Family {
		family = append(family, newFamilyMember(primary, applicant))
	}

	err = database.WithTransaction(ctx, l.db, func(tx *gorm.DB) error {
		if err := l.directory.Create(ctx, tx, primary); err != nil {
			return fmt.Errorf("create primary member: %w", err)
		}
		for _, m := range family {
			if err := l.directory.Create(ctx, tx, m); err != nil {
				return fmt.Errorf("create family member: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errDuplicateKey) {
			return l.resolveDuplicate(ctx, req, intent.Reference, err)
		}
		log.Error("Failed to record members", "payment_reference", intent.Reference, "error", err)
		return nil, err
	}

	log.Info("Members recorded",
		"reference_no", primary.ReferenceNo,
		"email", logger.MaskEmail(primary.Email),
		"family", len(family),
	)
	return primary, nil
}

// resolveDuplicate runs after the failed transaction rolled back. A concurrent
// intake for the same payment wins; otherwise an email collided.
func (l *Lifecycle) resolveDuplicate(ctx context.Context, req IntakeRequest, paymentRef string, cause error) (*model.Member, error) {
	if existing, err := l.directory.FindByPaymentReference(ctx, l.db, paymentRef); err == nil {
		logger.FromContext(ctx).Info("Intake recorded concurrently", "reference_no", existing.ReferenceNo)
		return existing, nil
	}

	emails := []string{normalizeEmail(req.Primary.Email)}
	for _, f := range req.Family {
		emails = append(emails, normalizeEmail(f.Email))
	}
	taken, err := l.directory.EmailsTaken(ctx, l.db, emails)
	if err != nil {
		return nil, fmt.Errorf("check taken emails: %w", err)
	}
	if len(taken) > 0 {
		logger.FromContext(ctx).Warn("Intake rejected - email already registered", "count", len(taken))
		return nil, fmt.Errorf("emails=%s: %w", logger.MaskEmail(taken[0]), ErrDuplicateEmail)
	}
	return nil, cause
}

func (l *Lifecycle) newPrimary(req IntakeRequest, paymentRef string, now time.Time) *model.Member {
	ref := paymentRef
	member := &model.Member{
		ReferenceNo:            newReferenceNo(),
		Email:                  normalizeEmail(req.Primary.Email),
		FirstName:              strings.TrimSpace(req.Primary.FirstName),
		LastName:               strings.TrimSpace(req.Primary.LastName),
		PhoneNumber:            strings.TrimSpace(req.Primary.PhoneNumber),
		DateOfBirth:            req.Primary.DateOfBirth,
		Address:                strings.TrimSpace(req.Primary.Address),
		Category:               req.Category,
		Type:                   req.Type,
		MembershipFee:          req.MembershipFee,
		PaymentType:            req.PaymentType,
		PaymentStatus:          model.PaymentSucceeded,
		PaymentIntentReference: &ref,
		Status:                 model.StatusPendingApproval,
		MembershipStartDate:    now,
		BadgeTaken:             model.BadgeNo,
		IsPrimaryMember:        true,
	}
	if req.Category == model.CategoryGeneral {
		expiry := now.Add(Term)
		member.ExpiryDate = &expiry
	}
	if req.PaymentType == model.PaymentInstallments && req.InstallmentAmount != nil {
		installment := *req.InstallmentAmount
		member.InstallmentAmount = &installment
		member.RemainingBalance = req.MembershipFee - installment
		member.Mandate = req.Mandate
	}
	return member
}

// newFamilyMember inherits category, type and expiry from the primary. The
// fee is carried by the primary alone.
func newFamilyMember(primary *model.Member, applicant FamilyApplicant) *model.Member {
	linked := primary.ReferenceNo
	relationship := applicant.Relationship
	return &model.Member{
		ReferenceNo:             newReferenceNo(),
		Email:                   normalizeEmail(applicant.Email),
		FirstName:               strings.TrimSpace(applicant.FirstName),
		LastName:                strings.TrimSpace(applicant.LastName),
		PhoneNumber:             strings.TrimSpace(applicant.PhoneNumber),
		DateOfBirth:             applicant.DateOfBirth,
		Address:                 strings.TrimSpace(applicant.Address),
		Category:                primary.Category,
		Type:                    primary.Type,
		PaymentType:             primary.PaymentType,
		PaymentStatus:           model.PaymentSucceeded,
		Status:                  model.StatusPendingApproval,
		MembershipStartDate:     primary.MembershipStartDate,
		ExpiryDate:              primary.ExpiryDate,
		BadgeTaken:              model.BadgeNo,
		IsPrimaryMember:         false,
		LinkedMemberReferenceNo: &linked,
		Relationship:            &relationship,
	}
}

// Approve activates a pending member and enables their login account,
// creating it from password when none exists yet.
func (l *Lifecycle) Approve(ctx context.Context, memberID uint32, actorID, password string) (member *model.Member, err error) {
	log := logger.FromContext(ctx)
	defer func() { observe(TransitionApprove, err) }()

	member, err = l.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.Status != model.StatusPendingApproval {
		return nil, preconditionf("approve requires %s, member is %s", model.StatusPendingApproval, member.Status)
	}

	accountID, err := l.resolveAccount(ctx, member, password)
	if err != nil {
		return nil, err
	}
	if err := l.identity.Enable(ctx, accountID); err != nil {
		log.Error("Failed to enable identity account", "member_id", memberID, "error", err)
		return nil, fmt.Errorf("enable account: %w", err)
	}

	now := l.clock()
	err = l.directory.UpdateIfStatus(ctx, l.db, memberID, model.StatusPendingApproval, map[string]any{
		"status":              model.StatusActive,
		"approved_at":         now,
		"approved_by":         actorID,
		"identity_account_id": accountID,
		"updated_by":          actorID,
	})
	l.reconcile(ctx, memberID, accountID)
	if err != nil {
		return nil, err
	}

	member.Status = model.StatusActive
	member.ApprovedAt = &now
	member.ApprovedBy = &actorID
	member.IdentityAccountID = &accountID

	log.Info("Member approved", "member_id", memberID, "actor", actorID)
	l.notifier.OnApproved(ctx, member)
	return member, nil
}

// resolveAccount never provisions a second account for the same person: a
// recorded account wins, then one found by email, and only then a new one.
func (l *Lifecycle) resolveAccount(ctx context.Context, member *model.Member, password string) (string, error) {
	if member.IdentityAccountID != nil && *member.IdentityAccountID != "" {
		return *member.IdentityAccountID, nil
	}

	accountID, found, err := l.identity.FindByEmail(ctx, member.Email)
	if err != nil {
		return "", fmt.Errorf("find account: %w", err)
	}
	if found {
		return accountID, nil
	}

	if password == "" {
		return "", fmt.Errorf("memberID=%d: %w", member.ID, ErrPasswordRequired)
	}
	accountID, err = l.identity.CreateAccount(ctx, member.Email, password)
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	return accountID, nil
}

// reconcileAttempts bounds how often reconcile chases concurrent writers.
const reconcileAttempts = 20

// reconcile aligns the login account with the member's current status: enabled
// exactly when active. Identity calls happen outside any database write, so a
// concurrent transition can slip in between; reconcile repeats until the row
// version is unchanged around its own identity call. Errors are logged only.
func (l *Lifecycle) reconcile(ctx context.Context, memberID uint32, accountID string) {
	log := logger.FromContext(ctx)

	for range reconcileAttempts {
		before, err := l.directory.FindByID(ctx, l.db, memberID)
		if err != nil {
			log.Error("Reconcile skipped - member lookup failed", "member_id", memberID, "error", err)
			return
		}

		if before.Status == model.StatusActive {
			err = l.identity.Enable(ctx, accountID)
		} else {
			err = l.identity.Disable(ctx, accountID)
		}
		if err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
			log.Error("Reconcile failed", "member_id", memberID, "status", before.Status, "error", err)
			return
		}

		after, err := l.directory.FindByID(ctx, l.db, memberID)
		if err != nil {
			log.Error("Reconcile skipped - member lookup failed", "member_id", memberID, "error", err)
			return
		}
		if after.Version == before.Version {
			return
		}
	}
	log.Warn("Reconcile gave up after concurrent changes", "member_id", memberID)
}

// Reject closes a pending application.
func (l *Lifecycle) Reject(ctx context.Context, memberID uint32, actorID, reason string) (member *model.Member, err error) {
	defer func() { observe(TransitionReject, err) }()

	reason, err = requireReason(reason)
	if err != nil {
		return nil, err
	}
	member, err = l.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.Status != model.StatusPendingApproval {
		return nil, preconditionf("reject requires %s, member is %s", model.StatusPendingApproval, member.Status)
	}
	if err := l.disableIfLinked(ctx, member); err != nil {
		return nil, err
	}

	now := l.clock()
	rejection := map[string]any{
		"rejected_at":     now,
		"rejected_by":     actorID,
		"rejected_reason": reason,
		"updated_by":      actorID,
	}
	err = database.WithTransaction(ctx, l.db, func(tx *gorm.DB) error {
		updates := map[string]any{"status": model.StatusRejected}
		for k, v := range rejection {
			updates[k] = v
		}
		if err := l.directory.UpdateIfStatus(ctx, tx, memberID, model.StatusPendingApproval, updates); err != nil {
			return err
		}
		if !member.IsPrimaryMember {
			return nil
		}
		// the fee payer was rejected, so the family cannot be approved either
		count, err := l.directory.RejectPendingFamily(ctx, tx, member.ReferenceNo, rejection)
		if err != nil {
			return fmt.Errorf("reject family: %w", err)
		}
		if count > 0 {
			logger.FromContext(ctx).Info("Family members rejected with primary", "member_id", memberID, "count", count)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	member.Status = model.StatusRejected
	member.RejectedAt = &now
	member.RejectedBy = &actorID
	member.RejectedReason = &reason

	logger.FromContext(ctx).Info("Member rejected", "member_id", memberID, "actor", actorID)
	l.notifier.OnRejected(ctx, member)
	return member, nil
}

// Suspend removes portal access from an active member. The account is
// disabled before the status write, so a suspended member is never enabled.
func (l *Lifecycle) Suspend(ctx context.Context, memberID uint32, actorID, reason string) (member *model.Member, err error) {
	defer func() { observe(TransitionSuspend, err) }()

	reason, err = requireReason(reason)
	if err != nil {
		return nil, err
	}
	member, err = l.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.Status != model.StatusActive {
		return nil, preconditionf("suspend requires %s, member is %s", model.StatusActive, member.Status)
	}
	if err := l.disableIfLinked(ctx, member); err != nil {
		return nil, err
	}

	now := l.clock()
	err = l.directory.UpdateIfStatus(ctx, l.db, memberID, model.StatusActive, map[string]any{
		"status":           model.StatusSuspended,
		"suspended_at":     now,
		"suspended_by":     actorID,
		"suspended_reason": reason,
		"updated_by":       actorID,
	})
	if member.IdentityAccountID != nil {
		l.reconcile(ctx, memberID, *member.IdentityAccountID)
	}
	if err != nil {
		return nil, err
	}

	member.Status = model.StatusSuspended
	member.SuspendedAt = &now
	member.SuspendedBy = &actorID
	member.SuspendedReason = &reason

	logger.FromContext(ctx).Info("Member suspended", "member_id", memberID, "actor", actorID)
	return member, nil
}

// Reactivate restores a suspended member. Suspension reason and audit fields
// are cleared.
func (l *Lifecycle) Reactivate(ctx context.Context, memberID uint32, actorID string) (member *model.Member, err error) {
	defer func() { observe(TransitionReactivate, err) }()

	member, err = l.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.Status != model.StatusSuspended {
		return nil, preconditionf("reactivate requires %s, member is %s", model.StatusSuspended, member.Status)
	}
	if member.IdentityAccountID == nil || *member.IdentityAccountID == "" {
		return nil, preconditionf("member %d has no login account", memberID)
	}
	accountID := *member.IdentityAccountID

	if err := l.identity.Enable(ctx, accountID); err != nil {
		return nil, fmt.Errorf("enable account: %w", err)
	}

	err = l.directory.UpdateIfStatus(ctx, l.db, memberID, model.StatusSuspended, map[string]any{
		"status":           model.StatusActive,
		"suspended_at":     nil,
		"suspended_by":     nil,
		"suspended_reason": nil,
		"updated_by":       actorID,
	})
	l.reconcile(ctx, memberID, accountID)
	if err != nil {
		return nil, err
	}

	member.Status = model.StatusActive
	member.SuspendedAt = nil
	member.SuspendedBy = nil
	member.SuspendedReason = nil

	logger.FromContext(ctx).Info("Member reactivated", "member_id", memberID, "actor", actorID)
	return member, nil
}

// Renew extends a general membership by one year from the later of now and
// the current expiry. Linked family members follow the primary's expiry.
func (l *Lifecycle) Renew(ctx context.Context, memberID uint32, actorID string) (member *model.Member, err error) {
	defer func() { observe(TransitionRenew, err) }()

	member, err = l.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !member.HasExpiry() {
		return nil, preconditionf("%s memberships do not renew", member.Category)
	}
	if member.Status != model.StatusActive && member.Status != model.StatusPendingApproval {
		return nil, preconditionf("renew requires active or pending approval, member is %s", member.Status)
	}

	now := l.clock()
	base := now
	if member.ExpiryDate != nil && member.ExpiryDate.After(now) {
		base = *member.ExpiryDate
	}
	expiry := base.Add(Term)

	err = database.WithTransaction(ctx, l.db, func(tx *gorm.DB) error {
		err := l.directory.UpdateIf(ctx, tx, memberID,
			map[string]any{"status": member.Status, "renewal_count": member.RenewalCount},
			map[string]any{
				"expiry_date":       expiry,
				"renewal_count":     member.RenewalCount + 1,
				"last_renewal_date": now,
				"payment_status":    model.PaymentSucceeded,
				"updated_by":        actorID,
			})
		if err != nil {
			return err
		}
		if !member.IsPrimaryMember {
			return nil
		}
		if _, err := l.directory.SetFamilyExpiry(ctx, tx, member.ReferenceNo, expiry); err != nil {
			return fmt.Errorf("extend family expiry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	member.ExpiryDate = &expiry
	member.RenewalCount++
	member.LastRenewalDate = &now
	member.PaymentStatus = model.PaymentSucceeded

	logger.FromContext(ctx).Info("Member renewed", "member_id", memberID, "actor", actorID, "expiry", expiry.Format(time.DateOnly))
	l.notifier.OnRenewed(ctx, member)
	return member, nil
}

// ExpireDue moves active members past their expiry date to expired and
// disables their accounts. Members whose account cannot be disabled are left
// active for the next run.
func (l *Lifecycle) ExpireDue(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)
	now := l.clock()
	expired := 0

	for {
		due, err := l.directory.ListExpiredActive(ctx, l.db, now, expireBatchSize)
		if err != nil {
			return expired, fmt.Errorf("list expired members: %w", err)
		}

		progressed := 0
		for i := range due {
			ok, err := l.expire(ctx, &due[i], now)
			observe(TransitionExpire, err)
			if err != nil {
				log.Warn("Member not expired", "member_id", due[i].ID, "error", err)
				continue
			}
			if ok {
				expired++
				progressed++
			}
		}

		if len(due) < expireBatchSize || progressed == 0 {
			break
		}
	}

	if expired > 0 {
		log.Info("Expired memberships", "count", expired)
	}
	return expired, nil
}

func (l *Lifecycle) expire(ctx context.Context, member *model.Member, now time.Time) (bool, error) {
	if err := l.disableIfLinked(ctx, member); err != nil {
		return false, err
	}

	ok, err := l.directory.ExpireIfDue(ctx, l.db, member.ID, now)
	if member.IdentityAccountID != nil {
		l.reconcile(ctx, member.ID, *member.IdentityAccountID)
	}
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("memberID=%d: %w", member.ID, ErrConflict)
	}
	return true, nil
}

// RecordInstallmentPayment lowers the remaining balance of an installment
// plan. Overpayment clamps the balance at zero.
func (l *Lifecycle) RecordInstallmentPayment(ctx context.Context, memberID uint32, actorID string, amount int64) (member *model.Member, err error) {
	defer func() { observe(TransitionInstallment, err) }()

	if amount <= 0 {
		verr := sharedError.NewValidationError()
		verr.Add("amount", "must be greater than zero")
		return nil, verr
	}
	member, err = l.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.PaymentType != model.PaymentInstallments || member.RemainingBalance == 0 {
		return nil, preconditionf("member %d has no outstanding installment balance", memberID)
	}

	remaining := member.RemainingBalance - amount
	if remaining < 0 {
		remaining = 0
	}
	err = l.directory.UpdateIf(ctx, l.db, memberID,
		map[string]any{"remaining_balance": member.RemainingBalance},
		map[string]any{"remaining_balance": remaining, "updated_by": actorID})
	if err != nil {
		return nil, err
	}
	member.RemainingBalance = remaining

	logger.FromContext(ctx).Info("Installment recorded", "member_id", memberID, "actor", actorID, "remaining", remaining)
	return member, nil
}

// SetBadgeTaken records whether the member collected their badge.
func (l *Lifecycle) SetBadgeTaken(ctx context.Context, memberID uint32, actorID string, taken model.BadgeTaken) (member *model.Member, err error) {
	defer func() { observe(TransitionBadge, err) }()

	if taken != model.BadgeYes && taken != model.BadgeNo {
		verr := sharedError.NewValidationError()
		verr.Add("badgeTaken", "must be yes or no")
		return nil, verr
	}
	member, err = l.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.Status != model.StatusActive {
		return nil, preconditionf("badge updates require %s, member is %s", model.StatusActive, member.Status)
	}

	err = l.directory.UpdateIfStatus(ctx, l.db, memberID, model.StatusActive, map[string]any{"badge_taken": taken, "updated_by": actorID})
	if err != nil {
		return nil, err
	}
	member.BadgeTaken = taken

	logger.FromContext(ctx).Info("Badge updated", "member_id", memberID, "actor", actorID, "badge_taken", taken)
	return member, nil
}

func (l *Lifecycle) load(ctx context.Context, memberID uint32) (*model.Member, error) {
	member, err := l.directory.FindByID(ctx, l.db, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("memberID=%d: %w", memberID, ErrMemberNotFound)
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	return member, nil
}

func (l *Lifecycle) disableIfLinked(ctx context.Context, member *model.Member) error {
	if member.IdentityAccountID == nil || *member.IdentityAccountID == "" {
		return nil
	}
	err := l.identity.Disable(ctx, *member.IdentityAccountID)
	if err == nil || errors.Is(err, identity.ErrAccountNotFound) {
		return nil
	}
	logger.FromContext(ctx).Error("Failed to disable identity account", "member_id", member.ID, "error", err)
	return fmt.Errorf("disable account: %w", err)
}

func requireReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		verr := sharedError.NewValidationError()
		verr.Add("reason", "is required")
		return "", verr
	}
	return reason, nil
}

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrPrecondition)
}

func observe(transition string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrConflict):
		outcome = "conflict"
	case errors.Is(err, ErrPrecondition), errors.Is(err, ErrPasswordRequired):
		outcome = "precondition"
	default:
		outcome = "error"
	}
	metrics.Transitions.WithLabelValues(transition, outcome).Inc()
}

func newReferenceNo() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CM-" + strings.ToUpper(id[:8])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
