package member

import (
	"context"
	"fmt"
	"time"

	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/shared/database"
	"gorm.io/gorm"
)

// Directory is the durable store of member records.
type Directory struct{}

func NewDirectory() *Directory {
	return &Directory{}
}

// Create inserts a member. Any unique index violation is reported as errDuplicateKey.
func (d *Directory) Create(ctx context.Context, db *gorm.DB, member *model.Member) error {
	if err := db.WithContext(ctx).Create(member).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %w", errDuplicateKey, err)
		}
		return err
	}
	return nil
}

func (d *Directory) FindByID(ctx context.Context, db *gorm.DB, id uint32) (*model.Member, error) {
	return d.findOne(ctx, db, "id = ?", id)
}

func (d *Directory) FindByReferenceNo(ctx context.Context, db *gorm.DB, referenceNo string) (*model.Member, error) {
	return d.findOne(ctx, db, "reference_no = ?", referenceNo)
}

func (d *Directory) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.Member, error) {
	return d.findOne(ctx, db, "email = ?", email)
}

func (d *Directory) FindByPaymentReference(ctx context.Context, db *gorm.DB, reference string) (*model.Member, error) {
	return d.findOne(ctx, db, "payment_intent_reference = ?", reference)
}

func (d *Directory) FindByIdentityAccountID(ctx context.Context, db *gorm.DB, accountID string) (*model.Member, error) {
	return d.findOne(ctx, db, "identity_account_id = ?", accountID)
}

func (d *Directory) findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*model.Member, error) {
	var member model.Member
	err := db.WithContext(ctx).Where(query, arg).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// EmailsTaken returns the subset of emails already present in the directory.
func (d *Directory) EmailsTaken(ctx context.Context, db *gorm.DB, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var taken []string
	err := db.WithContext(ctx).
		Model(&model.Member{}).
		Where("email IN ?", emails).
		Pluck("email", &taken).Error
	if err != nil {
		return nil, err
	}
	return taken, nil
}

// ListFamilyOf returns the family members linked to a primary member, oldest first.
func (d *Directory) ListFamilyOf(ctx context.Context, db *gorm.DB, primaryReferenceNo string) ([]model.Member, error) {
	var members []model.Member
	err := db.WithContext(ctx).
		Where("linked_member_reference_no = ? AND is_primary_member = ?", primaryReferenceNo, false).
		Order("id").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ListExpiredActive returns active members whose expiry date is before now.
func (d *Directory) ListExpiredActive(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]model.Member, error) {
	var members []model.Member
	err := db.WithContext(ctx).
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", model.StatusActive, now).
		Order("id").
		Limit(limit).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateIf applies updates only while every condition still holds and bumps
// the row version. It returns ErrConflict when the row exists but no longer matches, and
// ErrMemberNotFound when the row is gone.
func (d *Directory) UpdateIf(ctx context.Context, db *gorm.DB, id uint32, conditions map[string]any, updates map[string]any) error {
	query := db.WithContext(ctx).Model(&model.Member{}).Where("id = ?", id)
	for column, value := range conditions {
		query = query.Where(column+" = ?", value)
	}

	versioned := make(map[string]any, len(updates)+1)
	for column, value := range updates {
		versioned[column] = value
	}
	versioned["version"] = gorm.Expr("version + 1")

	result := query.Updates(versioned)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(&model.Member{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("memberID=%d: %w", id, ErrMemberNotFound)
	}
	return fmt.Errorf("memberID=%d: %w", id, ErrConflict)
}

// UpdateIfStatus is the lifecycle's compare-and-swap on status.
func (d *Directory) UpdateIfStatus(ctx context.Context, db *gorm.DB, id uint32, expected model.MemberStatus, updates map[string]any) error {
	return d.UpdateIf(ctx, db, id, map[string]any{"status": expected}, updates)
}

// ExpireIfDue moves an active member past its expiry date to expired. It
// reports false when the member was renewed or changed status meanwhile.
func (d *Directory) ExpireIfDue(ctx context.Context, db *gorm.DB, id uint32, now time.Time) (bool, error) {
	result := db.WithContext(ctx).
		Model(&model.Member{}).
		Where("id = ? AND status = ? AND expiry_date < ?", id, model.StatusActive, now).
		Updates(map[string]any{
			"status":     model.StatusExpired,
			"updated_by": SystemActor,
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected > 0, result.Error
}

// RejectPendingFamily rejects the family members of a primary that are still
// awaiting approval. Members already approved are left alone.
func (d *Directory) RejectPendingFamily(ctx context.Context, db *gorm.DB, primaryReferenceNo string, updates map[string]any) (int64, error) {
	fields := map[string]any{"status": model.StatusRejected, "version": gorm.Expr("version + 1")}
	for k, v := range updates {
		fields[k] = v
	}

	result := db.WithContext(ctx).
		Model(&model.Member{}).
		Where("linked_member_reference_no = ? AND is_primary_member = ?", primaryReferenceNo, false).
		Where("status = ?", model.StatusPendingApproval).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// SetFamilyExpiry moves the expiry date of a primary member's current family members.
func (d *Directory) SetFamilyExpiry(ctx context.Context, db *gorm.DB, primaryReferenceNo string, expiry time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&model.Member{}).
		Where("linked_member_reference_no = ? AND is_primary_member = ?", primaryReferenceNo, false).
		Where("status IN ?", []model.MemberStatus{model.StatusPendingApproval, model.StatusActive}).
		Updates(map[string]any{"expiry_date": expiry, "version": gorm.Expr("version + 1")})
	return result.RowsAffected, result.Error
}
