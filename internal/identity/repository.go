package identity

import (
	"context"

	"github.com/communitylink/membership-api/internal/model"
	"gorm.io/gorm"
)

type AccountRepository struct{}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

func (r *AccountRepository) Create(ctx context.Context, db *gorm.DB, account *model.IdentityAccount) error {
	return db.WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) FindByID(ctx context.Context, db *gorm.DB, id string) (*model.IdentityAccount, error) {
	var account model.IdentityAccount
	err := db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.IdentityAccount, error) {
	var account model.IdentityAccount
	err := db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// SetEnabled returns the number of rows touched so callers can detect a missing account.
func (r *AccountRepository) SetEnabled(ctx context.Context, db *gorm.DB, id string, enabled bool) (int64, error) {
	result := db.WithContext(ctx).
		Model(&model.IdentityAccount{}).
		Where("id = ?", id).
		Update("enabled", enabled)
	return result.RowsAffected, result.Error
}

func (r *AccountRepository) SetGroups(ctx context.Context, db *gorm.DB, id string, groups string) error {
	return db.WithContext(ctx).
		Model(&model.IdentityAccount{}).
		Where("id = ?", id).
		Update("group_names", groups).Error
}
