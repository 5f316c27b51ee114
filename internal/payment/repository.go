package payment

import (
	"context"

	"github.com/communitylink/membership-api/internal/model"
	"gorm.io/gorm"
)

type IntentRepository struct{}

func NewIntentRepository() *IntentRepository {
	return &IntentRepository{}
}

func (r *IntentRepository) Create(ctx context.Context, db *gorm.DB, intent *model.PaymentIntent) error {
	return db.WithContext(ctx).Create(intent).Error
}

func (r *IntentRepository) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*model.PaymentIntent, error) {
	var intent model.PaymentIntent
	err := db.WithContext(ctx).Where("reference = ?", reference).First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// UpdateStatus only moves an open intent (pending or declined), so succeeded
// and canceled intents are never rewritten.
func (r *IntentRepository) UpdateStatus(ctx context.Context, db *gorm.DB, reference string, status model.PaymentStatus, fields map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{"status": status}
	for k, v := range fields {
		updates[k] = v
	}

	result := db.WithContext(ctx).
		Model(&model.PaymentIntent{}).
		Where("reference = ? AND status IN ?", reference, []model.PaymentStatus{model.PaymentPending, model.PaymentFailed}).
		Updates(updates)
	return result.RowsAffected, result.Error
}
