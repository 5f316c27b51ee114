package model

import "time"

// PaymentIntent records a charge created at the processor together with the
// registration it pays for, so completion can be re-triggered from the
// reference alone.
type PaymentIntent struct {
	ID               uint32        `gorm:"column:id;primaryKey;autoIncrement"`
	Reference        string        `gorm:"column:reference;size:255;not null;uniqueIndex:idx_payment_intent_reference"`
	Amount           int64         `gorm:"column:amount;not null"` // cents charged now
	Currency         string        `gorm:"column:currency;size:3;not null"`
	MembershipFee    int64         `gorm:"column:membership_fee;not null"`
	RemainingBalance int64         `gorm:"column:remaining_balance;not null;default:0"`
	Email            string        `gorm:"column:email;size:255;not null;index:idx_payment_intent_email"`
	Status           PaymentStatus `gorm:"column:status;size:20;not null"`
	FailureMessage   *string       `gorm:"column:failure_message;size:500"`
	Registration     string        `gorm:"column:registration;type:text;not null"` // validated registration request as JSON
	ConfirmedAt      *time.Time    `gorm:"column:confirmed_at"`

	BaseEntity
}

// TableName specifies the table name for PaymentIntent
func (*PaymentIntent) TableName() string {
	return "payment_intent"
}
