package model

import (
	"time"
)

type MembershipCategory string

const (
	CategoryGeneral MembershipCategory = "general"
	CategoryLife    MembershipCategory = "life"
)

type MembershipType string

const (
	TypeSingle MembershipType = "single"
	TypeFamily MembershipType = "family"
)

type PaymentType string

const (
	PaymentUpfront      PaymentType = "upfront"
	PaymentInstallments PaymentType = "installments"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed" // last attempt declined, the intent can still be retried
	PaymentCanceled  PaymentStatus = "canceled"
)

type MemberStatus string

const (
	StatusPendingApproval MemberStatus = "pending_approval"
	StatusActive          MemberStatus = "active"
	StatusRejected        MemberStatus = "rejected"
	StatusSuspended       MemberStatus = "suspended"
	StatusExpired         MemberStatus = "expired"
)

type Relationship string

const (
	RelationshipSpouse  Relationship = "spouse"
	RelationshipChild   Relationship = "child"
	RelationshipParent  Relationship = "parent"
	RelationshipSibling Relationship = "sibling"
)

type BadgeTaken string

const (
	BadgeYes BadgeTaken = "yes"
	BadgeNo  BadgeTaken = "no"
)

// DirectDebitMandate is the bank authority captured for an installment remainder.
// Embedded with a mandate_ prefix; all columns stay NULL for upfront payments.
type DirectDebitMandate struct {
	AccountName     *string `gorm:"column:account_name;size:150"`
	BSB             *string `gorm:"column:bsb;size:7"`
	AccountNumber   *string `gorm:"column:account_number;size:10"`
	AuthorityAccept *bool   `gorm:"column:authority_accepted"`
}

// Member is a primary or family member record.
// Amounts are stored in cents.
type Member struct {
	ID          uint32 `gorm:"column:id;primaryKey;autoIncrement"`
	ReferenceNo string `gorm:"column:reference_no;size:20;not null;uniqueIndex:idx_member_reference_no"`
	Email       string `gorm:"column:email;size:255;not null;uniqueIndex:idx_member_email"` // lower-cased, unique across primary and family

	FirstName   string    `gorm:"column:first_name;size:100;not null"`
	LastName    string    `gorm:"column:last_name;size:100;not null"`
	PhoneNumber string    `gorm:"column:phone_number;size:30"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null"`
	Address     string    `gorm:"column:address;size:255"`

	Category MembershipCategory `gorm:"column:membership_category;size:20;not null"`
	Type     MembershipType     `gorm:"column:membership_type;size:20;not null"`

	MembershipFee          int64              `gorm:"column:membership_fee;not null"`
	PaymentType            PaymentType        `gorm:"column:payment_type;size:20;not null"`
	PaymentStatus          PaymentStatus      `gorm:"column:payment_status;size:20;not null"`
	PaymentIntentReference *string            `gorm:"column:payment_intent_reference;size:255;uniqueIndex:idx_member_payment_ref"` // primary members only
	InstallmentAmount      *int64             `gorm:"column:installment_amount"`
	RemainingBalance       int64              `gorm:"column:remaining_balance;not null;default:0"`
	Mandate                DirectDebitMandate `gorm:"embedded;embeddedPrefix:mandate_"`

	Status              MemberStatus `gorm:"column:status;size:20;not null;index:idx_member_status"`
	ApprovedAt          *time.Time   `gorm:"column:approved_at"`
	ApprovedBy          *string      `gorm:"column:approved_by;size:64"`
	RejectedAt          *time.Time   `gorm:"column:rejected_at"`
	RejectedBy          *string      `gorm:"column:rejected_by;size:64"`
	RejectedReason      *string      `gorm:"column:rejected_reason;size:500"`
	SuspendedAt         *time.Time   `gorm:"column:suspended_at"`
	SuspendedBy         *string      `gorm:"column:suspended_by;size:64"`
	SuspendedReason     *string      `gorm:"column:suspended_reason;size:500"`
	MembershipStartDate time.Time    `gorm:"column:membership_start_date;not null"`
	ExpiryDate          *time.Time   `gorm:"column:expiry_date;index:idx_member_expiry"` // general category only
	RenewalCount        int          `gorm:"column:renewal_count;not null;default:0"`
	LastRenewalDate     *time.Time   `gorm:"column:last_renewal_date"`
	BadgeTaken          BadgeTaken   `gorm:"column:badge_taken;size:3;not null"`

	IsPrimaryMember         bool          `gorm:"column:is_primary_member;not null"`
	LinkedMemberReferenceNo *string       `gorm:"column:linked_member_reference_no;size:20;index:idx_member_linked_ref"`
	Relationship            *Relationship `gorm:"column:relationship;size:20"`

	IdentityAccountID *string `gorm:"column:identity_account_id;size:64"`
	Version           int64   `gorm:"column:version;not null;default:0"` // bumped by every conditional write

	BaseEntity
}

// TableName specifies the table name for Member
func (*Member) TableName() string {
	return "member"
}

func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// HasExpiry reports whether the member's category carries an expiry date.
func (m *Member) HasExpiry() bool {
	return m.Category == CategoryGeneral
}

func (c MembershipCategory) Valid() bool {
	return c == CategoryGeneral || c == CategoryLife
}

func (t MembershipType) Valid() bool {
	return t == TypeSingle || t == TypeFamily
}

func (r Relationship) Valid() bool {
	switch r {
	case RelationshipSpouse, RelationshipChild, RelationshipParent, RelationshipSibling:
		return true
	}
	return false
}
