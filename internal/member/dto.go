package member

import (
	"time"

	"github.com/communitylink/membership-api/internal/fee"
	"github.com/communitylink/membership-api/internal/model"
)

// MemberResponse is the administrative view of a member. Amounts are in dollars.
type MemberResponse struct {
	ID                      uint32                   `json:"id"`
	ReferenceNo             string                   `json:"referenceNo"`
	Email                   string                   `json:"email"`
	FirstName               string                   `json:"firstName"`
	LastName                string                   `json:"lastName"`
	PhoneNumber             string                   `json:"phoneNumber,omitempty"`
	DateOfBirth             string                   `json:"dateOfBirth"`
	Address                 string                   `json:"address,omitempty"`
	Category                model.MembershipCategory `json:"membershipCategory"`
	Type                    model.MembershipType     `json:"membershipType"`
	Status                  model.MemberStatus       `json:"status"`
	MembershipFee           float64                  `json:"membershipFee"`
	PaymentType             model.PaymentType        `json:"paymentType"`
	PaymentStatus           model.PaymentStatus      `json:"paymentStatus"`
	InstallmentAmount       *float64                 `json:"installmentAmount,omitempty"`
	RemainingBalance        float64                  `json:"remainingBalance"`
	MembershipStartDate     time.Time                `json:"membershipStartDate"`
	ExpiryDate              *time.Time               `json:"expiryDate,omitempty"`
	RenewalCount            int                      `json:"renewalCount"`
	LastRenewalDate         *time.Time               `json:"lastRenewalDate,omitempty"`
	BadgeTaken              model.BadgeTaken         `json:"badgeTaken"`
	IsPrimaryMember         bool                     `json:"isPrimaryMember"`
	LinkedMemberReferenceNo *string                  `json:"linkedMemberReferenceNo,omitempty"`
	Relationship            *model.Relationship      `json:"relationship,omitempty"`
	ApprovedAt              *time.Time               `json:"approvedAt,omitempty"`
	ApprovedBy              *string                  `json:"approvedBy,omitempty"`
	RejectedAt              *time.Time               `json:"rejectedAt,omitempty"`
	RejectedReason          *string                  `json:"rejectedReason,omitempty"`
	SuspendedAt             *time.Time               `json:"suspendedAt,omitempty"`
	SuspendedReason         *string                  `json:"suspendedReason,omitempty"`
}

// ProfileResponse is what a member sees of their own record in the portal.
type ProfileResponse struct {
	ReferenceNo      string                   `json:"referenceNo"`
	FirstName        string                   `json:"firstName"`
	LastName         string                   `json:"lastName"`
	Email            string                   `json:"email"`
	Category         model.MembershipCategory `json:"membershipCategory"`
	Type             model.MembershipType     `json:"membershipType"`
	Status           model.MemberStatus       `json:"status"`
	ExpiryDate       *time.Time               `json:"expiryDate,omitempty"`
	RemainingBalance float64                  `json:"remainingBalance"`
	BadgeTaken       model.BadgeTaken         `json:"badgeTaken"`
}

type ApproveRequest struct {
	Password string `json:"password" binding:"omitempty,min=8,max=72"`
}

// ReasonRequest is shared by reject and suspend. An empty reason is rejected by the lifecycle.
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type InstallmentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type BadgeRequest struct {
	BadgeTaken model.BadgeTaken `json:"badgeTaken" binding:"required,oneof=yes no"`
}

type ExpireResponse struct {
	Expired int `json:"expired"`
}

func NewMemberResponse(m *model.Member) MemberResponse {
	resp := MemberResponse{
		ID:                      m.ID,
		ReferenceNo:             m.ReferenceNo,
		Email:                   m.Email,
		FirstName:               m.FirstName,
		LastName:                m.LastName,
		PhoneNumber:             m.PhoneNumber,
		DateOfBirth:             m.DateOfBirth.Format(time.DateOnly),
		Address:                 m.Address,
		Category:                m.Category,
		Type:                    m.Type,
		Status:                  m.Status,
		MembershipFee:           fee.ToDollars(m.MembershipFee),
		PaymentType:             m.PaymentType,
		PaymentStatus:           m.PaymentStatus,
		RemainingBalance:        fee.ToDollars(m.RemainingBalance),
		MembershipStartDate:     m.MembershipStartDate,
		ExpiryDate:              m.ExpiryDate,
		RenewalCount:            m.RenewalCount,
		LastRenewalDate:         m.LastRenewalDate,
		BadgeTaken:              m.BadgeTaken,
		IsPrimaryMember:         m.IsPrimaryMember,
		LinkedMemberReferenceNo: m.LinkedMemberReferenceNo,
		Relationship:            m.Relationship,
		ApprovedAt:              m.ApprovedAt,
		ApprovedBy:              m.ApprovedBy,
		RejectedAt:              m.RejectedAt,
		RejectedReason:          m.RejectedReason,
		SuspendedAt:             m.SuspendedAt,
		SuspendedReason:         m.SuspendedReason,
	}
	if m.InstallmentAmount != nil {
		installment := fee.ToDollars(*m.InstallmentAmount)
		resp.InstallmentAmount = &installment
	}
	return resp
}

func newProfileResponse(m *model.Member) *ProfileResponse {
	return &ProfileResponse{
		ReferenceNo:      m.ReferenceNo,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		Category:         m.Category,
		Type:             m.Type,
		Status:           m.Status,
		ExpiryDate:       m.ExpiryDate,
		RemainingBalance: fee.ToDollars(m.RemainingBalance),
		BadgeTaken:       m.BadgeTaken,
	}
}
