package models

import (
	"time"

	"github.com/google/uuid"
)

// AmbassadorStatus for the referral program.
type AmbassadorStatus string

const (
	AmbassadorPending   AmbassadorStatus = "pending"
	AmbassadorApproved  AmbassadorStatus = "approved"
	AmbassadorRejected  AmbassadorStatus = "rejected"
	AmbassadorSuspended AmbassadorStatus = "suspended"
)

// ValidAmbassadorStatus reports whether s is a known ambassador status.
func ValidAmbassadorStatus(s AmbassadorStatus) bool {
	switch s {
	case AmbassadorPending, AmbassadorApproved, AmbassadorRejected, AmbassadorSuspended:
		return true
	}
	return false
}

// Ambassador is a member enrolled in the referral program. Balances are in the
// club's currency with two decimal places; all mutations go through row-locked
// transactions.
type Ambassador struct {
	ID                   uuid.UUID        `json:"id"`
	UserID               uuid.UUID        `json:"user_id"`
	ReferralCode         string           `json:"referral_code"`
	CommissionPercentage float64          `json:"commission_percentage"`
	TotalEarnings        float64          `json:"total_earnings"`
	PendingPayout        float64          `json:"pending_payout"`
	Status               AmbassadorStatus `json:"status"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// CommissionStatus of a referral's commission.
type CommissionStatus string

const (
	CommissionPending  CommissionStatus = "pending"
	CommissionApproved CommissionStatus = "approved"
)

// Referral records one referred signup. Exactly one referral may exist per
// referred user; commission_percentage is snapshotted at creation time.
type Referral struct {
	ID                   uuid.UUID        `json:"id"`
	AmbassadorID         uuid.UUID        `json:"ambassador_id"`
	ReferredUserID       string           `json:"referred_user_id"`
	ReferredUserName     string           `json:"referred_user_name,omitempty"`
	ReferredUserEmail    string           `json:"referred_user_email,omitempty"`
	MembershipPlan       string           `json:"membership_plan,omitempty"`
	MembershipAmount     float64          `json:"membership_amount"`
	CommissionPercentage float64          `json:"commission_percentage"`
	CommissionAmount     float64          `json:"commission_amount"`
	CommissionStatus     CommissionStatus `json:"commission_status"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// PayoutStatus of a withdrawal request.
type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "pending"
	PayoutPaid     PayoutStatus = "paid"
	PayoutRejected PayoutStatus = "rejected"
)

// Payout is an ambassador withdrawal request for the full pending balance.
type Payout struct {
	ID           uuid.UUID    `json:"id"`
	AmbassadorID uuid.UUID    `json:"ambassador_id"`
	Amount       float64      `json:"amount"`
	Status       PayoutStatus `json:"status"`
	RequestedAt  time.Time    `json:"requested_at"`
	ResolvedAt   *time.Time   `json:"resolved_at,omitempty"`
}
