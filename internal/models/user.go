package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the platform.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// MembershipStatus is the member-level status derived from the member's pets.
// It is never authored directly; it is recomputed after every pet mutation.
type MembershipStatus string

const (
	MembershipPending        MembershipStatus = "pending"
	MembershipActive         MembershipStatus = "active"
	MembershipRejected       MembershipStatus = "rejected"
	MembershipActionRequired MembershipStatus = "action_required"
	MembershipAppealed       MembershipStatus = "appealed"
)

// User represents a club member or an admin.
type User struct {
	ID               uuid.UUID        `json:"id"`
	Email            string           `json:"email"`
	Password         string           `json:"-"`
	FullName         string           `json:"full_name"`
	Phone            string           `json:"phone,omitempty"`
	Role             Role             `json:"role"`
	ExternalAuthID   *string          `json:"external_auth_id,omitempty"` // legacy identity-provider member id
	MembershipStatus MembershipStatus `json:"membership_status"`
	RegistrationDate time.Time        `json:"registration_date"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID               uuid.UUID        `json:"id"`
	Email            string           `json:"email"`
	FullName         string           `json:"full_name"`
	Phone            string           `json:"phone,omitempty"`
	Role             Role             `json:"role"`
	MembershipStatus MembershipStatus `json:"membership_status"`
	RegistrationDate time.Time        `json:"registration_date"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:               u.ID,
		Email:            u.Email,
		FullName:         u.FullName,
		Phone:            u.Phone,
		Role:             u.Role,
		MembershipStatus: u.MembershipStatus,
		RegistrationDate: u.RegistrationDate,
		CreatedAt:        u.CreatedAt,
	}
}
