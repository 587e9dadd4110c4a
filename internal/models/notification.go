package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationType is a closed enum of in-app notification kinds.
type NotificationType string

const (
	NotificationPetApproved       NotificationType = "pet_approved"
	NotificationPetRejected       NotificationType = "pet_rejected"
	NotificationActionRequired    NotificationType = "action_required"
	NotificationAppealReceived    NotificationType = "appeal_received"
	NotificationAppealResolved    NotificationType = "appeal_resolved"
	NotificationMembershipActive  NotificationType = "membership_active"
	NotificationPayoutRequested   NotificationType = "payout_requested"
	NotificationPayoutPaid        NotificationType = "payout_paid"
	NotificationReferralCredited  NotificationType = "referral_credited"
	NotificationAmbassadorUpdated NotificationType = "ambassador_updated"
)

// Notification is an in-app notification. Rows past ExpiresAt are removed by
// the worker's sweeper.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Icon      string           `json:"icon,omitempty"`
	Link      string           `json:"link,omitempty"`
	IsRead    bool             `json:"is_read"`
	Metadata  json.RawMessage  `json:"metadata,omitempty"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
