package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession is a short-lived token identifying a member to the external
// chatbot service. At most one session per external member id is active.
type ChatSession struct {
	ID               uuid.UUID `json:"id"`
	ExternalMemberID string    `json:"external_member_id"`
	Token            string    `json:"token"`
	ExpiresAt        time.Time `json:"expires_at"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}
