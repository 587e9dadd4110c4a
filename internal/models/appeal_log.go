package models

import (
	"time"

	"github.com/google/uuid"
)

// AppealLogType identifies the kind of status-transition log entry.
type AppealLogType string

const (
	AppealLogUserAppeal        AppealLogType = "user_appeal"
	AppealLogUserResubmission  AppealLogType = "user_resubmission"
	AppealLogAdminStatusChange AppealLogType = "admin_status_change"
	AppealLogAppealApproved    AppealLogType = "appeal_approved"
	AppealLogAppealRejected    AppealLogType = "appeal_rejected"
)

// AppealLog is an append-only audit row for every pet status transition.
// The per-pet appeal count is derived from rows of type user_appeal, so the
// log is the source of truth for the appeal limit.
type AppealLog struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	PetID     uuid.UUID     `json:"pet_id"`
	AdminID   *uuid.UUID    `json:"admin_id,omitempty"`
	Type      AppealLogType `json:"type"`
	Message   string        `json:"message,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
