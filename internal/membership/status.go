// Package membership derives a member's overall status from their pets.
package membership

import (
	"github.com/club-pata-amiga/backend/internal/models"
)

// Compute derives the member-level status from the statuses of all the
// member's pets. Precedence, highest first: appealed, rejected,
// action_required, pending. A member is active only when every pet is
// approved. Callers must not invoke Compute with zero pets; the membership
// status of a petless member stays whatever it was.
func Compute(statuses []models.PetStatus) models.MembershipStatus {
	var hasRejected, hasActionRequired, hasPending bool
	for _, s := range statuses {
		switch s {
		case models.PetStatusAppealed:
			return models.MembershipAppealed
		case models.PetStatusRejected:
			hasRejected = true
		case models.PetStatusActionRequired:
			hasActionRequired = true
		case models.PetStatusPending:
			hasPending = true
		}
	}
	switch {
	case hasRejected:
		return models.MembershipRejected
	case hasActionRequired:
		return models.MembershipActionRequired
	case hasPending:
		return models.MembershipPending
	default:
		return models.MembershipActive
	}
}
