package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/club-pata-amiga/backend/internal/models"
)

func TestCompute_AppealedWinsOverEverything(t *testing.T) {
	sets := [][]models.PetStatus{
		{models.PetStatusAppealed},
		{models.PetStatusApproved, models.PetStatusAppealed},
		{models.PetStatusRejected, models.PetStatusAppealed, models.PetStatusPending},
		{models.PetStatusActionRequired, models.PetStatusAppealed},
	}
	for _, set := range sets {
		assert.Equal(t, models.MembershipAppealed, Compute(set), "set %v", set)
	}
}

func TestCompute_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.PetStatus
		want     models.MembershipStatus
	}{
		{"rejected over action_required", []models.PetStatus{models.PetStatusRejected, models.PetStatusActionRequired}, models.MembershipRejected},
		{"rejected over pending", []models.PetStatus{models.PetStatusPending, models.PetStatusRejected}, models.MembershipRejected},
		{"action_required over pending", []models.PetStatus{models.PetStatusPending, models.PetStatusActionRequired}, models.MembershipActionRequired},
		{"pending over approved", []models.PetStatus{models.PetStatusApproved, models.PetStatusPending}, models.MembershipPending},
		{"single rejected", []models.PetStatus{models.PetStatusRejected}, models.MembershipRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.statuses))
		})
	}
}

func TestCompute_AllApprovedIsActive(t *testing.T) {
	assert.Equal(t, models.MembershipActive, Compute([]models.PetStatus{models.PetStatusApproved}))
	assert.Equal(t, models.MembershipActive, Compute([]models.PetStatus{
		models.PetStatusApproved, models.PetStatusApproved, models.PetStatusApproved,
	}))
}
