package pets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var waitingStart = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func TestCalculateWaitingPeriod_ReplacementPetAlwaysFull(t *testing.T) {
	for _, adopted := range []bool{true, false} {
		for _, ruac := range []bool{true, false} {
			wp := CalculateWaitingPeriod(false, adopted, ruac, waitingStart)
			assert.Equal(t, 180, wp.Days, "adopted=%v ruac=%v", adopted, ruac)
			assert.Equal(t, 6, wp.Months)
			assert.False(t, wp.HasReduction)
			assert.Empty(t, wp.ReductionReason)
			assert.Equal(t, waitingStart.AddDate(0, 0, 180), wp.EndDate)
		}
	}
}

func TestCalculateWaitingPeriod_Reductions(t *testing.T) {
	tests := []struct {
		name    string
		adopted bool
		ruac    bool
		reason  ReductionReason
	}{
		{"adopted only", true, false, ReductionAdopted},
		{"ruac only", false, true, ReductionRUAC},
		{"both", true, true, ReductionBoth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wp := CalculateWaitingPeriod(true, tt.adopted, tt.ruac, waitingStart)
			assert.Equal(t, 120, wp.Days)
			assert.Equal(t, 4, wp.Months)
			assert.True(t, wp.HasReduction)
			assert.Equal(t, tt.reason, wp.ReductionReason)
			assert.Equal(t, waitingStart.AddDate(0, 0, 120), wp.EndDate)
		})
	}
}

func TestCalculateWaitingPeriod_OriginalWithoutFlags(t *testing.T) {
	wp := CalculateWaitingPeriod(true, false, false, waitingStart)
	assert.Equal(t, 180, wp.Days)
	assert.False(t, wp.HasReduction)
}

func TestWaitingProgress(t *testing.T) {
	start := waitingStart
	end := start.AddDate(0, 0, 180)

	assert.Equal(t, 0, WaitingProgress(start, end, start))
	assert.Equal(t, 0, WaitingProgress(start, end, start.Add(-time.Hour)))
	assert.Equal(t, 50, WaitingProgress(start, end, start.AddDate(0, 0, 90)))
	assert.Equal(t, 100, WaitingProgress(start, end, end))
	assert.Equal(t, 100, WaitingProgress(start, end, end.AddDate(0, 0, 30)))
}
