package pets

import "time"

// Waiting-period lengths in days. Replacement pets always serve the full
// period; original pets with adoption papers or a RUAC registration get the
// reduced one.
const (
	FullWaitingDays    = 180
	ReducedWaitingDays = 120
)

// ReductionReason explains why a reduced waiting period applies.
type ReductionReason string

const (
	ReductionAdopted ReductionReason = "adopted"
	ReductionRUAC    ReductionReason = "ruac"
	ReductionBoth    ReductionReason = "both"
)

// WaitingPeriod is the computed coverage waiting period for a pet.
type WaitingPeriod struct {
	Days            int             `json:"days"`
	Months          int             `json:"months"`
	EndDate         time.Time       `json:"end_date"`
	HasReduction    bool            `json:"has_reduction"`
	ReductionReason ReductionReason `json:"reduction_reason,omitempty"`
}

// CalculateWaitingPeriod computes the waiting period from the pet's
// registration flags. start is the date the period begins (the pet's
// registration date); callers quoting an ad-hoc estimate pass time.Now().
// Rules, first match wins:
//  1. a replacement pet (not original) serves the full period, reductions never apply
//  2. an original pet that is adopted or RUAC-registered serves the reduced period
//  3. everything else serves the full period
func CalculateWaitingPeriod(isOriginal, isAdopted, hasRUAC bool, start time.Time) WaitingPeriod {
	days := FullWaitingDays
	var reason ReductionReason

	if isOriginal && (isAdopted || hasRUAC) {
		days = ReducedWaitingDays
		switch {
		case isAdopted && hasRUAC:
			reason = ReductionBoth
		case hasRUAC:
			reason = ReductionRUAC
		default:
			reason = ReductionAdopted
		}
	}

	return WaitingPeriod{
		Days:            days,
		Months:          days / 30,
		EndDate:         start.AddDate(0, 0, days),
		HasReduction:    reason != "",
		ReductionReason: reason,
	}
}

// WaitingProgress returns the percentage of the waiting period elapsed at
// now, clamped to [0, 100].
func WaitingProgress(start, end, now time.Time) int {
	total := end.Sub(start)
	if total <= 0 {
		return 100
	}
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	pct := int(elapsed * 100 / total)
	if pct > 100 {
		pct = 100
	}
	return pct
}
