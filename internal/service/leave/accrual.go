package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
)

// AccruedTillDate returns how much of allocatedLeaves has been credited by asOf.
//
// Monthly and quarterly policies credit in advance: the month (or quarter) that
// contains asOf is already earned. The result is floored to quarter days and
// never exceeds allocatedLeaves. Yearly and on-joining policies credit the whole
// allocation up front.
func AccruedTillDate(policy leave.LeavePolicy, allocatedLeaves float64, period leave.LeavePeriod, asOf time.Time) float64 {
	if allocatedLeaves <= 0 {
		return 0
	}

	var step int
	switch policy.AccrualFrequency {
	case leave.AccrualMonthly:
		step = 1
	case leave.AccrualQuarterly:
		step = 3
	default:
		return allocatedLeaves
	}

	start := leave.DateOnly(period.StartDate)
	end := leave.DateOnly(period.EndDate)
	day := leave.DateOnly(asOf)
	if day.Before(start) {
		return 0
	}
	if day.After(end) {
		day = end
	}

	totalMonths := monthsBetween(start, end) + 1
	totalSteps := (totalMonths + step - 1) / step
	elapsedSteps := monthsBetween(start, day)/step + 1
	if elapsedSteps >= totalSteps {
		return allocatedLeaves
	}

	accrued := leave.FloorQuarter(allocatedLeaves * float64(elapsedSteps) / float64(totalSteps))
	if accrued > allocatedLeaves {
		return allocatedLeaves
	}
	return accrued
}

// monthsBetween counts whole calendar months from a to b, ignoring the day of month.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
