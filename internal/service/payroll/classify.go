package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/formula"
)

// DayCounts is an employee's month of attendance reduced to payable-day buckets.
type DayCounts struct {
	Present      float64
	WeekOff      float64
	Holiday      float64
	PaidLeave    float64
	UnpaidLeave  float64
	HalfDay      float64
	Permission   float64
	Late         float64
	EarlyExit    float64
	WorkingHours float64
	// PaidLeaveByType buckets paid leave days by leave type name.
	PaidLeaveByType map[string]float64
}

// LeaveTypeIndex finds the leave type behind an attendance Leave status, by ID
// first and by normalised name when the row carries no ID.
type LeaveTypeIndex struct {
	byID   map[string]leave.LeaveType
	byName map[string]leave.LeaveType
}

func NewLeaveTypeIndex(types []leave.LeaveType) LeaveTypeIndex {
	idx := LeaveTypeIndex{
		byID:   make(map[string]leave.LeaveType, len(types)),
		byName: make(map[string]leave.LeaveType, len(types)),
	}
	for _, t := range types {
		idx.byID[t.ID] = t
		idx.byName[formula.Normalize(t.Name)] = t
	}
	return idx
}

func (idx LeaveTypeIndex) Lookup(status attendance.Status) (leave.LeaveType, bool) {
	if status.LeaveTypeID != "" {
		if t, ok := idx.byID[status.LeaveTypeID]; ok {
			return t, true
		}
	}
	if status.LeaveTypeName != "" {
		if t, ok := idx.byName[formula.Normalize(status.LeaveTypeName)]; ok {
			return t, true
		}
	}
	return leave.LeaveType{}, false
}

// Classify buckets records. Late, Early Exit and Permission days count as
// present; a Half-Day is half present and half unpaid. Leave of a type that is
// unknown or not paid counts as unpaid. Absent days are expected to have been
// rejected before this point and are ignored.
func Classify(records []attendance.Attendance, types LeaveTypeIndex) DayCounts {
	counts := DayCounts{PaidLeaveByType: map[string]float64{}}

	for _, r := range records {
		counts.WorkingHours += r.WorkingHours

		switch r.Status.Kind {
		case attendance.StatusPresent:
			counts.Present++
		case attendance.StatusLate:
			counts.Present++
			counts.Late++
		case attendance.StatusEarlyExit:
			counts.Present++
			counts.EarlyExit++
		case attendance.StatusPermission:
			counts.Present++
			counts.Permission++
		case attendance.StatusHalfDay:
			counts.Present += 0.5
			counts.UnpaidLeave += 0.5
			counts.HalfDay++
		case attendance.StatusWeekOff:
			counts.WeekOff++
		case attendance.StatusHoliday:
			counts.Holiday++
		case attendance.StatusLeave:
			t, ok := types.Lookup(r.Status)
			if ok && t.CountsAsPaid() {
				counts.PaidLeave++
				counts.PaidLeaveByType[t.Name]++
			} else {
				counts.UnpaidLeave++
			}
		}
	}

	return counts
}
