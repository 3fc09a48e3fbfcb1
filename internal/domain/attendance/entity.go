package attendance

import (
	"fmt"
	"strings"
	"time"
)

// Attendance is one resolved day of attendance for an employee.
type Attendance struct {
	ID           string
	CompanyID    string
	EmployeeID   string
	Date         time.Time
	Status       Status
	WorkingHours float64
}

type StatusKind int

const (
	StatusPresent StatusKind = iota + 1
	StatusAbsent
	StatusHalfDay
	StatusLeave
	StatusHoliday
	StatusWeekOff
	StatusPermission
	StatusLate
	StatusEarlyExit
)

var statusNames = map[StatusKind]string{
	StatusPresent:    "Present",
	StatusAbsent:     "Absent",
	StatusHalfDay:    "Half-Day",
	StatusLeave:      "Leave",
	StatusHoliday:    "Holiday",
	StatusWeekOff:    "Week Off",
	StatusPermission: "Permission",
	StatusLate:       "Late",
	StatusEarlyExit:  "Early Exit",
}

func (k StatusKind) String() string {
	if name, ok := statusNames[k]; ok {
		return name
	}
	return fmt.Sprintf("StatusKind(%d)", int(k))
}

// Status is the closed set of attendance outcomes. Leave carries the leave
// type it was taken under, by ID when the row links one and by name otherwise.
type Status struct {
	Kind          StatusKind
	LeaveTypeID   string
	LeaveTypeName string
}

func Present() Status    { return Status{Kind: StatusPresent} }
func Absent() Status     { return Status{Kind: StatusAbsent} }
func HalfDay() Status    { return Status{Kind: StatusHalfDay} }
func Holiday() Status    { return Status{Kind: StatusHoliday} }
func WeekOff() Status    { return Status{Kind: StatusWeekOff} }
func Permission() Status { return Status{Kind: StatusPermission} }
func Late() Status       { return Status{Kind: StatusLate} }
func EarlyExit() Status  { return Status{Kind: StatusEarlyExit} }

func Leave(leaveTypeID, leaveTypeName string) Status {
	return Status{Kind: StatusLeave, LeaveTypeID: leaveTypeID, LeaveTypeName: leaveTypeName}
}

func (s Status) String() string {
	if s.Kind == StatusLeave && s.LeaveTypeName != "" {
		return "Leave - " + s.LeaveTypeName
	}
	return s.Kind.String()
}

// ParseStatus resolves a stored status string such as "Present", "Week Off"
// or "Leave - Sick". leaveTypeID is the row's leave type link, if any.
func ParseStatus(raw string, leaveTypeID string) (Status, error) {
	trimmed := strings.TrimSpace(raw)
	key := compact(trimmed)

	switch key {
	case "present":
		return Present(), nil
	case "absent":
		return Absent(), nil
	case "halfday":
		return HalfDay(), nil
	case "holiday":
		return Holiday(), nil
	case "weekoff", "weeklyoff":
		return WeekOff(), nil
	case "permission":
		return Permission(), nil
	case "late":
		return Late(), nil
	case "earlyexit", "earlyleave":
		return EarlyExit(), nil
	}

	if strings.HasPrefix(key, "leave") {
		name := strings.TrimSpace(trimmed[len("leave"):])
		name = strings.TrimSpace(strings.TrimLeft(name, "-:_"))
		return Leave(leaveTypeID, name), nil
	}

	return Status{}, fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// compact lowercases s and drops spaces, dashes and underscores.
func compact(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
