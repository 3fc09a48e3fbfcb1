package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrComponentNotFound      = errors.New("salary component not found")
	ErrComponentCodeExists    = errors.New("salary component code already exists")
	ErrDeductionNotAssignable = errors.New("deduction components are computed and cannot be assigned")
	ErrSalaryMasterNotFound   = errors.New("salary master not found")
	ErrInvalidPeriod          = errors.New("invalid payroll period")
	ErrEmployeeNotFound       = errors.New("employee not found")
	ErrUnresolvedAttendance   = errors.New("unresolved attendance")
)

// UnresolvedAttendanceError aborts a monthly run: at least one employee still
// has Absent days in the month.
type UnresolvedAttendanceError struct {
	Month           int
	Year            int
	AbsentEmployees []AbsentEmployee
}

func (e *UnresolvedAttendanceError) Error() string {
	return fmt.Sprintf("unresolved attendance for %02d/%d: %d employee(s) have absent days", e.Month, e.Year, len(e.AbsentEmployees))
}

func (e *UnresolvedAttendanceError) Is(target error) bool {
	return target == ErrUnresolvedAttendance
}

// ComponentError ties a formula failure to the component that owns the formula.
type ComponentError struct {
	Code    string
	Formula string
	Err     error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %s: %v", e.Code, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}
