package payroll

import "github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/formula"

// Formula variables available to every component. Earning amounts are added
// under their component codes as they are computed.
const (
	VarPresent        = "present"
	VarWeekOff        = "weekOff"
	VarHoliday        = "holiday"
	VarPaidLeave      = "paidLeave"
	VarUnpaidLeave    = "unpaidLeave"
	VarLossOfPayLeave = "lossOfPayLeave"
	VarLeave          = "leave"
	VarHalfDay        = "halfDay"
	VarPermission     = "permission"
	VarLate           = "late"
	VarEarlyExit      = "earlyExit"
	VarWorkingHours   = "workingHours"
	VarDaysInMonth    = "daysInMonth"
	VarPayableDays    = "payableDays"
	VarDesignation    = "designation"
	VarDepartment     = "department"
	VarEmploymentType = "employmentType"
	VarPayMonth       = "payMonth"
	VarPayYear        = "payYear"
	VarGrossSalary    = "grossSalary"
)

var contextVariables = map[string]struct{}{
	VarPresent: {}, VarWeekOff: {}, VarHoliday: {}, VarPaidLeave: {}, VarUnpaidLeave: {},
	VarLossOfPayLeave: {}, VarLeave: {}, VarHalfDay: {}, VarPermission: {}, VarLate: {},
	VarEarlyExit: {}, VarWorkingHours: {}, VarDaysInMonth: {}, VarPayableDays: {},
	VarDesignation: {}, VarDepartment: {}, VarEmploymentType: {}, VarPayMonth: {},
	VarPayYear: {}, VarGrossSalary: {},
}

// IsReservedCode reports whether code would shadow a formula variable or
// keyword if used as a component code.
func IsReservedCode(code string) bool {
	if _, ok := contextVariables[code]; ok {
		return true
	}
	return formula.IsKeyword(code)
}
