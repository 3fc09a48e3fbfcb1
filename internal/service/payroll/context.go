package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/formula"
)

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// BuildContext returns the formula context for one employee's month.
func BuildContext(emp employee.Employee, counts DayCounts, month, year int) formula.Context {
	ctx := formula.Context{}

	ctx.SetFloat(payroll.VarPresent, counts.Present)
	ctx.SetFloat(payroll.VarWeekOff, counts.WeekOff)
	ctx.SetFloat(payroll.VarHoliday, counts.Holiday)
	ctx.SetFloat(payroll.VarPaidLeave, counts.PaidLeave)
	ctx.SetFloat(payroll.VarUnpaidLeave, counts.UnpaidLeave)
	ctx.SetFloat(payroll.VarLossOfPayLeave, counts.UnpaidLeave)
	ctx.SetFloat(payroll.VarLeave, counts.PaidLeave+counts.UnpaidLeave)
	ctx.SetFloat(payroll.VarHalfDay, counts.HalfDay)
	ctx.SetFloat(payroll.VarPermission, counts.Permission)
	ctx.SetFloat(payroll.VarLate, counts.Late)
	ctx.SetFloat(payroll.VarEarlyExit, counts.EarlyExit)
	ctx.SetFloat(payroll.VarWorkingHours, counts.WorkingHours)
	ctx.SetFloat(payroll.VarDaysInMonth, float64(DaysInMonth(month, year)))
	ctx.SetFloat(payroll.VarPayableDays, counts.Present+counts.WeekOff+counts.Holiday+counts.PaidLeave)
	ctx.SetFloat(payroll.VarPayMonth, float64(month))
	ctx.SetFloat(payroll.VarPayYear, float64(year))

	ctx.SetString(payroll.VarDesignation, deref(emp.Designation))
	ctx.SetString(payroll.VarDepartment, deref(emp.Department))
	ctx.SetString(payroll.VarEmploymentType, string(emp.EmploymentType))

	return ctx
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
