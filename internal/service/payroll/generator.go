package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/formula"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultWorkerPoolSize = 4

// Generator computes and stores one company-month of salaries.
type Generator struct {
	tx             database.Transactor
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	leaveTypeRepo  leave.LeaveTypeRepository
	componentRepo  payroll.SalaryComponentRepository
	masterRepo     payroll.SalaryMasterRepository
	generationRepo payroll.SalaryGenerationRepository
	workers        int
	now            func() time.Time
}

func NewGenerator(
	tx database.Transactor,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	leaveTypeRepo leave.LeaveTypeRepository,
	componentRepo payroll.SalaryComponentRepository,
	masterRepo payroll.SalaryMasterRepository,
	generationRepo payroll.SalaryGenerationRepository,
	workers int,
	now func() time.Time,
) *Generator {
	if workers <= 0 {
		workers = defaultWorkerPoolSize
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{
		tx:             tx,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		leaveTypeRepo:  leaveTypeRepo,
		componentRepo:  componentRepo,
		masterRepo:     masterRepo,
		generationRepo: generationRepo,
		workers:        workers,
		now:            now,
	}
}

// compiledComponent is a salary component with its formula parsed once per run.
type compiledComponent struct {
	payroll.SalaryComponent
	expr     *formula.Expression
	parseErr error
}

// computed is one employee's outcome before anything is written.
type computed struct {
	row        payroll.SalaryGeneration
	master     *payroll.EmployeeSalaryMaster
	deductions map[string]decimal.Decimal // by component ID
	failure    *payroll.GenerationFailure
}

// GenerateMonthly runs payroll for every active employee of the company.
//
// Any Absent attendance day in the month aborts the run with an
// *payroll.UnresolvedAttendanceError before anything is computed. Formula
// failures only exclude the affected employee. Successful rows are written in
// one transaction, so a failed or cancelled run leaves the month untouched.
func (g *Generator) GenerateMonthly(ctx context.Context, companyID string, month, year int) (payroll.GenerationResult, error) {
	if err := payroll.ValidatePeriod(month, year); err != nil {
		return payroll.GenerationResult{}, err
	}

	employees, err := g.employeeRepo.GetActiveByCompanyID(ctx, companyID)
	if err != nil {
		return payroll.GenerationResult{}, fmt.Errorf("failed to get active employees: %w", err)
	}

	records, err := g.attendanceRepo.GetByCompanyMonth(ctx, companyID, month, year)
	if err != nil {
		return payroll.GenerationResult{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	byEmployee := make(map[string][]attendance.Attendance, len(employees))
	for _, r := range records {
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}

	if absent := findAbsentEmployees(employees, byEmployee); len(absent) > 0 {
		slog.Warn("Payroll generation blocked by unresolved attendance",
			"company_id", companyID, "month", month, "year", year, "employees", len(absent))
		return payroll.GenerationResult{}, &payroll.UnresolvedAttendanceError{Month: month, Year: year, AbsentEmployees: absent}
	}

	components, err := g.componentRepo.GetByCompanyID(ctx, companyID, true)
	if err != nil {
		return payroll.GenerationResult{}, fmt.Errorf("failed to get salary components: %w", err)
	}
	earnings, deductions := compileComponents(components)

	masters, err := g.masterRepo.GetActiveByCompanyID(ctx, companyID)
	if err != nil {
		return payroll.GenerationResult{}, fmt.Errorf("failed to get salary masters: %w", err)
	}
	masterByEmployee := make(map[string]*payroll.EmployeeSalaryMaster, len(masters))
	for i := range masters {
		masterByEmployee[masters[i].EmployeeID] = &masters[i]
	}

	leaveTypes, err := g.leaveTypeRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		return payroll.GenerationResult{}, fmt.Errorf("failed to get leave types: %w", err)
	}
	typeIndex := NewLeaveTypeIndex(leaveTypes)

	results := make([]computed, len(employees))
	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for i := range employees {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			emp := employees[i]
			results[i] = computeEmployee(emp, byEmployee[emp.ID], masterByEmployee[emp.ID], earnings, deductions, typeIndex, month, year)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return payroll.GenerationResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return payroll.GenerationResult{}, err
	}

	generatedAt := g.now()
	result := payroll.GenerationResult{Month: month, Year: year, Rows: []payroll.SalaryGeneration{}, Failures: []payroll.GenerationFailure{}}

	err = g.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := g.generationRepo.LockCompanyMonth(txCtx, companyID, month, year); err != nil {
			return fmt.Errorf("failed to lock payroll month: %w", err)
		}

		for _, c := range results {
			if c.failure != nil {
				// a row from an earlier run no longer matches the inputs
				if err := g.generationRepo.Delete(txCtx, companyID, c.failure.EmployeeID, month, year); err != nil {
					return fmt.Errorf("failed to clear salary generation for employee %s: %w", c.failure.EmployeeID, err)
				}
				continue
			}
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate salary generation id: %w", err)
			}
			c.row.ID = id.String()
			c.row.CompanyID = companyID
			c.row.GeneratedAt = generatedAt

			saved, err := g.generationRepo.Upsert(txCtx, c.row)
			if err != nil {
				return fmt.Errorf("failed to save salary generation for employee %s: %w", c.row.EmployeeID, err)
			}
			if c.master != nil && len(c.deductions) > 0 {
				if err := g.masterRepo.UpdateComputedAmounts(txCtx, c.master.ID, c.deductions); err != nil {
					return fmt.Errorf("failed to update salary master %s: %w", c.master.ID, err)
				}
			}
			result.Rows = append(result.Rows, saved)
		}
		return nil
	})
	if err != nil {
		return payroll.GenerationResult{}, err
	}

	for _, c := range results {
		if c.failure != nil {
			result.Failures = append(result.Failures, *c.failure)
		}
	}
	result.Succeeded = len(result.Rows)

	slog.Info("Payroll generated",
		"company_id", companyID, "month", month, "year", year,
		"succeeded", result.Succeeded, "failed", len(result.Failures))
	return result, nil
}

func findAbsentEmployees(employees []employee.Employee, byEmployee map[string][]attendance.Attendance) []payroll.AbsentEmployee {
	var absent []payroll.AbsentEmployee
	for _, emp := range employees {
		var dates []string
		for _, r := range byEmployee[emp.ID] {
			if r.Status.Kind == attendance.StatusAbsent {
				dates = append(dates, r.Date.Format(time.DateOnly))
			}
		}
		if len(dates) > 0 {
			absent = append(absent, payroll.AbsentEmployee{
				StaffID:      emp.ID,
				StaffNumber:  emp.EmployeeCode,
				EmployeeName: emp.FullName,
				AbsentDates:  dates,
			})
		}
	}
	return absent
}

// compileComponents splits components into earnings and deductions, keeping
// the repository's display order, and parses every formula.
func compileComponents(components []payroll.SalaryComponent) (earnings, deductions []compiledComponent) {
	for _, c := range components {
		cc := compiledComponent{SalaryComponent: c}
		if c.CalculationType == payroll.CalculationTypeFormula {
			if c.Formula == nil {
				cc.parseErr = fmt.Errorf("%w: formula is empty", formula.ErrSyntax)
			} else {
				cc.expr, cc.parseErr = formula.Parse(*c.Formula)
			}
		}
		if c.Type == payroll.ComponentTypeDeduction {
			deductions = append(deductions, cc)
		} else {
			earnings = append(earnings, cc)
		}
	}
	return earnings, deductions
}

func computeEmployee(
	emp employee.Employee,
	records []attendance.Attendance,
	master *payroll.EmployeeSalaryMaster,
	earnings, deductions []compiledComponent,
	types LeaveTypeIndex,
	month, year int,
) computed {
	fail := func(reason error) computed {
		f := &payroll.GenerationFailure{
			EmployeeID:   emp.ID,
			StaffNumber:  emp.EmployeeCode,
			EmployeeName: emp.FullName,
			Reason:       reason.Error(),
		}
		var compErr *payroll.ComponentError
		if errors.As(reason, &compErr) {
			f.ComponentCode = compErr.Code
			f.Formula = compErr.Formula
		}
		slog.Warn("Payroll generation failed for employee", "employee_id", emp.ID, "error", reason)
		return computed{failure: f}
	}

	if master == nil {
		return fail(payroll.ErrSalaryMasterNotFound)
	}

	counts := Classify(records, types)
	fctx := BuildContext(emp, counts, month, year)

	assigned := make(map[string]decimal.Decimal, len(master.Components))
	for _, mc := range master.Components {
		assigned[mc.ComponentID] = mc.Amount
	}
	for code, amount := range master.EarningAmounts() {
		fctx.SetNumber(code, amount)
	}

	row := payroll.SalaryGeneration{
		EmployeeID:             emp.ID,
		Month:                  month,
		Year:                   year,
		PresentDays:            counts.Present,
		WeekOffDays:            counts.WeekOff,
		HolidayDays:            counts.Holiday,
		PaidLeaveDays:          counts.PaidLeave,
		PaidLeaveTypeBreakdown: counts.PaidLeaveByType,
		UnpaidLeaveDays:        counts.UnpaidLeave,
		EarningsDetail:         make(map[string]decimal.Decimal, len(earnings)),
		DeductionsDetail:       make(map[string]decimal.Decimal, len(deductions)),
		EmployeeName:           &emp.FullName,
		EmployeeCode:           &emp.EmployeeCode,
	}

	gross, netEarnings := decimal.Zero, decimal.Zero
	for _, c := range earnings {
		amount, err := componentAmount(c, assigned, fctx, emp.ID)
		if err != nil {
			return fail(err)
		}
		fctx.SetNumber(c.Code, amount)
		row.EarningsDetail[c.Code] = amount
		if c.AffectsGrossSalary {
			gross = gross.Add(amount)
			if c.AffectsNetSalary {
				netEarnings = netEarnings.Add(amount)
			}
		}
	}
	fctx.SetNumber(payroll.VarGrossSalary, gross)

	total, netDeductions := decimal.Zero, decimal.Zero
	computedDeductions := make(map[string]decimal.Decimal, len(deductions))
	for _, c := range deductions {
		amount, err := componentAmount(c, assigned, fctx, emp.ID)
		if err != nil {
			return fail(err)
		}
		fctx.SetNumber(c.Code, amount)
		row.DeductionsDetail[c.Code] = amount
		computedDeductions[c.ID] = amount
		total = total.Add(amount)
		if c.AffectsNetSalary {
			netDeductions = netDeductions.Add(amount)
		}
	}

	row.GrossSalary = gross.Round(2)
	row.TotalDeductions = total.Round(2)
	row.NetSalary = netEarnings.Sub(netDeductions).Round(2)

	return computed{row: row, master: master, deductions: computedDeductions}
}

// componentAmount is the assigned amount of a fixed component or the evaluated
// formula of a formula component, rounded to cents.
func componentAmount(c compiledComponent, assigned map[string]decimal.Decimal, fctx formula.Context, employeeID string) (decimal.Decimal, error) {
	if c.CalculationType != payroll.CalculationTypeFormula {
		return assigned[c.ID].Round(2), nil
	}

	src := ""
	if c.Formula != nil {
		src = *c.Formula
	}
	if c.parseErr != nil {
		return decimal.Zero, &payroll.ComponentError{Code: c.Code, Formula: src, Err: c.parseErr}
	}

	res, err := c.expr.Eval(fctx)
	if err != nil {
		return decimal.Zero, &payroll.ComponentError{Code: c.Code, Formula: src, Err: err}
	}
	if len(res.Unresolved) > 0 {
		slog.Warn("Formula references unknown identifiers",
			"employee_id", employeeID, "component_code", c.Code, "identifiers", res.Unresolved)
	}
	return res.Value.Round(2), nil
}
