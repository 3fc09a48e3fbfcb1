package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/formula"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "company-1"

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(d int) time.Time { return time.Date(2025, time.February, d, 0, 0, 0, 0, time.UTC) }

func record(employeeID string, d int, status attendance.Status) attendance.Attendance {
	return attendance.Attendance{
		ID:           employeeID + "-" + day(d).Format(time.DateOnly),
		CompanyID:    testCompanyID,
		EmployeeID:   employeeID,
		Date:         day(d),
		Status:       status,
		WorkingHours: 8,
	}
}

// february builds a full February 2025 for the sweeper: one paid leave day, one
// unpaid leave day named only by type, one holiday, one half day, four week
// offs and twenty present days of which one is late.
func february(employeeID string) []attendance.Attendance {
	records := []attendance.Attendance{
		record(employeeID, 1, attendance.Leave("casual", "Casual")),
		record(employeeID, 2, attendance.Leave("", "without pay")),
		record(employeeID, 3, attendance.Holiday()),
		record(employeeID, 4, attendance.HalfDay()),
	}
	for d := 5; d <= 8; d++ {
		records = append(records, record(employeeID, d, attendance.WeekOff()))
	}
	records = append(records, record(employeeID, 9, attendance.Late()))
	for d := 10; d <= 28; d++ {
		records = append(records, record(employeeID, d, attendance.Present()))
	}
	return records
}

type fixture struct {
	svc         payroll.PayrollService
	employees   *fakeEmployeeRepo
	attendance  *fakeAttendanceRepo
	components  *fakeComponentRepo
	masters     *fakeMasterRepo
	generations *fakeGenerationRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		employees: &fakeEmployeeRepo{employees: []employee.Employee{
			{ID: "emp-1", CompanyID: testCompanyID, EmployeeCode: "S-001", FullName: "Ana", Designation: strPtr("Sweeper "), EmploymentStatus: employee.EmploymentStatusActive},
			{ID: "emp-2", CompanyID: testCompanyID, EmployeeCode: "S-002", FullName: "Budi", Designation: strPtr("Clerk"), EmploymentStatus: employee.EmploymentStatusActive},
			{ID: "emp-3", CompanyID: testCompanyID, EmployeeCode: "S-003", FullName: "Citra", EmploymentStatus: employee.EmploymentStatusResigned},
		}},
		attendance: &fakeAttendanceRepo{},
		components: &fakeComponentRepo{components: []payroll.SalaryComponent{
			{ID: "c-basic", CompanyID: testCompanyID, Code: "BASIC", Type: payroll.ComponentTypeEarning, CalculationType: payroll.CalculationTypeFixed,
				AffectsGrossSalary: true, AffectsNetSalary: true, DisplayOrder: 1, IsActive: true},
			{ID: "c-allow", CompanyID: testCompanyID, Code: "ALLOW", Type: payroll.ComponentTypeEarning, CalculationType: payroll.CalculationTypeFormula,
				Formula:            strPtr(`NORM(designation) == NORM("Sweeper") ? (present + (leave - lossOfPayLeave)) * 100 : 0`),
				AffectsGrossSalary: true, AffectsNetSalary: true, DisplayOrder: 2, IsActive: true},
			{ID: "c-bonus", CompanyID: testCompanyID, Code: "BONUS", Type: payroll.ComponentTypeEarning, CalculationType: payroll.CalculationTypeFormula,
				Formula: strPtr("BASIC * 0.1"), AffectsGrossSalary: true, AffectsNetSalary: false, DisplayOrder: 3, IsActive: true},
			{ID: "c-lop", CompanyID: testCompanyID, Code: "LOP", Type: payroll.ComponentTypeDeduction, CalculationType: payroll.CalculationTypeFormula,
				Formula: strPtr("grossSalary / daysInMonth * lossOfPayLeave"), AffectsNetSalary: true, DisplayOrder: 4, IsActive: true},
			{ID: "c-tax", CompanyID: testCompanyID, Code: "TAX", Type: payroll.ComponentTypeDeduction, CalculationType: payroll.CalculationTypeFormula,
				Formula: strPtr("grossSalary * 0.05"), AffectsNetSalary: true, DisplayOrder: 5, IsActive: true},
			{ID: "c-old", CompanyID: testCompanyID, Code: "OLD", Type: payroll.ComponentTypeDeduction, CalculationType: payroll.CalculationTypeFormula,
				Formula: strPtr("1 / 0"), AffectsNetSalary: true, DisplayOrder: 6, IsActive: false},
		}},
		masters: &fakeMasterRepo{masters: []payroll.EmployeeSalaryMaster{
			{ID: "m-1", EmployeeID: "emp-1", CompanyID: testCompanyID, IsActive: true, Components: []payroll.SalaryMasterComponent{
				{ComponentID: "c-basic", ComponentCode: "BASIC", ComponentType: payroll.ComponentTypeEarning, Amount: dec("3000")},
			}},
		}},
		generations: newFakeGenerationRepo(),
	}

	leaveTypes := &fakeLeaveTypeRepo{types: []leave.LeaveType{
		{ID: "casual", CompanyID: testCompanyID, Name: "Casual", IsPaid: true},
		{ID: "lwp", CompanyID: testCompanyID, Name: "Without Pay", IsWithoutPay: true},
	}}

	f.attendance.records = february("emp-1")

	f.svc = NewPayrollService(noopTx{}, Repositories{
		Employee:   f.employees,
		Attendance: f.attendance,
		LeaveType:  leaveTypes,
		Component:  f.components,
		Master:     f.masters,
		Generation: f.generations,
	}, Options{WorkerPoolSize: 2, Now: func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }})

	return f
}

func TestClassify(t *testing.T) {
	types := NewLeaveTypeIndex([]leave.LeaveType{
		{ID: "casual", Name: "Casual", IsPaid: true},
		{ID: "lwp", Name: "Without Pay", IsWithoutPay: true},
		{ID: "odd", Name: "Odd", IsPaid: true, IsWithoutPay: true},
	})

	counts := Classify(append(february("emp-1"),
		record("emp-1", 1, attendance.Leave("odd", "Odd")),
		record("emp-1", 1, attendance.Leave("", "Unknown")),
		record("emp-1", 1, attendance.Permission()),
		record("emp-1", 1, attendance.EarlyExit()),
	), types)

	assert.Equal(t, 22.5, counts.Present)
	assert.Equal(t, 4.0, counts.WeekOff)
	assert.Equal(t, 1.0, counts.Holiday)
	assert.Equal(t, 1.0, counts.PaidLeave)
	assert.Equal(t, 3.5, counts.UnpaidLeave)
	assert.Equal(t, 1.0, counts.HalfDay)
	assert.Equal(t, 1.0, counts.Late)
	assert.Equal(t, 1.0, counts.Permission)
	assert.Equal(t, 1.0, counts.EarlyExit)
	assert.Equal(t, map[string]float64{"Casual": 1}, counts.PaidLeaveByType)
	assert.Equal(t, 32.0*8, counts.WorkingHours)
}

func TestBuildContext_SweeperAllowance(t *testing.T) {
	emp := employee.Employee{Designation: strPtr("sweeper "), Department: strPtr("Facilities"), EmploymentType: employee.EmploymentTypeContract}
	ctx := BuildContext(emp, DayCounts{Present: 20, PaidLeave: 1, UnpaidLeave: 1}, 2, 2025)

	got, err := formula.Evaluate(`NORM(designation) == NORM("Sweeper") ? (present + (leave - lossOfPayLeave)) * 100 : 0`, ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("2100")), "got %s", got)

	for name, want := range map[string]string{payroll.VarDaysInMonth: "28", payroll.VarPayableDays: "21", payroll.VarPayMonth: "2", payroll.VarPayYear: "2025"} {
		v, ok := ctx[name].Number()
		require.True(t, ok, name)
		assert.True(t, v.Equal(dec(want)), "%s = %s", name, v)
	}
	assert.Equal(t, "Facilities", ctx[payroll.VarDepartment].String())
	assert.Equal(t, "contract", ctx[payroll.VarEmploymentType].String())
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2, 2024))
	assert.Equal(t, 28, DaysInMonth(2, 2025))
	assert.Equal(t, 31, DaysInMonth(12, 2025))
}

func TestGenerateMonthly(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.GenerateMonthly(context.Background(), testCompanyID, 2, 2025)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Rows, 1)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "emp-2", result.Failures[0].EmployeeID)
	assert.Equal(t, "S-002", result.Failures[0].StaffNumber)

	row := result.Rows[0]
	assert.Equal(t, "emp-1", row.EmployeeID)
	assert.Equal(t, testCompanyID, row.CompanyID)
	assert.Equal(t, 20.5, row.PresentDays)
	assert.Equal(t, 1.0, row.PaidLeaveDays)
	assert.Equal(t, 1.5, row.UnpaidLeaveDays)

	assert.True(t, row.EarningsDetail["BASIC"].Equal(dec("3000")))
	assert.True(t, row.EarningsDetail["ALLOW"].Equal(dec("2150")), "ALLOW = %s", row.EarningsDetail["ALLOW"])
	assert.True(t, row.EarningsDetail["BONUS"].Equal(dec("300")))
	assert.True(t, row.DeductionsDetail["LOP"].Equal(dec("291.96")), "LOP = %s", row.DeductionsDetail["LOP"])
	assert.True(t, row.DeductionsDetail["TAX"].Equal(dec("272.5")))
	assert.NotContains(t, row.DeductionsDetail, "OLD")

	assert.True(t, row.GrossSalary.Equal(dec("5450")), "gross = %s", row.GrossSalary)
	assert.True(t, row.TotalDeductions.Equal(dec("564.46")), "deductions = %s", row.TotalDeductions)
	assert.True(t, row.NetSalary.Equal(dec("4585.54")), "net = %s", row.NetSalary)

	computed := f.masters.computed["m-1"]
	require.NotNil(t, computed)
	assert.True(t, computed["c-lop"].Equal(dec("291.96")))
	assert.True(t, computed["c-tax"].Equal(dec("272.5")))
	assert.Equal(t, 1, f.generations.locks)
}

func TestGenerateMonthly_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GenerateMonthly(ctx, testCompanyID, 2, 2025)
	require.NoError(t, err)
	second, err := f.svc.GenerateMonthly(ctx, testCompanyID, 2, 2025)
	require.NoError(t, err)

	rows, err := f.svc.ListGenerations(ctx, testCompanyID, 2, 2025)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, first.Rows[0].ID, second.Rows[0].ID)
	assert.True(t, first.Rows[0].NetSalary.Equal(second.Rows[0].NetSalary))
	assert.Equal(t, 2, f.generations.upserts)
}

func TestGenerateMonthly_AbsentDayBlocksWholeRun(t *testing.T) {
	f := newFixture(t)
	f.attendance.records = append(f.attendance.records,
		record("emp-2", 3, attendance.Absent()),
		record("emp-2", 4, attendance.Absent()),
		record("emp-3", 5, attendance.Absent()),
	)

	_, err := f.svc.GenerateMonthly(context.Background(), testCompanyID, 2, 2025)
	require.ErrorIs(t, err, payroll.ErrUnresolvedAttendance)

	var unresolved *payroll.UnresolvedAttendanceError
	require.ErrorAs(t, err, &unresolved)
	require.Len(t, unresolved.AbsentEmployees, 1)
	assert.Equal(t, payroll.AbsentEmployee{
		StaffID: "emp-2", StaffNumber: "S-002", EmployeeName: "Budi",
		AbsentDates: []string{"2025-02-03", "2025-02-04"},
	}, unresolved.AbsentEmployees[0])

	assert.Equal(t, 0, f.generations.locks)
	assert.Equal(t, 0, f.generations.upserts)
	assert.Nil(t, f.masters.computed)
}

func TestGenerateMonthly_FormulaErrorFailsOnlyThatEmployee(t *testing.T) {
	f := newFixture(t)
	f.masters.masters = append(f.masters.masters, payroll.EmployeeSalaryMaster{
		ID: "m-2", EmployeeID: "emp-2", CompanyID: testCompanyID, IsActive: true,
		Components: []payroll.SalaryMasterComponent{{ComponentID: "c-basic", ComponentCode: "BASIC", ComponentType: payroll.ComponentTypeEarning, Amount: dec("2000")}},
	})
	// emp-2 has no attendance, so present is 0.
	f.components.components = append(f.components.components, payroll.SalaryComponent{
		ID: "c-rate", CompanyID: testCompanyID, Code: "RATE", Type: payroll.ComponentTypeEarning, CalculationType: payroll.CalculationTypeFormula,
		Formula: strPtr("BASIC / present"), AffectsGrossSalary: false, DisplayOrder: 7, IsActive: true,
	})

	result, err := f.svc.GenerateMonthly(context.Background(), testCompanyID, 2, 2025)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Failures, 1)
	failure := result.Failures[0]
	assert.Equal(t, "emp-2", failure.EmployeeID)
	assert.Equal(t, "RATE", failure.ComponentCode)
	assert.Equal(t, "BASIC / present", failure.Formula)
	assert.NotEmpty(t, failure.Reason)
	_, stored := f.generations.rows[generationKey("emp-2", testCompanyID, 2, 2025)]
	assert.False(t, stored)
}

func TestGenerateMonthly_FailedRerunClearsEarlierRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GenerateMonthly(ctx, testCompanyID, 2, 2025)
	require.NoError(t, err)
	require.Len(t, first.Rows, 1)

	f.components.components[4].Formula = strPtr("grossSalary / 0")

	second, err := f.svc.GenerateMonthly(ctx, testCompanyID, 2, 2025)
	require.NoError(t, err)

	assert.Equal(t, 0, second.Succeeded)
	require.Len(t, second.Failures, 2)
	rows, err := f.svc.ListGenerations(ctx, testCompanyID, 2, 2025)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGenerateMonthly_SyntaxErrorReportsComponent(t *testing.T) {
	f := newFixture(t)
	f.components.components[4].Formula = strPtr("grossSalary * (0.05")

	result, err := f.svc.GenerateMonthly(context.Background(), testCompanyID, 2, 2025)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Succeeded)
	require.Len(t, result.Failures, 2)
	for _, failure := range result.Failures {
		if failure.EmployeeID == "emp-1" {
			assert.Equal(t, "TAX", failure.ComponentCode)
		}
	}
	assert.Equal(t, 0, f.generations.upserts)
}

func TestGenerateMonthly_CancelledWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.GenerateMonthly(ctx, testCompanyID, 2, 2025)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.generations.upserts)
	assert.Equal(t, 0, f.generations.locks)
}

func TestGenerateMonthly_InvalidPeriod(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GenerateMonthly(context.Background(), testCompanyID, 13, 2025)
	assert.Error(t, err)
	assert.Equal(t, 0, f.generations.locks)
}

func TestEvaluateFormula(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.EvaluateFormula(context.Background(), payroll.EvaluateFormulaRequest{
		Expression: `NORM(designation) == NORM("Sweeper") ? (present + (leave - lossOfPayLeave)) * 100 : BONUS`,
		Context:    map[string]interface{}{"designation": "sweeper ", "present": 20.0, "leave": 2.0, "lossOfPayLeave": 1.0},
	})
	require.NoError(t, err)
	assert.True(t, resp.Value.Equal(dec("2100")))
	assert.Equal(t, []string{"BONUS"}, resp.Unresolved)

	_, err = f.svc.EvaluateFormula(context.Background(), payroll.EvaluateFormulaRequest{Expression: "present +"})
	assert.ErrorIs(t, err, formula.ErrSyntax)
}

func TestCreateComponent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateComponent(context.Background(), testCompanyID, payroll.CreateSalaryComponentRequest{
		Name: "Broken", Code: "BROKEN", Type: payroll.ComponentTypeDeduction,
		CalculationType: payroll.CalculationTypeFormula, Formula: strPtr("BASIC *"),
	})
	require.ErrorIs(t, err, formula.ErrSyntax)
	var compErr *payroll.ComponentError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "BROKEN", compErr.Code)

	_, err = f.svc.CreateComponent(context.Background(), testCompanyID, payroll.CreateSalaryComponentRequest{
		Name: "Shadow", Code: payroll.VarGrossSalary, Type: payroll.ComponentTypeEarning, CalculationType: payroll.CalculationTypeFixed,
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "code")

	created, err := f.svc.CreateComponent(context.Background(), testCompanyID, payroll.CreateSalaryComponentRequest{
		Name: "Meal", Code: "MEAL", Type: payroll.ComponentTypeEarning, CalculationType: payroll.CalculationTypeFixed,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.AffectsGrossSalary)
	assert.True(t, created.AffectsNetSalary)
}

func TestGetSalaryMaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	master, err := f.svc.GetSalaryMaster(ctx, testCompanyID, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "m-1", master.ID)
	assert.True(t, master.EarningAmounts()["BASIC"].Equal(dec("3000")))

	_, err = f.svc.GetSalaryMaster(ctx, testCompanyID, "emp-2")
	assert.ErrorIs(t, err, payroll.ErrSalaryMasterNotFound)

	_, err = f.svc.GetSalaryMaster(ctx, "company-2", "emp-1")
	assert.ErrorIs(t, err, payroll.ErrSalaryMasterNotFound)
}

func TestUpsertSalaryMaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpsertSalaryMaster(ctx, testCompanyID, "emp-2", payroll.UpsertSalaryMasterRequest{
		Components: []payroll.AssignComponentRequest{{ComponentID: "c-tax", Amount: dec("10")}},
	})
	assert.ErrorIs(t, err, payroll.ErrDeductionNotAssignable)

	_, err = f.svc.UpsertSalaryMaster(ctx, testCompanyID, "emp-2", payroll.UpsertSalaryMasterRequest{
		Components: []payroll.AssignComponentRequest{{ComponentID: "missing", Amount: dec("10")}},
	})
	assert.ErrorIs(t, err, payroll.ErrComponentNotFound)

	_, err = f.svc.UpsertSalaryMaster(ctx, "company-2", "emp-2", payroll.UpsertSalaryMasterRequest{})
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)

	master, err := f.svc.UpsertSalaryMaster(ctx, testCompanyID, "emp-2", payroll.UpsertSalaryMasterRequest{
		Components: []payroll.AssignComponentRequest{{ComponentID: "c-basic", Amount: dec("2500.555")}},
	})
	require.NoError(t, err)
	require.Len(t, master.Components, 1)
	assert.Equal(t, "BASIC", master.Components[0].ComponentCode)
	assert.True(t, master.Components[0].Amount.Equal(dec("2500.56")))
}
