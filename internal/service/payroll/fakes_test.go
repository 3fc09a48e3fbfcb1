package payroll

import (
	"context"
	"fmt"
	"sync"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type noopTx struct{}

func (noopTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	for _, e := range r.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) GetActiveByCompanyID(_ context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range r.employees {
		if e.CompanyID == companyID && e.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAttendanceRepo struct {
	records []attendance.Attendance
}

func (r *fakeAttendanceRepo) GetByCompanyMonth(_ context.Context, companyID string, month, year int) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, a := range r.records {
		if a.CompanyID == companyID && int(a.Date.Month()) == month && a.Date.Year() == year {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeLeaveTypeRepo struct {
	types []leave.LeaveType
}

func (r *fakeLeaveTypeRepo) Create(_ context.Context, t leave.LeaveType) (leave.LeaveType, error) {
	r.types = append(r.types, t)
	return t, nil
}

func (r *fakeLeaveTypeRepo) GetByID(_ context.Context, id, companyID string) (leave.LeaveType, error) {
	for _, t := range r.types {
		if t.ID == id && t.CompanyID == companyID {
			return t, nil
		}
	}
	return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
}

func (r *fakeLeaveTypeRepo) GetByCompanyID(_ context.Context, companyID string) ([]leave.LeaveType, error) {
	var out []leave.LeaveType
	for _, t := range r.types {
		if t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeComponentRepo struct {
	components []payroll.SalaryComponent
}

func (r *fakeComponentRepo) Create(_ context.Context, c payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	r.components = append(r.components, c)
	return c, nil
}

func (r *fakeComponentRepo) GetByCompanyID(_ context.Context, companyID string, activeOnly bool) ([]payroll.SalaryComponent, error) {
	var out []payroll.SalaryComponent
	for _, c := range r.components {
		if c.CompanyID == companyID && (!activeOnly || c.IsActive) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeMasterRepo struct {
	mu       sync.Mutex
	masters  []payroll.EmployeeSalaryMaster
	computed map[string]map[string]decimal.Decimal
}

func (r *fakeMasterRepo) Upsert(_ context.Context, m payroll.EmployeeSalaryMaster) (payroll.EmployeeSalaryMaster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.masters {
		if r.masters[i].EmployeeID == m.EmployeeID {
			m.ID = r.masters[i].ID
			r.masters[i] = m
			return m, nil
		}
	}
	r.masters = append(r.masters, m)
	return m, nil
}

func (r *fakeMasterRepo) GetActiveByEmployeeID(_ context.Context, employeeID, companyID string) (payroll.EmployeeSalaryMaster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.masters {
		if m.EmployeeID == employeeID && m.CompanyID == companyID {
			return m, nil
		}
	}
	return payroll.EmployeeSalaryMaster{}, payroll.ErrSalaryMasterNotFound
}

func (r *fakeMasterRepo) GetActiveByCompanyID(_ context.Context, companyID string) ([]payroll.EmployeeSalaryMaster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.EmployeeSalaryMaster
	for _, m := range r.masters {
		if m.CompanyID == companyID && m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMasterRepo) UpdateComputedAmounts(_ context.Context, masterID string, amounts map[string]decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.computed == nil {
		r.computed = map[string]map[string]decimal.Decimal{}
	}
	r.computed[masterID] = amounts
	return nil
}

type fakeGenerationRepo struct {
	mu      sync.Mutex
	rows    map[string]payroll.SalaryGeneration
	locks   int
	upserts int
}

func newFakeGenerationRepo() *fakeGenerationRepo {
	return &fakeGenerationRepo{rows: map[string]payroll.SalaryGeneration{}}
}

func generationKey(employeeID, companyID string, month, year int) string {
	return fmt.Sprintf("%s/%s/%d/%d", employeeID, companyID, month, year)
}

func (r *fakeGenerationRepo) LockCompanyMonth(_ context.Context, _ string, _, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks++
	return nil
}

func (r *fakeGenerationRepo) Upsert(_ context.Context, g payroll.SalaryGeneration) (payroll.SalaryGeneration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	key := generationKey(g.EmployeeID, g.CompanyID, g.Month, g.Year)
	if existing, ok := r.rows[key]; ok {
		g.ID = existing.ID
	}
	r.rows[key] = g
	return g, nil
}

func (r *fakeGenerationRepo) Delete(_ context.Context, companyID, employeeID string, month, year int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, generationKey(employeeID, companyID, month, year))
	return nil
}

func (r *fakeGenerationRepo) ListByCompanyMonth(_ context.Context, companyID string, month, year int) ([]payroll.SalaryGeneration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.SalaryGeneration
	for _, g := range r.rows {
		if g.CompanyID == companyID && g.Month == month && g.Year == year {
			out = append(out, g)
		}
	}
	return out, nil
}
