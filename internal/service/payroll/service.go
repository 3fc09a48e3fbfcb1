package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/formula"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repositories struct {
	Employee   employee.EmployeeRepository
	Attendance attendance.AttendanceRepository
	LeaveType  leave.LeaveTypeRepository
	Component  payroll.SalaryComponentRepository
	Master     payroll.SalaryMasterRepository
	Generation payroll.SalaryGenerationRepository
}

type Options struct {
	WorkerPoolSize int
	Now            func() time.Time
}

type PayrollServiceImpl struct {
	*Generator
	employeeRepo   employee.EmployeeRepository
	componentRepo  payroll.SalaryComponentRepository
	masterRepo     payroll.SalaryMasterRepository
	generationRepo payroll.SalaryGenerationRepository
}

func NewPayrollService(tx database.Transactor, repos Repositories, opts Options) payroll.PayrollService {
	return &PayrollServiceImpl{
		Generator: NewGenerator(tx, repos.Employee, repos.Attendance, repos.LeaveType,
			repos.Component, repos.Master, repos.Generation, opts.WorkerPoolSize, opts.Now),
		employeeRepo:   repos.Employee,
		componentRepo:  repos.Component,
		masterRepo:     repos.Master,
		generationRepo: repos.Generation,
	}
}

// ========== COMPONENTS ==========

// CreateComponent stores a component after checking that its formula parses.
func (s *PayrollServiceImpl) CreateComponent(ctx context.Context, companyID string, req payroll.CreateSalaryComponentRequest) (payroll.SalaryComponent, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryComponent{}, err
	}

	component := req.ToEntity(companyID)
	if component.Formula != nil {
		if _, err := formula.Parse(*component.Formula); err != nil {
			return payroll.SalaryComponent{}, &payroll.ComponentError{Code: component.Code, Formula: *component.Formula, Err: err}
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.SalaryComponent{}, fmt.Errorf("failed to generate salary component id: %w", err)
	}
	component.ID = id.String()

	created, err := s.componentRepo.Create(ctx, component)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return payroll.SalaryComponent{}, payroll.ErrComponentCodeExists
		}
		return payroll.SalaryComponent{}, fmt.Errorf("failed to create salary component: %w", err)
	}

	slog.Info("Salary component created", "company_id", companyID, "component_id", created.ID, "code", created.Code)
	return created, nil
}

func (s *PayrollServiceImpl) ListComponents(ctx context.Context, companyID string) ([]payroll.SalaryComponent, error) {
	components, err := s.componentRepo.GetByCompanyID(ctx, companyID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary components: %w", err)
	}
	return components, nil
}

// ========== SALARY MASTERS ==========

func (s *PayrollServiceImpl) GetSalaryMaster(ctx context.Context, companyID, employeeID string) (payroll.EmployeeSalaryMaster, error) {
	master, err := s.masterRepo.GetActiveByEmployeeID(ctx, employeeID, companyID)
	if err != nil {
		if errors.Is(err, payroll.ErrSalaryMasterNotFound) {
			return payroll.EmployeeSalaryMaster{}, err
		}
		return payroll.EmployeeSalaryMaster{}, fmt.Errorf("failed to get salary master: %w", err)
	}
	return master, nil
}

// UpsertSalaryMaster replaces the employee's earning assignments. Deduction
// amounts are computed by payroll runs and cannot be assigned.
func (s *PayrollServiceImpl) UpsertSalaryMaster(ctx context.Context, companyID, employeeID string, req payroll.UpsertSalaryMasterRequest) (payroll.EmployeeSalaryMaster, error) {
	if err := req.Validate(); err != nil {
		return payroll.EmployeeSalaryMaster{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return payroll.EmployeeSalaryMaster{}, payroll.ErrEmployeeNotFound
		}
		return payroll.EmployeeSalaryMaster{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.CompanyID != companyID {
		return payroll.EmployeeSalaryMaster{}, payroll.ErrEmployeeNotFound
	}

	components, err := s.componentRepo.GetByCompanyID(ctx, companyID, false)
	if err != nil {
		return payroll.EmployeeSalaryMaster{}, fmt.Errorf("failed to get salary components: %w", err)
	}
	byID := make(map[string]payroll.SalaryComponent, len(components))
	for _, c := range components {
		byID[c.ID] = c
	}

	assignments := make([]payroll.SalaryMasterComponent, 0, len(req.Components))
	for _, a := range req.Components {
		c, ok := byID[a.ComponentID]
		if !ok {
			return payroll.EmployeeSalaryMaster{}, fmt.Errorf("%w: %s", payroll.ErrComponentNotFound, a.ComponentID)
		}
		if c.Type != payroll.ComponentTypeEarning {
			return payroll.EmployeeSalaryMaster{}, fmt.Errorf("%w: %s", payroll.ErrDeductionNotAssignable, c.Code)
		}
		assignments = append(assignments, payroll.SalaryMasterComponent{
			ComponentID:   c.ID,
			ComponentCode: c.Code,
			ComponentType: c.Type,
			Amount:        a.Amount.Round(2),
		})
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ComponentCode < assignments[j].ComponentCode })

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.EmployeeSalaryMaster{}, fmt.Errorf("failed to generate salary master id: %w", err)
	}

	var saved payroll.EmployeeSalaryMaster
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		saved, err = s.masterRepo.Upsert(txCtx, payroll.EmployeeSalaryMaster{
			ID:         id.String(),
			EmployeeID: emp.ID,
			CompanyID:  companyID,
			IsActive:   true,
			Components: assignments,
		})
		return err
	})
	if err != nil {
		return payroll.EmployeeSalaryMaster{}, fmt.Errorf("failed to save salary master: %w", err)
	}

	slog.Info("Salary master saved", "company_id", companyID, "employee_id", emp.ID, "components", len(assignments))
	return saved, nil
}

// ========== GENERATIONS ==========

func (s *PayrollServiceImpl) ListGenerations(ctx context.Context, companyID string, month, year int) ([]payroll.SalaryGeneration, error) {
	if err := payroll.ValidatePeriod(month, year); err != nil {
		return nil, err
	}

	rows, err := s.generationRepo.ListByCompanyMonth(ctx, companyID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary generations: %w", err)
	}
	return rows, nil
}

// ========== FORMULAS ==========

func (s *PayrollServiceImpl) EvaluateFormula(ctx context.Context, req payroll.EvaluateFormulaRequest) (payroll.EvaluateFormulaResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.EvaluateFormulaResponse{}, err
	}

	fctx, err := formula.ContextFromMap(req.Context)
	if err != nil {
		return payroll.EvaluateFormulaResponse{}, fmt.Errorf("%w: %v", formula.ErrEvaluation, err)
	}

	expr, err := formula.Parse(req.Expression)
	if err != nil {
		return payroll.EvaluateFormulaResponse{}, err
	}
	res, err := expr.Eval(fctx)
	if err != nil {
		return payroll.EvaluateFormulaResponse{}, err
	}

	unresolved := res.Unresolved
	if unresolved == nil {
		unresolved = []string{}
	}
	return payroll.EvaluateFormulaResponse{Value: res.Value, Unresolved: unresolved}, nil
}
