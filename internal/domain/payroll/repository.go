package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// All methods include companyID parameter to prevent cross-company data access.

type SalaryComponentRepository interface {
	Create(ctx context.Context, component SalaryComponent) (SalaryComponent, error)
	// GetByCompanyID returns components ordered by display order, then code.
	GetByCompanyID(ctx context.Context, companyID string, activeOnly bool) ([]SalaryComponent, error)
}

type SalaryMasterRepository interface {
	Upsert(ctx context.Context, master EmployeeSalaryMaster) (EmployeeSalaryMaster, error)
	GetActiveByEmployeeID(ctx context.Context, employeeID, companyID string) (EmployeeSalaryMaster, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]EmployeeSalaryMaster, error)
	// UpdateComputedAmounts stores the last computed deduction amounts, keyed by component ID.
	UpdateComputedAmounts(ctx context.Context, masterID string, amounts map[string]decimal.Decimal) error
}

type SalaryGenerationRepository interface {
	// LockCompanyMonth serialises regeneration of one company-month inside the current transaction.
	LockCompanyMonth(ctx context.Context, companyID string, month, year int) error
	Upsert(ctx context.Context, generation SalaryGeneration) (SalaryGeneration, error)
	// Delete removes the employee's row for the month, if any.
	Delete(ctx context.Context, companyID, employeeID string, month, year int) error
	ListByCompanyMonth(ctx context.Context, companyID string, month, year int) ([]SalaryGeneration, error)
}
