package payroll

import "context"

type PayrollService interface {
	// Components
	CreateComponent(ctx context.Context, companyID string, req CreateSalaryComponentRequest) (SalaryComponent, error)
	ListComponents(ctx context.Context, companyID string) ([]SalaryComponent, error)

	// Salary masters
	GetSalaryMaster(ctx context.Context, companyID, employeeID string) (EmployeeSalaryMaster, error)
	UpsertSalaryMaster(ctx context.Context, companyID, employeeID string, req UpsertSalaryMasterRequest) (EmployeeSalaryMaster, error)

	// Generation
	GenerateMonthly(ctx context.Context, companyID string, month, year int) (GenerationResult, error)
	ListGenerations(ctx context.Context, companyID string, month, year int) ([]SalaryGeneration, error)

	// Formulas
	EvaluateFormula(ctx context.Context, req EvaluateFormulaRequest) (EvaluateFormulaResponse, error)
}
