package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComponentType enum
type ComponentType string

const (
	ComponentTypeEarning   ComponentType = "earning"
	ComponentTypeDeduction ComponentType = "deduction"
)

type CalculationType string

const (
	CalculationTypeFixed   CalculationType = "fixed"
	CalculationTypeFormula CalculationType = "formula"
)

// SalaryComponent - Earning or deduction line of a payslip.
// Code is what formulas reference and is unique per company.
type SalaryComponent struct {
	ID                 string          `json:"id"`
	CompanyID          string          `json:"company_id"`
	Name               string          `json:"name"`
	Code               string          `json:"code"`
	Type               ComponentType   `json:"type"`
	CalculationType    CalculationType `json:"calculation_type"`
	Formula            *string         `json:"formula,omitempty"`
	AffectsGrossSalary bool            `json:"affects_gross_salary"`
	AffectsNetSalary   bool            `json:"affects_net_salary"`
	IsTaxable          bool            `json:"is_taxable"`
	IsStatutory        bool            `json:"is_statutory"`
	DisplayOrder       int             `json:"display_order"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// EmployeeSalaryMaster - the active salary structure of one employee
type EmployeeSalaryMaster struct {
	ID         string                  `json:"id"`
	EmployeeID string                  `json:"employee_id"`
	CompanyID  string                  `json:"company_id"`
	IsActive   bool                    `json:"is_active"`
	Components []SalaryMasterComponent `json:"components"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// SalaryMasterComponent holds the assigned amount of an Earning component,
// or the last computed amount of a Deduction component.
type SalaryMasterComponent struct {
	ComponentID   string          `json:"component_id"`
	ComponentCode string          `json:"component_code"`
	ComponentType ComponentType   `json:"component_type"`
	Amount        decimal.Decimal `json:"amount"`
}

// EarningAmounts returns the assigned earning amounts keyed by component code.
func (m EmployeeSalaryMaster) EarningAmounts() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m.Components))
	for _, c := range m.Components {
		if c.ComponentType == ComponentTypeEarning {
			out[c.ComponentCode] = c.Amount
		}
	}
	return out
}

// SalaryGeneration - one employee's computed payroll for a month.
// (EmployeeID, CompanyID, Month, Year) is unique.
type SalaryGeneration struct {
	ID                     string                     `json:"id"`
	EmployeeID             string                     `json:"employee_id"`
	CompanyID              string                     `json:"company_id"`
	Month                  int                        `json:"month"`
	Year                   int                        `json:"year"`
	PresentDays            float64                    `json:"present_days"`
	WeekOffDays            float64                    `json:"week_off_days"`
	HolidayDays            float64                    `json:"holiday_days"`
	PaidLeaveDays          float64                    `json:"paid_leave_days"`
	PaidLeaveTypeBreakdown map[string]float64         `json:"paid_leave_type_breakdown"`
	UnpaidLeaveDays        float64                    `json:"unpaid_leave_days"`
	GrossSalary            decimal.Decimal            `json:"gross_salary"`
	TotalDeductions        decimal.Decimal            `json:"total_deductions"`
	NetSalary              decimal.Decimal            `json:"net_salary"`
	EarningsDetail         map[string]decimal.Decimal `json:"earnings_detail"`
	DeductionsDetail       map[string]decimal.Decimal `json:"deductions_detail"`
	GeneratedAt            time.Time                  `json:"generated_at"`
	CreatedAt              time.Time                  `json:"created_at"`
	UpdatedAt              time.Time                  `json:"updated_at"`

	// Joined fields
	EmployeeName *string `json:"employee_name,omitempty"`
	EmployeeCode *string `json:"employee_code,omitempty"`
}

// GenerationResult is the outcome of a monthly run that passed the attendance gate.
type GenerationResult struct {
	Month     int                 `json:"month"`
	Year      int                 `json:"year"`
	Rows      []SalaryGeneration  `json:"rows"`
	Failures  []GenerationFailure `json:"failures"`
	Succeeded int                 `json:"succeeded"`
}

// GenerationFailure records why one employee got no row.
type GenerationFailure struct {
	EmployeeID    string `json:"employee_id"`
	StaffNumber   string `json:"staff_number"`
	EmployeeName  string `json:"employee_name"`
	ComponentCode string `json:"component_code,omitempty"`
	Formula       string `json:"formula,omitempty"`
	Reason        string `json:"reason"`
}

// AbsentEmployee identifies an employee blocking a run with unresolved Absent days.
type AbsentEmployee struct {
	StaffID      string   `json:"staff_id"`
	StaffNumber  string   `json:"staff_number"`
	EmployeeName string   `json:"employee_name"`
	AbsentDates  []string `json:"absent_dates"`
}
