package payroll

import (
	"strings"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== COMPONENT DTOs ==========

type CreateSalaryComponentRequest struct {
	Name               string          `json:"name"`
	Code               string          `json:"code"`
	Type               ComponentType   `json:"type"`
	CalculationType    CalculationType `json:"calculation_type"`
	Formula            *string         `json:"formula,omitempty"`
	AffectsGrossSalary *bool           `json:"affects_gross_salary,omitempty"`
	AffectsNetSalary   *bool           `json:"affects_net_salary,omitempty"`
	IsTaxable          bool            `json:"is_taxable"`
	IsStatutory        bool            `json:"is_statutory"`
	DisplayOrder       int             `json:"display_order"`
}

func (r *CreateSalaryComponentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	if !validator.IsValidIdentifier(r.Code) {
		errs.Add("code", "code must start with a letter or underscore and contain only letters, digits and underscores")
	} else if IsReservedCode(r.Code) {
		errs.Add("code", "code "+r.Code+" is reserved for a formula variable or keyword")
	}
	if r.Type != ComponentTypeEarning && r.Type != ComponentTypeDeduction {
		errs.Add("type", "type must be earning or deduction")
	}
	if r.CalculationType != CalculationTypeFixed && r.CalculationType != CalculationTypeFormula {
		errs.Add("calculation_type", "calculation_type must be fixed or formula")
	}
	if r.Type == ComponentTypeDeduction && r.CalculationType == CalculationTypeFixed {
		errs.Add("calculation_type", "deduction components must use a formula")
	}
	if r.CalculationType == CalculationTypeFormula && (r.Formula == nil || validator.IsEmpty(*r.Formula)) {
		errs.Add("formula", "formula is required when calculation_type is formula")
	}

	return errs.Err()
}

// ToEntity applies defaults: components affect gross and net unless told otherwise.
func (r *CreateSalaryComponentRequest) ToEntity(companyID string) SalaryComponent {
	c := SalaryComponent{
		CompanyID:          companyID,
		Name:               strings.TrimSpace(r.Name),
		Code:               r.Code,
		Type:               r.Type,
		CalculationType:    r.CalculationType,
		AffectsGrossSalary: true,
		AffectsNetSalary:   true,
		IsTaxable:          r.IsTaxable,
		IsStatutory:        r.IsStatutory,
		DisplayOrder:       r.DisplayOrder,
		IsActive:           true,
	}
	if r.CalculationType == CalculationTypeFormula && r.Formula != nil {
		f := strings.TrimSpace(*r.Formula)
		c.Formula = &f
	}
	if r.AffectsGrossSalary != nil {
		c.AffectsGrossSalary = *r.AffectsGrossSalary
	}
	if r.AffectsNetSalary != nil {
		c.AffectsNetSalary = *r.AffectsNetSalary
	}
	return c
}

// ========== SALARY MASTER DTOs ==========

type AssignComponentRequest struct {
	ComponentID string          `json:"component_id"`
	Amount      decimal.Decimal `json:"amount"`
}

type UpsertSalaryMasterRequest struct {
	Components []AssignComponentRequest `json:"components"`
}

func (r *UpsertSalaryMasterRequest) Validate() error {
	var errs validator.ValidationErrors

	seen := make(map[string]struct{}, len(r.Components))
	for _, c := range r.Components {
		if validator.IsEmpty(c.ComponentID) {
			errs.Add("components", "component_id is required")
			break
		}
		if _, dup := seen[c.ComponentID]; dup {
			errs.Add("components", "component "+c.ComponentID+" is assigned twice")
			break
		}
		seen[c.ComponentID] = struct{}{}
		if c.Amount.IsNegative() {
			errs.Add("components", "amount must not be negative")
			break
		}
	}

	return errs.Err()
}

// ========== GENERATION DTOs ==========

type GenerateMonthlyRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r *GenerateMonthlyRequest) Validate() error {
	return ValidatePeriod(r.Month, r.Year)
}

// ValidatePeriod checks a payroll month/year pair.
func ValidatePeriod(month, year int) error {
	var errs validator.ValidationErrors

	if month < 1 || month > 12 {
		errs.Add("month", "month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		errs.Add("year", "year must be between 2000 and 2100")
	}

	return errs.Err()
}

// ========== FORMULA DTOs ==========

type EvaluateFormulaRequest struct {
	Expression string                 `json:"expression"`
	Context    map[string]interface{} `json:"context"`
}

func (r *EvaluateFormulaRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Expression) {
		errs.Add("expression", "expression is required")
	}

	return errs.Err()
}

type EvaluateFormulaResponse struct {
	Value      decimal.Decimal `json:"value"`
	Unresolved []string        `json:"unresolved"`
}
