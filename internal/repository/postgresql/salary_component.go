package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
)

type salaryComponentRepository struct {
	db *database.DB
}

func NewSalaryComponentRepository(db *database.DB) payroll.SalaryComponentRepository {
	return &salaryComponentRepository{db: db}
}

func (r *salaryComponentRepository) Create(ctx context.Context, component payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_components (
			id, company_id, name, code, type, calculation_type, formula,
			affects_gross_salary, affects_net_salary, is_taxable, is_statutory,
			display_order, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		component.ID, component.CompanyID, component.Name, component.Code, component.Type, component.CalculationType, component.Formula,
		component.AffectsGrossSalary, component.AffectsNetSalary, component.IsTaxable, component.IsStatutory,
		component.DisplayOrder, component.IsActive,
	).Scan(&component.CreatedAt, &component.UpdatedAt)
	if err != nil {
		// unique violations are mapped by the service
		return payroll.SalaryComponent{}, err
	}

	return component, nil
}

func (r *salaryComponentRepository) GetByCompanyID(ctx context.Context, companyID string, activeOnly bool) ([]payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, code, type, calculation_type, formula,
			   affects_gross_salary, affects_net_salary, is_taxable, is_statutory,
			   display_order, is_active, created_at, updated_at
		FROM salary_components
		WHERE company_id = $1 AND ($2 = false OR is_active = true)
		ORDER BY display_order, code
	`

	rows, err := q.Query(ctx, query, companyID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get salary components: %w", err)
	}
	defer rows.Close()

	components := make([]payroll.SalaryComponent, 0)
	for rows.Next() {
		var c payroll.SalaryComponent
		if err := rows.Scan(
			&c.ID, &c.CompanyID, &c.Name, &c.Code, &c.Type, &c.CalculationType, &c.Formula,
			&c.AffectsGrossSalary, &c.AffectsNetSalary, &c.IsTaxable, &c.IsStatutory,
			&c.DisplayOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan salary component: %w", err)
		}
		components = append(components, c)
	}

	return components, rows.Err()
}
