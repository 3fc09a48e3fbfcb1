package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type salaryMasterRepository struct {
	db *database.DB
}

func NewSalaryMasterRepository(db *database.DB) payroll.SalaryMasterRepository {
	return &salaryMasterRepository{db: db}
}

const salaryMasterSelect = `
	SELECT m.id, m.employee_id, m.company_id, m.is_active, m.created_at, m.updated_at,
		   sc.id, sc.code, sc.type, mc.amount
	FROM employee_salary_masters m
	LEFT JOIN salary_master_components mc ON mc.salary_master_id = m.id
	LEFT JOIN salary_components sc ON sc.id = mc.salary_component_id`

// Upsert keeps one master per employee. Earning rows are replaced by the
// given set; deduction rows keep their last computed amount. Run it inside a
// transaction.
func (r *salaryMasterRepository) Upsert(ctx context.Context, master payroll.EmployeeSalaryMaster) (payroll.EmployeeSalaryMaster, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employee_salary_masters (id, employee_id, company_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (employee_id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id
	`
	var masterID string
	if err := q.QueryRow(ctx, query, master.ID, master.EmployeeID, master.CompanyID, master.IsActive).Scan(&masterID); err != nil {
		return payroll.EmployeeSalaryMaster{}, fmt.Errorf("failed to upsert salary master: %w", err)
	}

	_, err := q.Exec(ctx, `
		DELETE FROM salary_master_components mc
		USING salary_components sc
		WHERE mc.salary_component_id = sc.id AND mc.salary_master_id = $1 AND sc.type = $2
	`, masterID, payroll.ComponentTypeEarning)
	if err != nil {
		return payroll.EmployeeSalaryMaster{}, fmt.Errorf("failed to clear earning assignments: %w", err)
	}

	for _, c := range master.Components {
		if c.ComponentType != payroll.ComponentTypeEarning {
			continue
		}
		_, err := q.Exec(ctx, `
			INSERT INTO salary_master_components (salary_master_id, salary_component_id, amount)
			VALUES ($1, $2, $3)
		`, masterID, c.ComponentID, c.Amount)
		if err != nil {
			return payroll.EmployeeSalaryMaster{}, fmt.Errorf("failed to assign component %s: %w", c.ComponentCode, err)
		}
	}

	masters, err := r.query(ctx, salaryMasterSelect+` WHERE m.id = $1 ORDER BY sc.code`, masterID)
	if err != nil {
		return payroll.EmployeeSalaryMaster{}, err
	}
	if len(masters) == 0 {
		return payroll.EmployeeSalaryMaster{}, payroll.ErrSalaryMasterNotFound
	}
	return masters[0], nil
}

func (r *salaryMasterRepository) GetActiveByEmployeeID(ctx context.Context, employeeID, companyID string) (payroll.EmployeeSalaryMaster, error) {
	masters, err := r.query(ctx,
		salaryMasterSelect+` WHERE m.employee_id = $1 AND m.company_id = $2 AND m.is_active = true ORDER BY sc.code`,
		employeeID, companyID)
	if err != nil {
		return payroll.EmployeeSalaryMaster{}, err
	}
	if len(masters) == 0 {
		return payroll.EmployeeSalaryMaster{}, payroll.ErrSalaryMasterNotFound
	}
	return masters[0], nil
}

func (r *salaryMasterRepository) GetActiveByCompanyID(ctx context.Context, companyID string) ([]payroll.EmployeeSalaryMaster, error) {
	return r.query(ctx,
		salaryMasterSelect+` WHERE m.company_id = $1 AND m.is_active = true ORDER BY m.employee_id, sc.code`,
		companyID)
}

func (r *salaryMasterRepository) UpdateComputedAmounts(ctx context.Context, masterID string, amounts map[string]decimal.Decimal) error {
	if len(amounts) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	batch := &pgx.Batch{}
	for componentID, amount := range amounts {
		batch.Queue(`
			INSERT INTO salary_master_components (salary_master_id, salary_component_id, amount)
			VALUES ($1, $2, $3)
			ON CONFLICT (salary_master_id, salary_component_id) DO UPDATE SET amount = EXCLUDED.amount
		`, masterID, componentID, amount)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()
	for range amounts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to update computed amounts: %w", err)
		}
	}
	return nil
}

// query folds the joined component rows into one master per id, keeping row order.
func (r *salaryMasterRepository) query(ctx context.Context, query string, args ...interface{}) ([]payroll.EmployeeSalaryMaster, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get salary masters: %w", err)
	}
	defer rows.Close()

	masters := make([]payroll.EmployeeSalaryMaster, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			m             payroll.EmployeeSalaryMaster
			componentID   *string
			componentCode *string
			componentType *payroll.ComponentType
			amount        decimal.NullDecimal
		)
		if err := rows.Scan(&m.ID, &m.EmployeeID, &m.CompanyID, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
			&componentID, &componentCode, &componentType, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan salary master: %w", err)
		}

		i, ok := index[m.ID]
		if !ok {
			m.Components = make([]payroll.SalaryMasterComponent, 0)
			masters = append(masters, m)
			i = len(masters) - 1
			index[m.ID] = i
		}
		if componentID == nil {
			continue
		}
		masters[i].Components = append(masters[i].Components, payroll.SalaryMasterComponent{
			ComponentID:   *componentID,
			ComponentCode: deref(componentCode),
			ComponentType: *componentType,
			Amount:        amount.Decimal,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating salary masters: %w", err)
	}
	return masters, nil
}
