package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type salaryGenerationRepository struct {
	db *database.DB
}

func NewSalaryGenerationRepository(db *database.DB) payroll.SalaryGenerationRepository {
	return &salaryGenerationRepository{db: db}
}

// LockCompanyMonth takes a transaction-scoped advisory lock on the company-month.
func (r *salaryGenerationRepository) LockCompanyMonth(ctx context.Context, companyID string, month, year int) error {
	q := GetQuerier(ctx, r.db)

	key := fmt.Sprintf("salary_generation:%s:%04d-%02d", companyID, year, month)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock payroll month: %w", err)
	}
	return nil
}

func (r *salaryGenerationRepository) Upsert(ctx context.Context, g payroll.SalaryGeneration) (payroll.SalaryGeneration, error) {
	q := GetQuerier(ctx, r.db)

	breakdownJSON, err := json.Marshal(g.PaidLeaveTypeBreakdown)
	if err != nil {
		return payroll.SalaryGeneration{}, fmt.Errorf("failed to encode leave breakdown: %w", err)
	}
	earningsJSON, err := json.Marshal(g.EarningsDetail)
	if err != nil {
		return payroll.SalaryGeneration{}, fmt.Errorf("failed to encode earnings: %w", err)
	}
	deductionsJSON, err := json.Marshal(g.DeductionsDetail)
	if err != nil {
		return payroll.SalaryGeneration{}, fmt.Errorf("failed to encode deductions: %w", err)
	}

	query := `
		INSERT INTO salary_generations (
			id, employee_id, company_id, month, year,
			present_days, week_off_days, holiday_days, paid_leave_days, paid_leave_type_breakdown, unpaid_leave_days,
			gross_salary, total_deductions, net_salary, earnings_detail, deductions_detail,
			generated_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		ON CONFLICT (employee_id, company_id, month, year) DO UPDATE SET
			present_days = EXCLUDED.present_days,
			week_off_days = EXCLUDED.week_off_days,
			holiday_days = EXCLUDED.holiday_days,
			paid_leave_days = EXCLUDED.paid_leave_days,
			paid_leave_type_breakdown = EXCLUDED.paid_leave_type_breakdown,
			unpaid_leave_days = EXCLUDED.unpaid_leave_days,
			gross_salary = EXCLUDED.gross_salary,
			total_deductions = EXCLUDED.total_deductions,
			net_salary = EXCLUDED.net_salary,
			earnings_detail = EXCLUDED.earnings_detail,
			deductions_detail = EXCLUDED.deductions_detail,
			generated_at = EXCLUDED.generated_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		g.ID, g.EmployeeID, g.CompanyID, g.Month, g.Year,
		g.PresentDays, g.WeekOffDays, g.HolidayDays, g.PaidLeaveDays, breakdownJSON, g.UnpaidLeaveDays,
		g.GrossSalary, g.TotalDeductions, g.NetSalary, earningsJSON, deductionsJSON,
		g.GeneratedAt,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return payroll.SalaryGeneration{}, fmt.Errorf("failed to upsert salary generation: %w", err)
	}

	return g, nil
}

func (r *salaryGenerationRepository) Delete(ctx context.Context, companyID, employeeID string, month, year int) error {
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM salary_generations WHERE employee_id = $1 AND company_id = $2 AND month = $3 AND year = $4`
	if _, err := q.Exec(ctx, query, employeeID, companyID, month, year); err != nil {
		return fmt.Errorf("failed to delete salary generation: %w", err)
	}
	return nil
}

func (r *salaryGenerationRepository) ListByCompanyMonth(ctx context.Context, companyID string, month, year int) ([]payroll.SalaryGeneration, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT g.id, g.employee_id, g.company_id, g.month, g.year,
			   g.present_days, g.week_off_days, g.holiday_days, g.paid_leave_days, g.paid_leave_type_breakdown, g.unpaid_leave_days,
			   g.gross_salary, g.total_deductions, g.net_salary, g.earnings_detail, g.deductions_detail,
			   g.generated_at, g.created_at, g.updated_at,
			   e.full_name, e.employee_code
		FROM salary_generations g
		JOIN employees e ON e.id = g.employee_id
		WHERE g.company_id = $1 AND g.month = $2 AND g.year = $3
		ORDER BY e.employee_code
	`

	rows, err := q.Query(ctx, query, companyID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary generations: %w", err)
	}
	defer rows.Close()

	generations := make([]payroll.SalaryGeneration, 0)
	for rows.Next() {
		var g payroll.SalaryGeneration
		var breakdownBytes, earningsBytes, dedBytes []byte
		if err := rows.Scan(
			&g.ID, &g.EmployeeID, &g.CompanyID, &g.Month, &g.Year,
			&g.PresentDays, &g.WeekOffDays, &g.HolidayDays, &g.PaidLeaveDays, &breakdownBytes, &g.UnpaidLeaveDays,
			&g.GrossSalary, &g.TotalDeductions, &g.NetSalary, &earningsBytes, &dedBytes,
			&g.GeneratedAt, &g.CreatedAt, &g.UpdatedAt,
			&g.EmployeeName, &g.EmployeeCode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan salary generation: %w", err)
		}

		g.PaidLeaveTypeBreakdown = map[string]float64{}
		g.EarningsDetail = map[string]decimal.Decimal{}
		g.DeductionsDetail = map[string]decimal.Decimal{}
		if err := decodeJSONB(breakdownBytes, &g.PaidLeaveTypeBreakdown); err != nil {
			return nil, err
		}
		if err := decodeJSONB(earningsBytes, &g.EarningsDetail); err != nil {
			return nil, err
		}
		if err := decodeJSONB(dedBytes, &g.DeductionsDetail); err != nil {
			return nil, err
		}
		generations = append(generations, g)
	}

	return generations, rows.Err()
}

func decodeJSONB(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode salary generation detail: %w", err)
	}
	return nil
}
