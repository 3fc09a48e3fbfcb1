package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leavePolicyRepositoryImpl struct {
	db *database.DB
}

func NewLeavePolicyRepository(db *database.DB) leave.LeavePolicyRepository {
	return &leavePolicyRepositoryImpl{db: db}
}

const leavePolicySelect = `
	SELECT lp.id, lp.company_id, lp.name, lp.leave_type_id, lp.accrual_frequency,
		   lp.max_carry_forward, lp.allow_encashment, lp.created_at, lp.updated_at,
		   lt.name AS leave_type_name
	FROM leave_policies lp
	JOIN leave_types lt ON lt.id = lp.leave_type_id`

func scanLeavePolicy(row pgx.Row) (leave.LeavePolicy, error) {
	var p leave.LeavePolicy
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.LeaveTypeID, &p.AccrualFrequency,
		&p.MaxCarryForward, &p.AllowEncashment, &p.CreatedAt, &p.UpdatedAt,
		&p.LeaveTypeName,
	)
	return p, err
}

// Create implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) Create(ctx context.Context, policy leave.LeavePolicy) (leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_policies (
			id, company_id, name, leave_type_id, accrual_frequency,
			max_carry_forward, allow_encashment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		policy.ID, policy.CompanyID, policy.Name, policy.LeaveTypeID, policy.AccrualFrequency,
		policy.MaxCarryForward, policy.AllowEncashment,
	).Scan(&policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		return leave.LeavePolicy{}, err
	}

	return policy, nil
}

// GetByID implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanLeavePolicy(q.QueryRow(ctx, leavePolicySelect+` WHERE lp.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeavePolicy{}, leave.ErrLeavePolicyNotFound
		}
		return leave.LeavePolicy{}, fmt.Errorf("failed to get leave policy: %w", err)
	}
	return p, nil
}

// GetByCompanyID implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) ([]leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, leavePolicySelect+` WHERE lp.company_id = $1 ORDER BY lp.name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := make([]leave.LeavePolicy, 0)
	for rows.Next() {
		p, err := scanLeavePolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}

	return policies, rows.Err()
}
