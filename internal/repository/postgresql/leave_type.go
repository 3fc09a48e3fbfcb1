package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveTypeRepositoryImpl struct {
	db *database.DB
}

func NewLeaveTypeRepository(db *database.DB) leave.LeaveTypeRepository {
	return &leaveTypeRepositoryImpl{db: db}
}

const leaveTypeColumns = `
	id, company_id, name,
	is_paid, is_without_pay, is_carry_forward_enabled, allow_negative_balance,
	allow_over_allocation, is_optional_leave, is_compensatory, allow_encashment,
	max_allocation_per_type, max_consecutive_leaves,
	created_at, updated_at`

func scanLeaveType(row pgx.Row) (leave.LeaveType, error) {
	var lt leave.LeaveType
	err := row.Scan(
		&lt.ID, &lt.CompanyID, &lt.Name,
		&lt.IsPaid, &lt.IsWithoutPay, &lt.IsCarryForwardEnabled, &lt.AllowNegativeBalance,
		&lt.AllowOverAllocation, &lt.IsOptionalLeave, &lt.IsCompensatory, &lt.AllowEncashment,
		&lt.MaxAllocationPerType, &lt.MaxConsecutiveLeaves,
		&lt.CreatedAt, &lt.UpdatedAt,
	)
	return lt, err
}

// Create implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) Create(ctx context.Context, leaveType leave.LeaveType) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_types (
			id, company_id, name,
			is_paid, is_without_pay, is_carry_forward_enabled, allow_negative_balance,
			allow_over_allocation, is_optional_leave, is_compensatory, allow_encashment,
			max_allocation_per_type, max_consecutive_leaves,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		leaveType.ID, leaveType.CompanyID, leaveType.Name,
		leaveType.IsPaid, leaveType.IsWithoutPay, leaveType.IsCarryForwardEnabled, leaveType.AllowNegativeBalance,
		leaveType.AllowOverAllocation, leaveType.IsOptionalLeave, leaveType.IsCompensatory, leaveType.AllowEncashment,
		leaveType.MaxAllocationPerType, leaveType.MaxConsecutiveLeaves,
	).Scan(&leaveType.CreatedAt, &leaveType.UpdatedAt)
	if err != nil {
		return leave.LeaveType{}, err
	}

	return leaveType, nil
}

// GetByID implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveTypeColumns + ` FROM leave_types WHERE id = $1 AND company_id = $2`

	lt, err := scanLeaveType(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveType{}, fmt.Errorf("failed to get leave type: %w", err)
	}
	return lt, nil
}

// GetByCompanyID implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) ([]leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveTypeColumns + ` FROM leave_types WHERE company_id = $1 ORDER BY name`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]leave.LeaveType, 0)
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, lt)
	}

	return types, rows.Err()
}
