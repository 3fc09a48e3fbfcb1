package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveAllocationRepositoryImpl struct {
	db *database.DB
}

func NewLeaveAllocationRepository(db *database.DB) leave.LeaveAllocationRepository {
	return &leaveAllocationRepositoryImpl{db: db}
}

const leaveAllocationSelect = `
	SELECT la.id, la.company_id, la.employee_id, la.leave_type_id, la.leave_policy_id, la.leave_period_id,
		   la.effective_from, la.effective_to, la.status, la.notes,
		   la.allocated_leaves, la.carry_forward_from_previous, la.total_accrued_till_date, la.used_leaves,
		   la.version, la.created_at, la.updated_at,
		   e.full_name AS employee_name,
		   lt.name AS leave_type_name
	FROM leave_allocations la
	JOIN employees e ON e.id = la.employee_id
	JOIN leave_types lt ON lt.id = la.leave_type_id`

func scanLeaveAllocation(row pgx.Row) (leave.LeaveAllocation, error) {
	var a leave.LeaveAllocation
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.EmployeeID, &a.LeaveTypeID, &a.LeavePolicyID, &a.LeavePeriodID,
		&a.EffectiveFrom, &a.EffectiveTo, &a.Status, &a.Notes,
		&a.AllocatedLeaves, &a.CarryForwardFromPrevious, &a.TotalAccruedTillDate, &a.UsedLeaves,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
		&a.EmployeeName, &a.LeaveTypeName,
	)
	return a, err
}

func (r *leaveAllocationRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (leave.LeaveAllocation, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanLeaveAllocation(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveAllocation{}, leave.ErrAllocationNotFound
		}
		return leave.LeaveAllocation{}, fmt.Errorf("failed to get leave allocation: %w", err)
	}
	return a, nil
}

func (r *leaveAllocationRepositoryImpl) getMany(ctx context.Context, query string, args ...interface{}) ([]leave.LeaveAllocation, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	allocations := make([]leave.LeaveAllocation, 0)
	for rows.Next() {
		a, err := scanLeaveAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}

	return allocations, rows.Err()
}

// Upsert implements leave.LeaveAllocationRepository. A replaced row keeps its
// id and gets a new version.
func (r *leaveAllocationRepositoryImpl) Upsert(ctx context.Context, a leave.LeaveAllocation) (leave.LeaveAllocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_allocations (
			id, company_id, employee_id, leave_type_id, leave_policy_id, leave_period_id,
			effective_from, effective_to, status, notes,
			allocated_leaves, carry_forward_from_previous, total_accrued_till_date, used_leaves,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, NOW(), NOW())
		ON CONFLICT (employee_id, leave_policy_id, leave_period_id) DO UPDATE SET
			leave_type_id = EXCLUDED.leave_type_id,
			effective_from = EXCLUDED.effective_from,
			effective_to = EXCLUDED.effective_to,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			allocated_leaves = EXCLUDED.allocated_leaves,
			carry_forward_from_previous = EXCLUDED.carry_forward_from_previous,
			total_accrued_till_date = EXCLUDED.total_accrued_till_date,
			used_leaves = EXCLUDED.used_leaves,
			version = leave_allocations.version + 1,
			updated_at = NOW()
		RETURNING id, version, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		a.ID, a.CompanyID, a.EmployeeID, a.LeaveTypeID, a.LeavePolicyID, a.LeavePeriodID,
		a.EffectiveFrom, a.EffectiveTo, a.Status, a.Notes,
		a.AllocatedLeaves, a.CarryForwardFromPrevious, a.TotalAccruedTillDate, a.UsedLeaves,
	).Scan(&a.ID, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return leave.LeaveAllocation{}, err
	}

	return a, nil
}

// GetByID implements leave.LeaveAllocationRepository.
func (r *leaveAllocationRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (leave.LeaveAllocation, error) {
	return r.getOne(ctx, leaveAllocationSelect+` WHERE la.id = $1 AND la.company_id = $2`, id, companyID)
}

// GetByKey implements leave.LeaveAllocationRepository.
func (r *leaveAllocationRepositoryImpl) GetByKey(ctx context.Context, employeeID, policyID, periodID string) (leave.LeaveAllocation, error) {
	return r.getOne(ctx,
		leaveAllocationSelect+` WHERE la.employee_id = $1 AND la.leave_policy_id = $2 AND la.leave_period_id = $3`,
		employeeID, policyID, periodID)
}

// GetForUsage implements leave.LeaveAllocationRepository. Must run inside a transaction.
func (r *leaveAllocationRepositoryImpl) GetForUsage(ctx context.Context, employeeID, leaveTypeID string, start, end time.Time) (leave.LeaveAllocation, error) {
	query := leaveAllocationSelect + `
		WHERE la.employee_id = $1 AND la.leave_type_id = $2 AND la.status = $3
		  AND la.effective_from <= $4 AND la.effective_to >= $5
		ORDER BY la.effective_from DESC
		LIMIT 1
		FOR UPDATE OF la
	`
	return r.getOne(ctx, query, employeeID, leaveTypeID, leave.AllocationStatusActive, start, end)
}

// List implements leave.LeaveAllocationRepository.
func (r *leaveAllocationRepositoryImpl) List(ctx context.Context, companyID string, filter leave.AllocationFilter) ([]leave.LeaveAllocation, error) {
	conditions := []string{"la.company_id = $1"}
	args := []interface{}{companyID}

	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("la.employee_id = $%d", len(args)))
	}
	if filter.LeavePeriodID != "" {
		args = append(args, filter.LeavePeriodID)
		conditions = append(conditions, fmt.Sprintf("la.leave_period_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("la.status = $%d", len(args)))
	}

	query := leaveAllocationSelect + ` WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY e.full_name, lt.name`
	return r.getMany(ctx, query, args...)
}

// GetActiveByPeriod implements leave.LeaveAllocationRepository.
func (r *leaveAllocationRepositoryImpl) GetActiveByPeriod(ctx context.Context, companyID, periodID string) ([]leave.LeaveAllocation, error) {
	return r.getMany(ctx,
		leaveAllocationSelect+` WHERE la.company_id = $1 AND la.leave_period_id = $2 AND la.status = $3 ORDER BY la.employee_id`,
		companyID, periodID, leave.AllocationStatusActive)
}

// UpdateUsed implements leave.LeaveAllocationRepository.
func (r *leaveAllocationRepositoryImpl) UpdateUsed(ctx context.Context, id string, usedLeaves float64, expectedVersion int) error {
	return r.updateVersioned(ctx, `used_leaves`, id, usedLeaves, expectedVersion)
}

// UpdateAccrued implements leave.LeaveAllocationRepository.
func (r *leaveAllocationRepositoryImpl) UpdateAccrued(ctx context.Context, id string, accrued float64, expectedVersion int) error {
	return r.updateVersioned(ctx, `total_accrued_till_date`, id, accrued, expectedVersion)
}

// updateVersioned sets one balance column if the row is still at expectedVersion.
func (r *leaveAllocationRepositoryImpl) updateVersioned(ctx context.Context, column, id string, value float64, expectedVersion int) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_allocations
		SET ` + column + ` = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`
	tag, err := q.Exec(ctx, query, value, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update leave allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leave_allocations WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check leave allocation: %w", err)
		}
		if !exists {
			return leave.ErrAllocationNotFound
		}
		return leave.ErrConcurrencyConflict
	}
	return nil
}

// UpdateStatus implements leave.LeaveAllocationRepository.
func (r *leaveAllocationRepositoryImpl) UpdateStatus(ctx context.Context, id string, status leave.AllocationStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx,
		`UPDATE leave_allocations SET status = $1, version = version + 1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to update leave allocation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrAllocationNotFound
	}
	return nil
}
