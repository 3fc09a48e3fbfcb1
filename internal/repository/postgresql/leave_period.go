package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leavePeriodRepositoryImpl struct {
	db *database.DB
}

func NewLeavePeriodRepository(db *database.DB) leave.LeavePeriodRepository {
	return &leavePeriodRepositoryImpl{db: db}
}

const leavePeriodColumns = `id, company_id, name, start_date, end_date, status, created_at, updated_at`

func scanLeavePeriod(row pgx.Row) (leave.LeavePeriod, error) {
	var p leave.LeavePeriod
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *leavePeriodRepositoryImpl) queryPeriods(ctx context.Context, query string, args ...interface{}) ([]leave.LeavePeriod, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := make([]leave.LeavePeriod, 0)
	for rows.Next() {
		p, err := scanLeavePeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}

	return periods, rows.Err()
}

// Create implements leave.LeavePeriodRepository.
func (r *leavePeriodRepositoryImpl) Create(ctx context.Context, period leave.LeavePeriod) (leave.LeavePeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_periods (id, company_id, name, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		period.ID, period.CompanyID, period.Name, period.StartDate, period.EndDate, period.Status,
	).Scan(&period.CreatedAt, &period.UpdatedAt)
	if err != nil {
		return leave.LeavePeriod{}, err
	}

	return period, nil
}

// GetByID implements leave.LeavePeriodRepository.
func (r *leavePeriodRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (leave.LeavePeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leavePeriodColumns + ` FROM leave_periods WHERE id = $1 AND company_id = $2`

	p, err := scanLeavePeriod(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeavePeriod{}, leave.ErrLeavePeriodNotFound
		}
		return leave.LeavePeriod{}, fmt.Errorf("failed to get leave period: %w", err)
	}
	return p, nil
}

// GetByCompanyID implements leave.LeavePeriodRepository.
func (r *leavePeriodRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) ([]leave.LeavePeriod, error) {
	return r.queryPeriods(ctx,
		`SELECT `+leavePeriodColumns+` FROM leave_periods WHERE company_id = $1 ORDER BY start_date DESC`,
		companyID)
}

// GetByStatus implements leave.LeavePeriodRepository.
func (r *leavePeriodRepositoryImpl) GetByStatus(ctx context.Context, companyID string, status leave.PeriodStatus) ([]leave.LeavePeriod, error) {
	return r.queryPeriods(ctx,
		`SELECT `+leavePeriodColumns+` FROM leave_periods WHERE company_id = $1 AND status = $2 ORDER BY start_date DESC`,
		companyID, status)
}

// GetLatestStartingBefore implements leave.LeavePeriodRepository.
func (r *leavePeriodRepositoryImpl) GetLatestStartingBefore(ctx context.Context, companyID string, date time.Time) (leave.LeavePeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leavePeriodColumns + `
		FROM leave_periods
		WHERE company_id = $1 AND start_date < $2
		ORDER BY start_date DESC
		LIMIT 1
	`

	p, err := scanLeavePeriod(q.QueryRow(ctx, query, companyID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeavePeriod{}, leave.ErrLeavePeriodNotFound
		}
		return leave.LeavePeriod{}, fmt.Errorf("failed to get previous leave period: %w", err)
	}
	return p, nil
}

// UpdateStatus implements leave.LeavePeriodRepository.
func (r *leavePeriodRepositoryImpl) UpdateStatus(ctx context.Context, id string, status leave.PeriodStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE leave_periods SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeavePeriodNotFound
	}
	return nil
}

// DeactivateOthers implements leave.LeavePeriodRepository.
func (r *leavePeriodRepositoryImpl) DeactivateOthers(ctx context.Context, companyID, keepID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_periods
		SET status = $1, updated_at = NOW()
		WHERE company_id = $2 AND id <> $3 AND status = $4
	`
	_, err := q.Exec(ctx, query, leave.PeriodStatusInactive, companyID, keepID, leave.PeriodStatusActive)
	return err
}

// GetCompanyIDsWithActivePeriod implements leave.LeavePeriodRepository.
func (r *leavePeriodRepositoryImpl) GetCompanyIDsWithActivePeriod(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT DISTINCT company_id FROM leave_periods WHERE status = $1 ORDER BY company_id`, leave.PeriodStatusActive)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}
