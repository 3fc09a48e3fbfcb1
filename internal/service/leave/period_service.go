package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PeriodService resolves and manages leave periods. It keeps no notion of a
// current period; every caller passes the company and date it cares about.
type PeriodService struct {
	tx         database.Transactor
	periodRepo leave.LeavePeriodRepository
	now        func() time.Time
}

func NewPeriodService(tx database.Transactor, periodRepo leave.LeavePeriodRepository, now func() time.Time) *PeriodService {
	if now == nil {
		now = time.Now
	}
	return &PeriodService{tx: tx, periodRepo: periodRepo, now: now}
}

// ResolveActivePeriod returns the Active period containing date, falling back to
// the most recently started Active period. A zero date means today.
func (s *PeriodService) ResolveActivePeriod(ctx context.Context, companyID string, date time.Time) (leave.LeavePeriod, error) {
	if date.IsZero() {
		date = s.now()
	}

	periods, err := s.periodRepo.GetByStatus(ctx, companyID, leave.PeriodStatusActive)
	if err != nil {
		return leave.LeavePeriod{}, fmt.Errorf("failed to get active leave periods: %w", err)
	}

	return SelectActivePeriod(periods, date)
}

// SelectActivePeriod picks the applicable period from candidates without touching storage.
func SelectActivePeriod(periods []leave.LeavePeriod, date time.Time) (leave.LeavePeriod, error) {
	var containing, latest *leave.LeavePeriod
	for i := range periods {
		p := &periods[i]
		if p.Status != leave.PeriodStatusActive {
			continue
		}
		if p.Contains(date) && (containing == nil || p.StartDate.After(containing.StartDate)) {
			containing = p
		}
		if latest == nil || p.StartDate.After(latest.StartDate) {
			latest = p
		}
	}

	switch {
	case containing != nil:
		return *containing, nil
	case latest != nil:
		return *latest, nil
	default:
		return leave.LeavePeriod{}, leave.ErrNoActivePeriod
	}
}

// PreviousPeriod returns the period that started last before period, or nil when there is none.
func (s *PeriodService) PreviousPeriod(ctx context.Context, companyID string, period leave.LeavePeriod) (*leave.LeavePeriod, error) {
	prev, err := s.periodRepo.GetLatestStartingBefore(ctx, companyID, period.StartDate)
	if err != nil {
		if errors.Is(err, leave.ErrLeavePeriodNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get previous leave period: %w", err)
	}
	return &prev, nil
}

func (s *PeriodService) CreatePeriod(ctx context.Context, companyID string, req leave.CreateLeavePeriodRequest) (leave.LeavePeriod, error) {
	start, end, err := req.Validate()
	if err != nil {
		return leave.LeavePeriod{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeavePeriod{}, fmt.Errorf("failed to generate leave period id: %w", err)
	}

	period := leave.LeavePeriod{
		ID:        id.String(),
		CompanyID: companyID,
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		Status:    leave.PeriodStatusInactive,
	}

	var created leave.LeavePeriod
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err = s.periodRepo.Create(txCtx, period)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return leave.ErrLeavePeriodNameExists
			}
			return fmt.Errorf("failed to create leave period: %w", err)
		}
		if req.Activate {
			created, err = s.activate(txCtx, companyID, created)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return leave.LeavePeriod{}, err
	}

	slog.Info("Leave period created", "company_id", companyID, "period_id", created.ID, "status", created.Status)
	return created, nil
}

// ActivatePeriod makes periodID the company's only Active period.
func (s *PeriodService) ActivatePeriod(ctx context.Context, companyID, periodID string) (leave.LeavePeriod, error) {
	var activated leave.LeavePeriod
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		period, err := s.periodRepo.GetByID(txCtx, periodID, companyID)
		if err != nil {
			return err
		}
		activated, err = s.activate(txCtx, companyID, period)
		return err
	})
	if err != nil {
		return leave.LeavePeriod{}, err
	}

	slog.Info("Leave period activated", "company_id", companyID, "period_id", periodID)
	return activated, nil
}

func (s *PeriodService) activate(ctx context.Context, companyID string, period leave.LeavePeriod) (leave.LeavePeriod, error) {
	if err := s.periodRepo.DeactivateOthers(ctx, companyID, period.ID); err != nil {
		return leave.LeavePeriod{}, fmt.Errorf("failed to deactivate leave periods: %w", err)
	}
	if err := s.periodRepo.UpdateStatus(ctx, period.ID, leave.PeriodStatusActive); err != nil {
		return leave.LeavePeriod{}, fmt.Errorf("failed to activate leave period: %w", err)
	}
	period.Status = leave.PeriodStatusActive
	return period, nil
}

func (s *PeriodService) ListPeriods(ctx context.Context, companyID string) ([]leave.LeavePeriod, error) {
	periods, err := s.periodRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave periods: %w", err)
	}
	return periods, nil
}
