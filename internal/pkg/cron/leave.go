package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
)

// CompanyLister lists companies that currently have an active leave period.
type CompanyLister interface {
	GetCompanyIDsWithActivePeriod(ctx context.Context) ([]string, error)
}

// LeaveJobs rolls leave periods over and refreshes accrued balances for
// every company with an active period.
type LeaveJobs struct {
	lifecycle leave.LifecycleService
	companies CompanyLister
	now       func() time.Time
}

func NewLeaveJobs(lifecycle leave.LifecycleService, companies CompanyLister, now func() time.Time) *LeaveJobs {
	if now == nil {
		now = time.Now
	}
	return &LeaveJobs{lifecycle: lifecycle, companies: companies, now: now}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler, rolloverInterval, accrualInterval time.Duration) {
	// Rollover runs first so a refreshed accrual targets the new period.
	scheduler.AddJob(Job{Name: "leave_period_rollover", Interval: rolloverInterval, Fn: j.Rollover})
	scheduler.AddJob(Job{Name: "leave_accrual_refresh", Interval: accrualInterval, Fn: j.RefreshAccruals})
}

func (j *LeaveJobs) Rollover(ctx context.Context) error {
	return j.forEachCompany(ctx, "rollover", j.lifecycle.Rollover)
}

func (j *LeaveJobs) RefreshAccruals(ctx context.Context) error {
	return j.forEachCompany(ctx, "accrual refresh", j.lifecycle.RefreshAccruals)
}

// forEachCompany keeps going past a failing company and reports how many failed.
func (j *LeaveJobs) forEachCompany(ctx context.Context, op string, fn func(ctx context.Context, companyID string, asOf time.Time) error) error {
	companyIDs, err := j.companies.GetCompanyIDsWithActivePeriod(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies for %s: %w", op, err)
	}

	asOf := j.now()
	failed := 0
	for _, companyID := range companyIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, companyID, asOf); err != nil {
			failed++
			slog.Error("Cron: leave job failed for company", "op", op, "company_id", companyID, "error", err)
		}
	}

	slog.Info("Cron: leave job finished", "op", op, "companies", len(companyIDs), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%s failed for %d of %d companies", op, failed, len(companyIDs))
	}
	return nil
}
