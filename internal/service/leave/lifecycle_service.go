package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
)

// LifecycleService runs the scheduled leave jobs: period rollover and accrual refresh.
type LifecycleService struct {
	periods        *PeriodService
	allocations    *AllocationService
	leaveTypeRepo  leave.LeaveTypeRepository
	policyRepo     leave.LeavePolicyRepository
	periodRepo     leave.LeavePeriodRepository
	allocationRepo leave.LeaveAllocationRepository
}

func NewLifecycleService(
	periods *PeriodService,
	allocations *AllocationService,
	leaveTypeRepo leave.LeaveTypeRepository,
	policyRepo leave.LeavePolicyRepository,
	periodRepo leave.LeavePeriodRepository,
	allocationRepo leave.LeaveAllocationRepository,
) *LifecycleService {
	return &LifecycleService{
		periods:        periods,
		allocations:    allocations,
		leaveTypeRepo:  leaveTypeRepo,
		policyRepo:     policyRepo,
		periodRepo:     periodRepo,
		allocationRepo: allocationRepo,
	}
}

// Rollover moves a company onto its next period once the active one has ended.
// Every active allocation of the old period is re-created in the new period
// (which computes carry forward) and then marked Expired.
//
// Allocations left Active in the period before the current one are picked up
// on every run, so units that failed after the new period was activated are
// retried by the next tick.
func (s *LifecycleService) Rollover(ctx context.Context, companyID string, asOf time.Time) error {
	current, err := s.periods.ResolveActivePeriod(ctx, companyID, asOf)
	if err != nil {
		if errors.Is(err, leave.ErrNoActivePeriod) {
			return nil
		}
		return err
	}

	var from *leave.LeavePeriod
	if leave.DateOnly(asOf).After(leave.DateOnly(current.EndDate)) {
		next, err := s.nextPeriod(ctx, companyID, current, asOf)
		if err != nil {
			return err
		}
		if next == nil {
			slog.Warn("Active leave period has ended but no following period exists",
				"company_id", companyID, "period_id", current.ID, "end_date", current.EndDate.Format(time.DateOnly))
			return nil
		}

		if _, err := s.periods.ActivatePeriod(ctx, companyID, next.ID); err != nil {
			return err
		}
		ended := current
		from, current = &ended, *next
	} else {
		from, err = s.periods.PreviousPeriod(ctx, companyID, current)
		if err != nil {
			return err
		}
		if from == nil {
			return nil
		}
	}

	return s.rollAllocations(ctx, companyID, *from, current, asOf)
}

// rollAllocations re-creates the active allocations of from in to and expires
// the originals. A unit whose row in to already exists only has its original
// expired, so a retry never resets used leaves or overrides a manual allocation.
func (s *LifecycleService) rollAllocations(ctx context.Context, companyID string, from, to leave.LeavePeriod, asOf time.Time) error {
	old, err := s.allocationRepo.GetActiveByPeriod(ctx, companyID, from.ID)
	if err != nil {
		return fmt.Errorf("failed to get active leave allocations: %w", err)
	}
	if len(old) == 0 {
		return nil
	}

	lookup := newPolicyLookup(s.policyRepo, s.leaveTypeRepo, companyID)
	errs := forEach(ctx, s.allocations.workers, len(old), func(ctx context.Context, i int) error {
		prev := old[i]

		_, err := s.allocationRepo.GetByKey(ctx, prev.EmployeeID, prev.LeavePolicyID, to.ID)
		switch {
		case err == nil:
		case errors.Is(err, leave.ErrAllocationNotFound):
			policy, leaveType, err := lookup.get(ctx, prev.LeavePolicyID)
			if err != nil {
				return err
			}
			if _, err := s.allocations.allocateEmployee(ctx, allocationUnit{
				companyID:  companyID,
				employeeID: prev.EmployeeID,
				policy:     policy,
				leaveType:  leaveType,
				period:     to,
				previous:   &from,
				allocated:  prev.AllocatedLeaves,
				notes:      prev.Notes,
				asOf:       asOf,
			}); err != nil {
				return err
			}
		default:
			return fmt.Errorf("failed to get rolled over leave allocation: %w", err)
		}

		return s.allocationRepo.UpdateStatus(ctx, prev.ID, leave.AllocationStatusExpired)
	})

	var failed int
	for i, err := range errs {
		if err != nil {
			failed++
			slog.Error("Failed to roll over leave allocation",
				"company_id", companyID, "allocation_id", old[i].ID, "employee_id", old[i].EmployeeID, "error", err)
		}
	}

	slog.Info("Leave allocations rolled over",
		"company_id", companyID, "from_period_id", from.ID, "to_period_id", to.ID,
		"allocations", len(old), "failed", failed)

	if failed > 0 {
		return fmt.Errorf("rollover of company %s: %d of %d allocations failed", companyID, failed, len(old))
	}
	return nil
}

// nextPeriod finds the inactive period that starts after current and contains asOf.
func (s *LifecycleService) nextPeriod(ctx context.Context, companyID string, current leave.LeavePeriod, asOf time.Time) (*leave.LeavePeriod, error) {
	periods, err := s.periodRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave periods: %w", err)
	}

	var next *leave.LeavePeriod
	for i := range periods {
		p := &periods[i]
		if p.ID == current.ID || p.Status != leave.PeriodStatusInactive {
			continue
		}
		if !p.StartDate.After(current.StartDate) || !p.Contains(asOf) {
			continue
		}
		if next == nil || p.StartDate.Before(next.StartDate) {
			next = p
		}
	}
	return next, nil
}

// RefreshAccruals recomputes totalAccruedTillDate for every active allocation of
// the active period. Rows changed concurrently are skipped until the next run.
func (s *LifecycleService) RefreshAccruals(ctx context.Context, companyID string, asOf time.Time) error {
	period, err := s.periods.ResolveActivePeriod(ctx, companyID, asOf)
	if err != nil {
		if errors.Is(err, leave.ErrNoActivePeriod) {
			return nil
		}
		return err
	}

	allocations, err := s.allocationRepo.GetActiveByPeriod(ctx, companyID, period.ID)
	if err != nil {
		return fmt.Errorf("failed to get active leave allocations: %w", err)
	}

	lookup := newPolicyLookup(s.policyRepo, s.leaveTypeRepo, companyID)
	var updated int
	var mu sync.Mutex
	errs := forEach(ctx, s.allocations.workers, len(allocations), func(ctx context.Context, i int) error {
		a := allocations[i]
		policy, _, err := lookup.get(ctx, a.LeavePolicyID)
		if err != nil {
			return err
		}

		accrued := AccruedTillDate(policy, a.AllocatedLeaves, period, asOf)
		if accrued == a.TotalAccruedTillDate {
			return nil
		}

		unlock := s.allocations.locks.Lock(allocationKey(a.EmployeeID, a.LeavePolicyID, a.LeavePeriodID))
		defer unlock()

		if err := s.allocationRepo.UpdateAccrued(ctx, a.ID, accrued, a.Version); err != nil {
			return err
		}
		mu.Lock()
		updated++
		mu.Unlock()
		return nil
	})

	var failed int
	for i, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, leave.ErrConcurrencyConflict):
			slog.Warn("Skipped accrual refresh for concurrently modified allocation", "allocation_id", allocations[i].ID)
		default:
			failed++
			slog.Error("Failed to refresh leave accrual", "allocation_id", allocations[i].ID, "error", err)
		}
	}

	slog.Info("Leave accruals refreshed", "company_id", companyID, "period_id", period.ID, "updated", updated, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("accrual refresh of company %s: %d allocations failed", companyID, failed)
	}
	return nil
}

// policyLookup caches policies and their leave types for the duration of one job.
type policyLookup struct {
	policyRepo    leave.LeavePolicyRepository
	leaveTypeRepo leave.LeaveTypeRepository
	companyID     string

	mu      sync.Mutex
	entries map[string]policyEntry
}

type policyEntry struct {
	policy    leave.LeavePolicy
	leaveType leave.LeaveType
}

func newPolicyLookup(policyRepo leave.LeavePolicyRepository, leaveTypeRepo leave.LeaveTypeRepository, companyID string) *policyLookup {
	return &policyLookup{
		policyRepo:    policyRepo,
		leaveTypeRepo: leaveTypeRepo,
		companyID:     companyID,
		entries:       make(map[string]policyEntry),
	}
}

func (l *policyLookup) get(ctx context.Context, policyID string) (leave.LeavePolicy, leave.LeaveType, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[policyID]; ok {
		return e.policy, e.leaveType, nil
	}

	policy, err := l.policyRepo.GetByID(ctx, policyID)
	if err != nil {
		return leave.LeavePolicy{}, leave.LeaveType{}, err
	}
	leaveType, err := l.leaveTypeRepo.GetByID(ctx, policy.LeaveTypeID, l.companyID)
	if err != nil {
		return leave.LeavePolicy{}, leave.LeaveType{}, err
	}

	l.entries[policyID] = policyEntry{policy: policy, leaveType: leaveType}
	return policy, leaveType, nil
}
