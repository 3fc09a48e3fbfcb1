package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/keylock"
	"github.com/google/uuid"
)

// AllocationService creates, replaces and cancels leave allocations.
type AllocationService struct {
	tx             database.Transactor
	periods        *PeriodService
	leaveTypeRepo  leave.LeaveTypeRepository
	policyRepo     leave.LeavePolicyRepository
	allocationRepo leave.LeaveAllocationRepository
	employeeRepo   employee.EmployeeRepository

	locks   *keylock.KeyLock
	workers int
	now     func() time.Time
}

func NewAllocationService(
	tx database.Transactor,
	periods *PeriodService,
	leaveTypeRepo leave.LeaveTypeRepository,
	policyRepo leave.LeavePolicyRepository,
	allocationRepo leave.LeaveAllocationRepository,
	employeeRepo employee.EmployeeRepository,
	locks *keylock.KeyLock,
	workers int,
	now func() time.Time,
) *AllocationService {
	if workers <= 0 {
		workers = defaultWorkerPoolSize
	}
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = keylock.New()
	}
	return &AllocationService{
		tx:             tx,
		periods:        periods,
		leaveTypeRepo:  leaveTypeRepo,
		policyRepo:     policyRepo,
		allocationRepo: allocationRepo,
		employeeRepo:   employeeRepo,
		locks:          locks,
		workers:        workers,
		now:            now,
	}
}

// allocationUnit is everything needed to write one employee's allocation.
type allocationUnit struct {
	companyID  string
	employeeID string
	policy     leave.LeavePolicy
	leaveType  leave.LeaveType
	period     leave.LeavePeriod
	previous   *leave.LeavePeriod
	allocated  float64
	notes      *string
	asOf       time.Time
}

// Allocate writes one allocation per employee under the policy for the active
// period. Employees succeed or fail independently; batch-level problems such as
// a missing active period fail every employee with the same reason.
func (s *AllocationService) Allocate(ctx context.Context, companyID string, req leave.AllocateRequest) (leave.AllocationResult, error) {
	if err := req.Validate(); err != nil {
		return leave.AllocationResult{}, err
	}

	policy, leaveType, err := s.resolvePolicy(ctx, companyID, req.LeavePolicyID)
	if err != nil {
		if isBatchFailure(err) {
			return failAll(req.EmployeeIDs, err), nil
		}
		return leave.AllocationResult{}, err
	}

	period, err := s.periods.ResolveActivePeriod(ctx, companyID, s.now())
	if err != nil {
		if errors.Is(err, leave.ErrNoActivePeriod) {
			return failAll(req.EmployeeIDs, err), nil
		}
		return leave.AllocationResult{}, err
	}

	previous, err := s.periods.PreviousPeriod(ctx, companyID, period)
	if err != nil {
		return leave.AllocationResult{}, err
	}

	allocated := leave.RoundQuarter(req.AllocatedLeaves)
	asOf := s.now()
	errs := forEach(ctx, s.workers, len(req.EmployeeIDs), func(ctx context.Context, i int) error {
		_, err := s.allocateEmployee(ctx, allocationUnit{
			companyID:  companyID,
			employeeID: req.EmployeeIDs[i],
			policy:     policy,
			leaveType:  leaveType,
			period:     period,
			previous:   previous,
			allocated:  allocated,
			notes:      req.Notes,
			asOf:       asOf,
		})
		return err
	})

	result := collectResult(req.EmployeeIDs, errs)
	slog.Info("Leave allocation batch finished",
		"company_id", companyID,
		"policy_id", policy.ID,
		"period_id", period.ID,
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
	)
	return result, nil
}

func (s *AllocationService) resolvePolicy(ctx context.Context, companyID, policyID string) (leave.LeavePolicy, leave.LeaveType, error) {
	policy, err := s.policyRepo.GetByID(ctx, policyID)
	if err != nil {
		return leave.LeavePolicy{}, leave.LeaveType{}, err
	}
	if policy.CompanyID != companyID {
		return leave.LeavePolicy{}, leave.LeaveType{}, leave.ErrCompanyMismatch
	}

	leaveType, err := s.leaveTypeRepo.GetByID(ctx, policy.LeaveTypeID, companyID)
	if err != nil {
		if errors.Is(err, leave.ErrLeaveTypeNotFound) {
			// The type exists (the policy references it) but not under this company.
			return leave.LeavePolicy{}, leave.LeaveType{}, leave.ErrCompanyMismatch
		}
		return leave.LeavePolicy{}, leave.LeaveType{}, err
	}

	return policy, leaveType, nil
}

func (s *AllocationService) allocateEmployee(ctx context.Context, u allocationUnit) (leave.LeaveAllocation, error) {
	emp, err := s.employeeRepo.GetByID(ctx, u.employeeID)
	if err != nil {
		return leave.LeaveAllocation{}, err
	}
	if emp.CompanyID != u.companyID || u.policy.CompanyID != u.companyID || u.leaveType.CompanyID != u.companyID {
		return leave.LeaveAllocation{}, leave.ErrCompanyMismatch
	}

	if limit := u.leaveType.MaxAllocationPerType; limit != nil && u.allocated > *limit && !u.leaveType.AllowOverAllocation {
		return leave.LeaveAllocation{}, fmt.Errorf("%w: %.2f exceeds %.2f", leave.ErrOverAllocation, u.allocated, *limit)
	}

	unlock := s.locks.Lock(allocationKey(u.employeeID, u.policy.ID, u.period.ID))
	defer unlock()

	carryForward, err := s.carryForward(ctx, u)
	if err != nil {
		return leave.LeaveAllocation{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeaveAllocation{}, fmt.Errorf("failed to generate leave allocation id: %w", err)
	}

	allocation := leave.LeaveAllocation{
		ID:                       id.String(),
		CompanyID:                u.companyID,
		EmployeeID:               u.employeeID,
		LeaveTypeID:              u.leaveType.ID,
		LeavePolicyID:            u.policy.ID,
		LeavePeriodID:            u.period.ID,
		EffectiveFrom:            leave.DateOnly(u.period.StartDate),
		EffectiveTo:              leave.DateOnly(u.period.EndDate),
		Status:                   leave.AllocationStatusActive,
		Notes:                    u.notes,
		AllocatedLeaves:          u.allocated,
		CarryForwardFromPrevious: carryForward,
		TotalAccruedTillDate:     AccruedTillDate(u.policy, u.allocated, u.period, u.asOf),
		UsedLeaves:               0,
	}

	saved, err := s.allocationRepo.Upsert(ctx, allocation)
	if err != nil {
		return leave.LeaveAllocation{}, fmt.Errorf("failed to save leave allocation: %w", err)
	}
	return saved, nil
}

// carryForward is the previous period's available balance under the same
// policy, clamped to [0, policy.MaxCarryForward].
func (s *AllocationService) carryForward(ctx context.Context, u allocationUnit) (float64, error) {
	if u.previous == nil || !u.leaveType.IsCarryForwardEnabled || u.policy.MaxCarryForward <= 0 {
		return 0, nil
	}

	prev, err := s.allocationRepo.GetByKey(ctx, u.employeeID, u.policy.ID, u.previous.ID)
	if err != nil {
		if errors.Is(err, leave.ErrAllocationNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get previous leave allocation: %w", err)
	}
	if prev.Status == leave.AllocationStatusCancelled {
		return 0, nil
	}

	return clampCarryForward(prev.Available(), u.policy.MaxCarryForward), nil
}

func clampCarryForward(available, limit float64) float64 {
	switch {
	case available <= 0:
		return 0
	case available > limit:
		return leave.RoundQuarter(limit)
	default:
		return leave.RoundQuarter(available)
	}
}

func (s *AllocationService) ListAllocations(ctx context.Context, companyID string, filter leave.AllocationFilter) ([]leave.LeaveAllocation, error) {
	allocations, err := s.allocationRepo.List(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave allocations: %w", err)
	}
	return allocations, nil
}

// CancelAllocation moves an allocation to Cancelled. Cancelling twice is a no-op.
func (s *AllocationService) CancelAllocation(ctx context.Context, companyID, allocationID string) (leave.LeaveAllocation, error) {
	var cancelled leave.LeaveAllocation
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		allocation, err := s.allocationRepo.GetByID(txCtx, allocationID, companyID)
		if err != nil {
			return err
		}
		if allocation.Status != leave.AllocationStatusCancelled {
			if err := s.allocationRepo.UpdateStatus(txCtx, allocation.ID, leave.AllocationStatusCancelled); err != nil {
				return fmt.Errorf("failed to cancel leave allocation: %w", err)
			}
			allocation.Status = leave.AllocationStatusCancelled
		}
		cancelled = allocation
		return nil
	})
	if err != nil {
		return leave.LeaveAllocation{}, err
	}

	slog.Info("Leave allocation cancelled", "company_id", companyID, "allocation_id", allocationID)
	return cancelled, nil
}

func allocationKey(employeeID, policyID, periodID string) string {
	return employeeID + "/" + policyID + "/" + periodID
}

func isBatchFailure(err error) bool {
	return errors.Is(err, leave.ErrLeavePolicyNotFound) ||
		errors.Is(err, leave.ErrCompanyMismatch) ||
		errors.Is(err, leave.ErrNoActivePeriod)
}

func failAll(employeeIDs []string, err error) leave.AllocationResult {
	result := leave.AllocationResult{Succeeded: []string{}, Failed: make([]leave.AllocationFailure, 0, len(employeeIDs))}
	for _, id := range employeeIDs {
		result.Failed = append(result.Failed, leave.AllocationFailure{EmployeeID: id, Reason: err.Error(), Err: err})
	}
	return result
}

func collectResult(employeeIDs []string, errs []error) leave.AllocationResult {
	result := leave.AllocationResult{Succeeded: []string{}, Failed: []leave.AllocationFailure{}}
	for i, id := range employeeIDs {
		if err := errs[i]; err != nil {
			if !isEmployeeFailure(err) {
				slog.Error("Leave allocation failed", "employee_id", id, "error", err)
			}
			result.Failed = append(result.Failed, leave.AllocationFailure{EmployeeID: id, Reason: err.Error(), Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

// isEmployeeFailure reports expected per-employee rejections that need no error log.
func isEmployeeFailure(err error) bool {
	return errors.Is(err, leave.ErrOverAllocation) ||
		errors.Is(err, leave.ErrCompanyMismatch) ||
		errors.Is(err, employee.ErrEmployeeNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
