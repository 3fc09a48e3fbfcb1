package leave

import (
	"context"
	"time"
)

type LeaveService interface {
	// Periods
	ResolveActivePeriod(ctx context.Context, companyID string, date time.Time) (LeavePeriod, error)
	CreatePeriod(ctx context.Context, companyID string, req CreateLeavePeriodRequest) (LeavePeriod, error)
	ActivatePeriod(ctx context.Context, companyID, periodID string) (LeavePeriod, error)
	ListPeriods(ctx context.Context, companyID string) ([]LeavePeriod, error)

	// Types and policies
	CreateLeaveType(ctx context.Context, companyID string, req CreateLeaveTypeRequest) (LeaveType, error)
	ListLeaveTypes(ctx context.Context, companyID string) ([]LeaveType, error)
	CreatePolicy(ctx context.Context, companyID string, req CreateLeavePolicyRequest) (LeavePolicy, error)
	ListPolicies(ctx context.Context, companyID string) ([]LeavePolicy, error)

	// Allocations
	Allocate(ctx context.Context, companyID string, req AllocateRequest) (AllocationResult, error)
	ListAllocations(ctx context.Context, companyID string, filter AllocationFilter) ([]LeaveAllocation, error)
	CancelAllocation(ctx context.Context, companyID, allocationID string) (LeaveAllocation, error)

	// Requests
	CreateLeaveRequest(ctx context.Context, companyID string, req CreateLeaveRequestRequest) (LeaveRequest, error)
	ApproveLeaveRequest(ctx context.Context, companyID, requestID string) (LeaveRequest, error)
	RejectLeaveRequest(ctx context.Context, companyID, requestID string, req RejectLeaveRequestRequest) (LeaveRequest, error)
}

// LifecycleService runs the time-driven leave jobs.
type LifecycleService interface {
	Rollover(ctx context.Context, companyID string, asOf time.Time) error
	RefreshAccruals(ctx context.Context, companyID string, asOf time.Time) error
}
