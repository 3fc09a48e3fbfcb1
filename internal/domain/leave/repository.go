package leave

import (
	"context"
	"time"
)

// LeaveTypeRepository - interface for leave_types table
type LeaveTypeRepository interface {
	Create(ctx context.Context, leaveType LeaveType) (LeaveType, error)
	GetByID(ctx context.Context, id, companyID string) (LeaveType, error)
	GetByCompanyID(ctx context.Context, companyID string) ([]LeaveType, error)
}

// LeavePolicyRepository - interface for leave_policies table
type LeavePolicyRepository interface {
	Create(ctx context.Context, policy LeavePolicy) (LeavePolicy, error)
	// GetByID is not company scoped so callers can detect a company mismatch.
	GetByID(ctx context.Context, id string) (LeavePolicy, error)
	GetByCompanyID(ctx context.Context, companyID string) ([]LeavePolicy, error)
}

// LeavePeriodRepository - interface for leave_periods table
type LeavePeriodRepository interface {
	Create(ctx context.Context, period LeavePeriod) (LeavePeriod, error)
	GetByID(ctx context.Context, id, companyID string) (LeavePeriod, error)
	GetByCompanyID(ctx context.Context, companyID string) ([]LeavePeriod, error)
	GetByStatus(ctx context.Context, companyID string, status PeriodStatus) ([]LeavePeriod, error)
	// GetLatestStartingBefore returns the period with the latest start date strictly before date.
	GetLatestStartingBefore(ctx context.Context, companyID string, date time.Time) (LeavePeriod, error)
	UpdateStatus(ctx context.Context, id string, status PeriodStatus) error
	DeactivateOthers(ctx context.Context, companyID, keepID string) error
	GetCompanyIDsWithActivePeriod(ctx context.Context) ([]string, error)
}

// LeaveAllocationRepository - interface for leave_allocations table
type LeaveAllocationRepository interface {
	// Upsert inserts or replaces the row for (employee, policy, period).
	Upsert(ctx context.Context, allocation LeaveAllocation) (LeaveAllocation, error)
	GetByID(ctx context.Context, id, companyID string) (LeaveAllocation, error)
	GetByKey(ctx context.Context, employeeID, policyID, periodID string) (LeaveAllocation, error)
	// GetForUsage locks the active allocation covering [start, end] for the leave type.
	GetForUsage(ctx context.Context, employeeID, leaveTypeID string, start, end time.Time) (LeaveAllocation, error)
	List(ctx context.Context, companyID string, filter AllocationFilter) ([]LeaveAllocation, error)
	GetActiveByPeriod(ctx context.Context, companyID, periodID string) ([]LeaveAllocation, error)
	// UpdateUsed and UpdateAccrued return ErrConcurrencyConflict when expectedVersion is stale.
	UpdateUsed(ctx context.Context, id string, usedLeaves float64, expectedVersion int) error
	UpdateAccrued(ctx context.Context, id string, accrued float64, expectedVersion int) error
	UpdateStatus(ctx context.Context, id string, status AllocationStatus) error
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByIDForUpdate(ctx context.Context, id, companyID string) (LeaveRequest, error)
	UpdateStatus(ctx context.Context, id string, status LeaveRequestStatus, processedAt time.Time, rejectionReason *string) error
}
