package leave

import "errors"

var (
	ErrLeaveTypeNotFound     = errors.New("leave type not found")
	ErrLeaveTypeNameExists   = errors.New("leave type name already exists")
	ErrLeavePolicyNotFound   = errors.New("leave policy not found")
	ErrLeavePolicyNameExists = errors.New("leave policy name already exists")
	ErrLeavePeriodNotFound   = errors.New("leave period not found")
	ErrLeavePeriodNameExists = errors.New("leave period name already exists")
	ErrNoActivePeriod        = errors.New("no active leave period")
	ErrCompanyMismatch       = errors.New("leave policy does not belong to the employee's company")
	ErrCarryForwardDisabled  = errors.New("leave type does not allow carry forward")

	ErrOverAllocation      = errors.New("allocated leaves exceed the leave type maximum")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrAllocationNotFound  = errors.New("leave allocation not found")
	ErrConcurrencyConflict = errors.New("leave allocation was modified concurrently")

	ErrLeaveRequestNotFound         = errors.New("leave request not found")
	ErrLeaveRequestAlreadyProcessed = errors.New("leave request already processed")
	ErrMaxConsecutiveExceeded       = errors.New("leave request exceeds maximum consecutive leaves")
)
