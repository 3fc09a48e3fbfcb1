package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

type CreateLeaveTypeRequest struct {
	Name                  string `json:"name"`
	IsPaid                bool   `json:"is_paid"`
	IsWithoutPay          bool   `json:"is_without_pay"`
	IsCarryForwardEnabled *bool  `json:"is_carry_forward_enabled,omitempty"`
	// IsCarryForward is the legacy spelling of IsCarryForwardEnabled.
	IsCarryForward       *bool    `json:"is_carry_forward,omitempty"`
	AllowNegativeBalance *bool    `json:"allow_negative_balance,omitempty"`
	AllowNegative        *bool    `json:"allow_negative,omitempty"`
	AllowOverAllocation  bool     `json:"allow_over_allocation"`
	IsOptionalLeave      bool     `json:"is_optional_leave"`
	IsCompensatory       bool     `json:"is_compensatory"`
	AllowEncashment      bool     `json:"allow_encashment"`
	MaxAllocationPerType *float64 `json:"max_allocation_per_type,omitempty"`
	MaxConsecutiveLeaves *int     `json:"max_consecutive_leaves,omitempty"`
}

func (r *CreateLeaveTypeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	if len(r.Name) > 255 {
		errs.Add("name", "name must not exceed 255 characters")
	}
	if r.IsPaid && r.IsWithoutPay {
		errs.Add("is_without_pay", "a leave type cannot be both paid and without pay")
	}
	if conflicting(r.IsCarryForwardEnabled, r.IsCarryForward) {
		errs.Add("is_carry_forward_enabled", "is_carry_forward_enabled and is_carry_forward disagree")
	}
	if conflicting(r.AllowNegativeBalance, r.AllowNegative) {
		errs.Add("allow_negative_balance", "allow_negative_balance and allow_negative disagree")
	}
	if r.MaxAllocationPerType != nil && *r.MaxAllocationPerType < 0 {
		errs.Add("max_allocation_per_type", "max_allocation_per_type must not be negative")
	}
	if r.MaxConsecutiveLeaves != nil && *r.MaxConsecutiveLeaves <= 0 {
		errs.Add("max_consecutive_leaves", "max_consecutive_leaves must be positive")
	}

	return errs.Err()
}

// ToEntity resolves aliased flags into the canonical LeaveType fields.
func (r *CreateLeaveTypeRequest) ToEntity(companyID string) LeaveType {
	return LeaveType{
		CompanyID:             companyID,
		Name:                  r.Name,
		IsPaid:                r.IsPaid,
		IsWithoutPay:          r.IsWithoutPay,
		IsCarryForwardEnabled: firstSet(r.IsCarryForwardEnabled, r.IsCarryForward),
		AllowNegativeBalance:  firstSet(r.AllowNegativeBalance, r.AllowNegative),
		AllowOverAllocation:   r.AllowOverAllocation,
		IsOptionalLeave:       r.IsOptionalLeave,
		IsCompensatory:        r.IsCompensatory,
		AllowEncashment:       r.AllowEncashment,
		MaxAllocationPerType:  r.MaxAllocationPerType,
		MaxConsecutiveLeaves:  r.MaxConsecutiveLeaves,
	}
}

type CreateLeavePolicyRequest struct {
	Name             string           `json:"name"`
	LeaveTypeID      string           `json:"leave_type_id"`
	AccrualFrequency AccrualFrequency `json:"accrual_frequency"`
	MaxCarryForward  float64          `json:"max_carry_forward"`
	AllowEncashment  bool             `json:"allow_encashment"`
}

func (r *CreateLeavePolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	if validator.IsEmpty(r.LeaveTypeID) {
		errs.Add("leave_type_id", "leave_type_id is required")
	}
	if !r.AccrualFrequency.IsValid() {
		errs.Add("accrual_frequency", "accrual_frequency must be one of monthly, quarterly, yearly, on_joining")
	}
	if r.MaxCarryForward < 0 {
		errs.Add("max_carry_forward", "max_carry_forward must not be negative")
	}

	return errs.Err()
}

type CreateLeavePeriodRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Activate  bool   `json:"activate"`
}

// Validate checks the request and returns the parsed window.
func (r *CreateLeavePeriodRequest) Validate() (start, end time.Time, err error) {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if startOK && endOK && !end.After(start) {
		errs.Add("end_date", "end_date must be after start_date")
	}

	return start, end, errs.Err()
}

type AllocateRequest struct {
	LeavePolicyID   string   `json:"leave_policy_id"`
	EmployeeIDs     []string `json:"employee_ids"`
	AllocatedLeaves float64  `json:"allocated_leaves"`
	Notes           *string  `json:"notes,omitempty"`
}

func (r *AllocateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.LeavePolicyID) {
		errs.Add("leave_policy_id", "leave_policy_id is required")
	}
	if len(r.EmployeeIDs) == 0 {
		errs.Add("employee_ids", "at least one employee is required")
	}
	seen := make(map[string]struct{}, len(r.EmployeeIDs))
	for _, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs.Add("employee_ids", "employee_ids must not contain empty values")
			break
		}
		if _, dup := seen[id]; dup {
			errs.Add("employee_ids", "employee_ids must not contain duplicates")
			break
		}
		seen[id] = struct{}{}
	}
	if r.AllocatedLeaves < 0 {
		errs.Add("allocated_leaves", "allocated_leaves must not be negative")
	} else if !validator.IsQuarterStep(r.AllocatedLeaves) {
		errs.Add("allocated_leaves", "allocated_leaves must be a multiple of 0.25")
	}

	return errs.Err()
}

// AllocationResult reports every employee of a batch as succeeded or failed.
type AllocationResult struct {
	Succeeded []string            `json:"succeeded"`
	Failed    []AllocationFailure `json:"failed"`
}

type AllocationFailure struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
	Err        error  `json:"-"`
}

type AllocationFilter struct {
	EmployeeID    string
	LeavePeriodID string
	Status        AllocationStatus
}

type CreateLeaveRequestRequest struct {
	EmployeeID  string  `json:"employee_id"`
	LeaveTypeID string  `json:"leave_type_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	TotalDays   float64 `json:"total_days"`
	Reason      *string `json:"reason,omitempty"`
}

func (r *CreateLeaveRequestRequest) Validate() (start, end time.Time, err error) {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if validator.IsEmpty(r.LeaveTypeID) {
		errs.Add("leave_type_id", "leave_type_id is required")
	}
	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if startOK && endOK && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}
	if r.TotalDays <= 0 {
		errs.Add("total_days", "total_days must be positive")
	} else if !validator.IsQuarterStep(r.TotalDays) {
		errs.Add("total_days", "total_days must be a multiple of 0.25")
	} else if startOK && endOK && r.TotalDays > end.Sub(start).Hours()/24+1 {
		errs.Add("total_days", "total_days exceeds the requested date range")
	}

	return start, end, errs.Err()
}

type RejectLeaveRequestRequest struct {
	Reason string `json:"reason"`
}

func conflicting(a, b *bool) bool {
	return a != nil && b != nil && *a != *b
}

func firstSet(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return false
}
