package leave

import (
	"math"
	"time"
)

// LeaveType is the consolidated leave type configuration. Aliased request
// fields are resolved in dto.go before a LeaveType is built.
type LeaveType struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`

	IsPaid                bool `json:"is_paid"`
	IsWithoutPay          bool `json:"is_without_pay"`
	IsCarryForwardEnabled bool `json:"is_carry_forward_enabled"`
	AllowNegativeBalance  bool `json:"allow_negative_balance"`
	AllowOverAllocation   bool `json:"allow_over_allocation"`
	IsOptionalLeave       bool `json:"is_optional_leave"`
	IsCompensatory        bool `json:"is_compensatory"`
	AllowEncashment       bool `json:"allow_encashment"`

	MaxAllocationPerType *float64 `json:"max_allocation_per_type,omitempty"`
	MaxConsecutiveLeaves *int     `json:"max_consecutive_leaves,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CountsAsPaid reports whether a day of this leave is paid.
func (t LeaveType) CountsAsPaid() bool {
	return t.IsPaid && !t.IsWithoutPay
}

type AccrualFrequency string

const (
	AccrualMonthly   AccrualFrequency = "monthly"
	AccrualQuarterly AccrualFrequency = "quarterly"
	AccrualYearly    AccrualFrequency = "yearly"
	AccrualOnJoining AccrualFrequency = "on_joining"
)

func (f AccrualFrequency) IsValid() bool {
	switch f {
	case AccrualMonthly, AccrualQuarterly, AccrualYearly, AccrualOnJoining:
		return true
	}
	return false
}

type LeavePolicy struct {
	ID               string           `json:"id"`
	CompanyID        string           `json:"company_id"`
	Name             string           `json:"name"`
	LeaveTypeID      string           `json:"leave_type_id"`
	AccrualFrequency AccrualFrequency `json:"accrual_frequency"`
	MaxCarryForward  float64          `json:"max_carry_forward"`
	AllowEncashment  bool             `json:"allow_encashment"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	// Joined fields
	LeaveTypeName *string `json:"leave_type_name,omitempty"`
}

type PeriodStatus string

const (
	PeriodStatusActive   PeriodStatus = "active"
	PeriodStatusInactive PeriodStatus = "inactive"
)

type LeavePeriod struct {
	ID        string       `json:"id"`
	CompanyID string       `json:"company_id"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    PeriodStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Contains reports whether date falls in [StartDate, EndDate], compared by calendar day.
func (p LeavePeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}

type AllocationStatus string

const (
	AllocationStatusActive    AllocationStatus = "active"
	AllocationStatusExpired   AllocationStatus = "expired"
	AllocationStatusCancelled AllocationStatus = "cancelled"
)

// LeaveAllocation is one employee's balance under a policy for one period.
// Rows are never deleted, only moved to Expired or Cancelled.
type LeaveAllocation struct {
	ID            string           `json:"id"`
	CompanyID     string           `json:"company_id"`
	EmployeeID    string           `json:"employee_id"`
	LeaveTypeID   string           `json:"leave_type_id"`
	LeavePolicyID string           `json:"leave_policy_id"`
	LeavePeriodID string           `json:"leave_period_id"`
	EffectiveFrom time.Time        `json:"effective_from"`
	EffectiveTo   time.Time        `json:"effective_to"`
	Status        AllocationStatus `json:"status"`
	Notes         *string          `json:"notes,omitempty"`

	AllocatedLeaves          float64 `json:"allocated_leaves"`
	CarryForwardFromPrevious float64 `json:"carry_forward_from_previous"`
	TotalAccruedTillDate     float64 `json:"total_accrued_till_date"`
	UsedLeaves               float64 `json:"used_leaves"`

	// Version is bumped on every write and guards balance updates.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields
	EmployeeName  *string `json:"employee_name,omitempty"`
	LeaveTypeName *string `json:"leave_type_name,omitempty"`
}

// Available is carryForward + accrued - used, in quarter days.
func (a LeaveAllocation) Available() float64 {
	return RoundQuarter(a.CarryForwardFromPrevious + a.TotalAccruedTillDate - a.UsedLeaves)
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending  LeaveRequestStatus = "pending"
	LeaveRequestStatusApproved LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected LeaveRequestStatus = "rejected"
)

type LeaveRequest struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	EmployeeID  string    `json:"employee_id"`
	LeaveTypeID string    `json:"leave_type_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	// TotalDays accepts 1, 0.5 and 0.25 granularity.
	TotalDays float64 `json:"total_days"`
	Reason    *string `json:"reason,omitempty"`

	Status          LeaveRequestStatus `json:"status"`
	ProcessedAt     *time.Time         `json:"processed_at,omitempty"`
	RejectionReason *string            `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoundQuarter rounds v to the nearest 0.25.
func RoundQuarter(v float64) float64 {
	r := math.Round(v*4) / 4
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// FloorQuarter rounds v down to a multiple of 0.25.
func FloorQuarter(v float64) float64 {
	return math.Floor(v*4+1e-9) / 4
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
