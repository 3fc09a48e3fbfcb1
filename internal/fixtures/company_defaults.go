package fixtures

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

func boolPtr(b bool) *bool          { return &b }
func intPtr(i int) *int             { return &i }
func strPtr(s string) *string       { return &s }
func float64Ptr(f float64) *float64 { return &f }

// ==========================================
// LEAVE DEFAULTS
// ==========================================

const (
	LeaveTypeAnnual    = "Cuti Tahunan"
	LeaveTypeSick      = "Cuti Sakit"
	LeaveTypeMaternity = "Cuti Melahirkan"
	LeaveTypeUnpaid    = "Cuti Tanpa Upah"
)

// DefaultLeavePolicy pairs a policy with the name of the leave type it covers.
// The type ID is only known once the type has been created.
type DefaultLeavePolicy struct {
	LeaveTypeName string
	Request       leave.CreateLeavePolicyRequest
}

// GetDefaultLeaveTypes returns standard leave types based on Indonesian labor law
func GetDefaultLeaveTypes() []leave.CreateLeaveTypeRequest {
	return []leave.CreateLeaveTypeRequest{
		{
			// UU 13/2003 Pasal 79: 12 days after 12 months of service
			Name:                  LeaveTypeAnnual,
			IsPaid:                true,
			IsCarryForwardEnabled: boolPtr(true),
			AllowEncashment:       true,
			MaxAllocationPerType:  float64Ptr(12),
		},
		{
			Name:                 LeaveTypeSick,
			IsPaid:               true,
			AllowNegativeBalance: boolPtr(true),
			MaxAllocationPerType: float64Ptr(14),
		},
		{
			// 1.5 months before and after birth
			Name:                 LeaveTypeMaternity,
			IsPaid:               true,
			MaxAllocationPerType: float64Ptr(90),
			MaxConsecutiveLeaves: intPtr(90),
		},
		{
			Name:                LeaveTypeUnpaid,
			IsWithoutPay:        true,
			AllowOverAllocation: true,
		},
	}
}

// GetDefaultLeavePolicies returns one policy per default leave type.
func GetDefaultLeavePolicies() []DefaultLeavePolicy {
	return []DefaultLeavePolicy{
		{
			LeaveTypeName: LeaveTypeAnnual,
			Request: leave.CreateLeavePolicyRequest{
				Name:             "Annual Leave - Monthly Accrual",
				AccrualFrequency: leave.AccrualMonthly,
				MaxCarryForward:  6,
				AllowEncashment:  true,
			},
		},
		{
			LeaveTypeName: LeaveTypeSick,
			Request: leave.CreateLeavePolicyRequest{
				Name:             "Sick Leave",
				AccrualFrequency: leave.AccrualYearly,
			},
		},
		{
			LeaveTypeName: LeaveTypeMaternity,
			Request: leave.CreateLeavePolicyRequest{
				Name:             "Maternity Leave",
				AccrualFrequency: leave.AccrualOnJoining,
			},
		},
		{
			LeaveTypeName: LeaveTypeUnpaid,
			Request: leave.CreateLeavePolicyRequest{
				Name:             "Unpaid Leave",
				AccrualFrequency: leave.AccrualYearly,
			},
		},
	}
}

// GetDefaultLeavePeriod returns a calendar-year period, activated on creation.
func GetDefaultLeavePeriod(year int) leave.CreateLeavePeriodRequest {
	return leave.CreateLeavePeriodRequest{
		Name:      fmt.Sprintf("%d", year),
		StartDate: fmt.Sprintf("%d-01-01", year),
		EndDate:   fmt.Sprintf("%d-12-31", year),
		Activate:  true,
	}
}

// ==========================================
// PAYROLL DEFAULTS
// ==========================================

// GetDefaultSalaryComponents returns a starter component set. BASIC is a fixed
// earning the salary master sets per employee; the rest are formulas.
func GetDefaultSalaryComponents() []payroll.CreateSalaryComponentRequest {
	return []payroll.CreateSalaryComponentRequest{
		{
			Name:            "Gaji Pokok",
			Code:            "BASIC",
			Type:            payroll.ComponentTypeEarning,
			CalculationType: payroll.CalculationTypeFixed,
			IsTaxable:       true,
			DisplayOrder:    1,
		},
		{
			Name:            "Tunjangan Transport",
			Code:            "TRANSPORT",
			Type:            payroll.ComponentTypeEarning,
			CalculationType: payroll.CalculationTypeFormula,
			Formula:         strPtr("present * 25000"),
			IsTaxable:       true,
			DisplayOrder:    2,
		},
		{
			Name:            "Tunjangan Makan",
			Code:            "MEAL",
			Type:            payroll.ComponentTypeEarning,
			CalculationType: payroll.CalculationTypeFormula,
			Formula:         strPtr("(present - halfDay * 0.5) * 30000"),
			DisplayOrder:    3,
		},
		{
			Name:            "Potongan Cuti Tanpa Upah",
			Code:            "LOP",
			Type:            payroll.ComponentTypeDeduction,
			CalculationType: payroll.CalculationTypeFormula,
			Formula:         strPtr("daysInMonth > 0 ? BASIC / daysInMonth * lossOfPayLeave : 0"),
			DisplayOrder:    10,
		},
		{
			Name:            "BPJS Kesehatan",
			Code:            "BPJS_KES",
			Type:            payroll.ComponentTypeDeduction,
			CalculationType: payroll.CalculationTypeFormula,
			Formula:         strPtr("BASIC * 0.01"),
			IsStatutory:     true,
			DisplayOrder:    11,
		},
		{
			Name:               "PPh 21",
			Code:               "PPH21",
			Type:               payroll.ComponentTypeDeduction,
			CalculationType:    payroll.CalculationTypeFormula,
			Formula:            strPtr("grossSalary > 4500000 ? (grossSalary - 4500000) * 0.05 : 0"),
			AffectsGrossSalary: boolPtr(false),
			IsStatutory:        true,
			DisplayOrder:       12,
		},
	}
}
