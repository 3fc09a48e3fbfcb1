package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
)

// SeededDataIDs holds IDs of all seeded default data for a company
type SeededDataIDs struct {
	LeaveTypeIDs   map[string]string // by leave type name
	LeavePolicyIDs map[string]string // by policy name
	LeavePeriodID  string
	ComponentIDs   map[string]string // by component code
}

// NewSeededDataIDs creates a new SeededDataIDs with initialized maps
func NewSeededDataIDs() *SeededDataIDs {
	return &SeededDataIDs{
		LeaveTypeIDs:   make(map[string]string),
		LeavePolicyIDs: make(map[string]string),
		ComponentIDs:   make(map[string]string),
	}
}

// Seeder creates the default leave and payroll setup for a company. Running it
// twice is safe: rows that already exist are looked up instead of recreated.
type Seeder struct {
	leaveService   leave.LeaveService
	payrollService payroll.PayrollService
}

func NewSeeder(leaveService leave.LeaveService, payrollService payroll.PayrollService) *Seeder {
	return &Seeder{leaveService: leaveService, payrollService: payrollService}
}

// Seed creates the defaults for companyID with a leave period for year.
func (s *Seeder) Seed(ctx context.Context, companyID string, year int) (*SeededDataIDs, error) {
	seededIDs := NewSeededDataIDs()

	// 1. Leave types
	if err := s.seedLeaveTypes(ctx, companyID, seededIDs); err != nil {
		return nil, err
	}

	// 2. Leave policies, linked by type name
	if err := s.seedLeavePolicies(ctx, companyID, seededIDs); err != nil {
		return nil, err
	}

	// 3. Leave period
	period, err := s.leaveService.CreatePeriod(ctx, companyID, GetDefaultLeavePeriod(year))
	switch {
	case err == nil:
		seededIDs.LeavePeriodID = period.ID
	case errors.Is(err, leave.ErrLeavePeriodNameExists):
		slog.Info("Default leave period already exists", "company_id", companyID, "year", year)
	default:
		return nil, fmt.Errorf("failed to create default leave period: %w", err)
	}

	// 4. Salary components
	if err := s.seedSalaryComponents(ctx, companyID, seededIDs); err != nil {
		return nil, err
	}

	slog.Info("Seeded default data",
		"company_id", companyID,
		"leave_types", len(seededIDs.LeaveTypeIDs),
		"leave_policies", len(seededIDs.LeavePolicyIDs),
		"salary_components", len(seededIDs.ComponentIDs),
	)
	return seededIDs, nil
}

func (s *Seeder) seedLeaveTypes(ctx context.Context, companyID string, seededIDs *SeededDataIDs) error {
	for _, req := range GetDefaultLeaveTypes() {
		created, err := s.leaveService.CreateLeaveType(ctx, companyID, req)
		if err != nil {
			if errors.Is(err, leave.ErrLeaveTypeNameExists) {
				continue
			}
			return fmt.Errorf("failed to create default leave type %q: %w", req.Name, err)
		}
		seededIDs.LeaveTypeIDs[created.Name] = created.ID
	}

	existing, err := s.leaveService.ListLeaveTypes(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to list leave types: %w", err)
	}
	for _, lt := range existing {
		if _, ok := seededIDs.LeaveTypeIDs[lt.Name]; !ok {
			seededIDs.LeaveTypeIDs[lt.Name] = lt.ID
		}
	}
	return nil
}

func (s *Seeder) seedLeavePolicies(ctx context.Context, companyID string, seededIDs *SeededDataIDs) error {
	for _, def := range GetDefaultLeavePolicies() {
		typeID, ok := seededIDs.LeaveTypeIDs[def.LeaveTypeName]
		if !ok {
			slog.Warn("Skipping default leave policy without leave type", "policy", def.Request.Name, "leave_type", def.LeaveTypeName)
			continue
		}

		req := def.Request
		req.LeaveTypeID = typeID
		created, err := s.leaveService.CreatePolicy(ctx, companyID, req)
		if err != nil {
			if errors.Is(err, leave.ErrLeavePolicyNameExists) {
				continue
			}
			return fmt.Errorf("failed to create default leave policy %q: %w", req.Name, err)
		}
		seededIDs.LeavePolicyIDs[created.Name] = created.ID
	}
	return nil
}

func (s *Seeder) seedSalaryComponents(ctx context.Context, companyID string, seededIDs *SeededDataIDs) error {
	for _, req := range GetDefaultSalaryComponents() {
		created, err := s.payrollService.CreateComponent(ctx, companyID, req)
		if err != nil {
			if errors.Is(err, payroll.ErrComponentCodeExists) {
				continue
			}
			return fmt.Errorf("failed to create default salary component %s: %w", req.Code, err)
		}
		seededIDs.ComponentIDs[created.Code] = created.ID
	}
	return nil
}
