package fixtures

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/formula"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLeaveTypes_Validate(t *testing.T) {
	for _, req := range GetDefaultLeaveTypes() {
		req := req
		assert.NoError(t, req.Validate(), req.Name)
	}
}

func TestDefaultLeavePolicies_ReferenceDefaultTypes(t *testing.T) {
	names := map[string]bool{}
	for _, lt := range GetDefaultLeaveTypes() {
		names[lt.Name] = true
	}

	for _, def := range GetDefaultLeavePolicies() {
		assert.True(t, names[def.LeaveTypeName], "policy %s references unknown type %s", def.Request.Name, def.LeaveTypeName)

		req := def.Request
		req.LeaveTypeID = "type-id"
		assert.NoError(t, req.Validate(), req.Name)
	}
}

func TestDefaultLeavePeriod_CoversYear(t *testing.T) {
	req := GetDefaultLeavePeriod(2026)

	start, end, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", start.Format("2006-01-02"))
	assert.Equal(t, "2026-12-31", end.Format("2006-01-02"))
	assert.True(t, req.Activate)
}

func TestDefaultSalaryComponents_FormulasResolve(t *testing.T) {
	known := map[string]bool{
		payroll.VarPresent: true, payroll.VarHalfDay: true,
		payroll.VarDaysInMonth: true, payroll.VarLossOfPayLeave: true,
		payroll.VarGrossSalary: true,
	}

	// earnings become visible to later components by code
	for _, req := range GetDefaultSalaryComponents() {
		req := req
		require.NoError(t, req.Validate(), req.Code)

		if req.CalculationType == payroll.CalculationTypeFormula {
			expr, err := formula.Parse(*req.Formula)
			require.NoError(t, err, req.Code)
			for _, ident := range expr.Identifiers() {
				assert.True(t, known[ident], "%s uses unknown identifier %s", req.Code, ident)
			}
		}
		if req.Type == payroll.ComponentTypeEarning {
			known[req.Code] = true
		}
	}
}

type stubLeaveService struct {
	leave.LeaveService
	types    []leave.LeaveType
	policies []leave.CreateLeavePolicyRequest
	periods  []leave.CreateLeavePeriodRequest
}

func (s *stubLeaveService) CreateLeaveType(_ context.Context, companyID string, req leave.CreateLeaveTypeRequest) (leave.LeaveType, error) {
	for _, lt := range s.types {
		if lt.Name == req.Name {
			return leave.LeaveType{}, leave.ErrLeaveTypeNameExists
		}
	}
	lt := leave.LeaveType{ID: "lt-" + req.Name, CompanyID: companyID, Name: req.Name}
	s.types = append(s.types, lt)
	return lt, nil
}

func (s *stubLeaveService) ListLeaveTypes(context.Context, string) ([]leave.LeaveType, error) {
	return s.types, nil
}

func (s *stubLeaveService) CreatePolicy(_ context.Context, _ string, req leave.CreateLeavePolicyRequest) (leave.LeavePolicy, error) {
	for _, p := range s.policies {
		if p.Name == req.Name {
			return leave.LeavePolicy{}, leave.ErrLeavePolicyNameExists
		}
	}
	s.policies = append(s.policies, req)
	return leave.LeavePolicy{ID: "pol-" + req.Name, Name: req.Name, LeaveTypeID: req.LeaveTypeID}, nil
}

func (s *stubLeaveService) CreatePeriod(_ context.Context, _ string, req leave.CreateLeavePeriodRequest) (leave.LeavePeriod, error) {
	for _, p := range s.periods {
		if p.Name == req.Name {
			return leave.LeavePeriod{}, leave.ErrLeavePeriodNameExists
		}
	}
	s.periods = append(s.periods, req)
	return leave.LeavePeriod{ID: "period-" + req.Name, Name: req.Name}, nil
}

type stubPayrollService struct {
	payroll.PayrollService
	codes []string
}

func (s *stubPayrollService) CreateComponent(_ context.Context, _ string, req payroll.CreateSalaryComponentRequest) (payroll.SalaryComponent, error) {
	for _, code := range s.codes {
		if code == req.Code {
			return payroll.SalaryComponent{}, payroll.ErrComponentCodeExists
		}
	}
	s.codes = append(s.codes, req.Code)
	return payroll.SalaryComponent{ID: "c-" + req.Code, Code: req.Code}, nil
}

func TestSeeder_Seed(t *testing.T) {
	leaveSvc := &stubLeaveService{}
	payrollSvc := &stubPayrollService{}
	seeder := NewSeeder(leaveSvc, payrollSvc)

	ids, err := seeder.Seed(context.Background(), "company-1", 2026)

	require.NoError(t, err)
	assert.Len(t, ids.LeaveTypeIDs, len(GetDefaultLeaveTypes()))
	assert.Len(t, ids.LeavePolicyIDs, len(GetDefaultLeavePolicies()))
	assert.Equal(t, "period-2026", ids.LeavePeriodID)
	assert.Len(t, ids.ComponentIDs, len(GetDefaultSalaryComponents()))
	for _, p := range leaveSvc.policies {
		assert.Equal(t, "lt-"+policyTypeName(p.Name), p.LeaveTypeID)
	}
}

func TestSeeder_SeedTwiceIsIdempotent(t *testing.T) {
	leaveSvc := &stubLeaveService{}
	payrollSvc := &stubPayrollService{}
	seeder := NewSeeder(leaveSvc, payrollSvc)

	_, err := seeder.Seed(context.Background(), "company-1", 2026)
	require.NoError(t, err)

	ids, err := seeder.Seed(context.Background(), "company-1", 2026)

	require.NoError(t, err)
	// types are looked up again, nothing else is recreated
	assert.Len(t, ids.LeaveTypeIDs, len(GetDefaultLeaveTypes()))
	assert.Empty(t, ids.LeavePolicyIDs)
	assert.Empty(t, ids.LeavePeriodID)
	assert.Empty(t, ids.ComponentIDs)
	assert.Len(t, leaveSvc.types, len(GetDefaultLeaveTypes()))
	assert.Len(t, payrollSvc.codes, len(GetDefaultSalaryComponents()))
}

func policyTypeName(policyName string) string {
	for _, def := range GetDefaultLeavePolicies() {
		if def.Request.Name == policyName {
			return def.LeaveTypeName
		}
	}
	return ""
}
