package leave

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
)

type noopTx struct{}

func (noopTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *fakeEmployeeRepo) GetActiveByCompanyID(_ context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range r.employees {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeLeaveTypeRepo struct {
	mu    sync.Mutex
	types map[string]leave.LeaveType
}

func (r *fakeLeaveTypeRepo) Create(_ context.Context, t leave.LeaveType) (leave.LeaveType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.ID] = t
	return t, nil
}

func (r *fakeLeaveTypeRepo) GetByID(_ context.Context, id, companyID string) (leave.LeaveType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.types[id]
	if !ok || t.CompanyID != companyID {
		return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
	}
	return t, nil
}

func (r *fakeLeaveTypeRepo) GetByCompanyID(_ context.Context, companyID string) ([]leave.LeaveType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.LeaveType
	for _, t := range r.types {
		if t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakePolicyRepo struct {
	mu       sync.Mutex
	policies map[string]leave.LeavePolicy
}

func (r *fakePolicyRepo) Create(_ context.Context, p leave.LeavePolicy) (leave.LeavePolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.ID] = p
	return p, nil
}

func (r *fakePolicyRepo) GetByID(_ context.Context, id string) (leave.LeavePolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[id]
	if !ok {
		return leave.LeavePolicy{}, leave.ErrLeavePolicyNotFound
	}
	return p, nil
}

func (r *fakePolicyRepo) GetByCompanyID(_ context.Context, companyID string) ([]leave.LeavePolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.LeavePolicy
	for _, p := range r.policies {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakePeriodRepo struct {
	mu      sync.Mutex
	periods []leave.LeavePeriod
}

func (r *fakePeriodRepo) Create(_ context.Context, p leave.LeavePeriod) (leave.LeavePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.periods = append(r.periods, p)
	return p, nil
}

func (r *fakePeriodRepo) GetByID(_ context.Context, id, companyID string) (leave.LeavePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.periods {
		if p.ID == id && p.CompanyID == companyID {
			return p, nil
		}
	}
	return leave.LeavePeriod{}, leave.ErrLeavePeriodNotFound
}

func (r *fakePeriodRepo) GetByCompanyID(_ context.Context, companyID string) ([]leave.LeavePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.LeavePeriod
	for _, p := range r.periods {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePeriodRepo) GetByStatus(_ context.Context, companyID string, status leave.PeriodStatus) ([]leave.LeavePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.LeavePeriod
	for _, p := range r.periods {
		if p.CompanyID == companyID && p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePeriodRepo) GetLatestStartingBefore(_ context.Context, companyID string, date time.Time) (leave.LeavePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *leave.LeavePeriod
	for i := range r.periods {
		p := &r.periods[i]
		if p.CompanyID != companyID || !p.StartDate.Before(date) {
			continue
		}
		if found == nil || p.StartDate.After(found.StartDate) {
			found = p
		}
	}
	if found == nil {
		return leave.LeavePeriod{}, leave.ErrLeavePeriodNotFound
	}
	return *found, nil
}

func (r *fakePeriodRepo) UpdateStatus(_ context.Context, id string, status leave.PeriodStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.periods {
		if r.periods[i].ID == id {
			r.periods[i].Status = status
			return nil
		}
	}
	return leave.ErrLeavePeriodNotFound
}

func (r *fakePeriodRepo) DeactivateOthers(_ context.Context, companyID, keepID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.periods {
		if r.periods[i].CompanyID == companyID && r.periods[i].ID != keepID {
			r.periods[i].Status = leave.PeriodStatusInactive
		}
	}
	return nil
}

func (r *fakePeriodRepo) GetCompanyIDsWithActivePeriod(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, p := range r.periods {
		if _, ok := seen[p.CompanyID]; !ok && p.Status == leave.PeriodStatusActive {
			seen[p.CompanyID] = struct{}{}
			out = append(out, p.CompanyID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakePeriodRepo) status(id string) leave.PeriodStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.periods {
		if p.ID == id {
			return p.Status
		}
	}
	return ""
}

type fakeAllocationRepo struct {
	mu          sync.Mutex
	allocations map[string]leave.LeaveAllocation
	upserts     int
}

func newFakeAllocationRepo() *fakeAllocationRepo {
	return &fakeAllocationRepo{allocations: make(map[string]leave.LeaveAllocation)}
}

func (r *fakeAllocationRepo) Upsert(_ context.Context, a leave.LeaveAllocation) (leave.LeaveAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	for id, existing := range r.allocations {
		if existing.EmployeeID == a.EmployeeID && existing.LeavePolicyID == a.LeavePolicyID && existing.LeavePeriodID == a.LeavePeriodID {
			a.ID = id
			a.Version = existing.Version + 1
			r.allocations[id] = a
			return a, nil
		}
	}
	a.Version = 1
	r.allocations[a.ID] = a
	return a, nil
}

func (r *fakeAllocationRepo) GetByID(_ context.Context, id, companyID string) (leave.LeaveAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.allocations[id]
	if !ok || a.CompanyID != companyID {
		return leave.LeaveAllocation{}, leave.ErrAllocationNotFound
	}
	return a, nil
}

func (r *fakeAllocationRepo) GetByKey(_ context.Context, employeeID, policyID, periodID string) (leave.LeaveAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.allocations {
		if a.EmployeeID == employeeID && a.LeavePolicyID == policyID && a.LeavePeriodID == periodID {
			return a, nil
		}
	}
	return leave.LeaveAllocation{}, leave.ErrAllocationNotFound
}

func (r *fakeAllocationRepo) GetForUsage(_ context.Context, employeeID, leaveTypeID string, start, end time.Time) (leave.LeaveAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.allocations {
		if a.EmployeeID == employeeID && a.LeaveTypeID == leaveTypeID && a.Status == leave.AllocationStatusActive &&
			!start.Before(a.EffectiveFrom) && !end.After(a.EffectiveTo) {
			return a, nil
		}
	}
	return leave.LeaveAllocation{}, leave.ErrAllocationNotFound
}

func (r *fakeAllocationRepo) List(_ context.Context, companyID string, filter leave.AllocationFilter) ([]leave.LeaveAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.LeaveAllocation
	for _, a := range r.allocations {
		if a.CompanyID != companyID ||
			(filter.EmployeeID != "" && a.EmployeeID != filter.EmployeeID) ||
			(filter.LeavePeriodID != "" && a.LeavePeriodID != filter.LeavePeriodID) ||
			(filter.Status != "" && a.Status != filter.Status) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAllocationRepo) GetActiveByPeriod(ctx context.Context, companyID, periodID string) ([]leave.LeaveAllocation, error) {
	return r.List(ctx, companyID, leave.AllocationFilter{LeavePeriodID: periodID, Status: leave.AllocationStatusActive})
}

func (r *fakeAllocationRepo) UpdateUsed(_ context.Context, id string, used float64, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.allocations[id]
	if !ok {
		return leave.ErrAllocationNotFound
	}
	if a.Version != expectedVersion {
		return leave.ErrConcurrencyConflict
	}
	a.UsedLeaves = used
	a.Version++
	r.allocations[id] = a
	return nil
}

func (r *fakeAllocationRepo) UpdateAccrued(_ context.Context, id string, accrued float64, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.allocations[id]
	if !ok {
		return leave.ErrAllocationNotFound
	}
	if a.Version != expectedVersion {
		return leave.ErrConcurrencyConflict
	}
	a.TotalAccruedTillDate = accrued
	a.Version++
	r.allocations[id] = a
	return nil
}

func (r *fakeAllocationRepo) UpdateStatus(_ context.Context, id string, status leave.AllocationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.allocations[id]
	if !ok {
		return leave.ErrAllocationNotFound
	}
	a.Status = status
	a.Version++
	r.allocations[id] = a
	return nil
}

func (r *fakeAllocationRepo) put(a leave.LeaveAllocation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allocations[a.ID] = a
}

func (r *fakeAllocationRepo) get(id string) leave.LeaveAllocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocations[id]
}

func (r *fakeAllocationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.allocations)
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]leave.LeaveRequest
}

func (r *fakeRequestRepo) Create(_ context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = req
	return req, nil
}

func (r *fakeRequestRepo) GetByIDForUpdate(_ context.Context, id, companyID string) (leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.CompanyID != companyID {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

func (r *fakeRequestRepo) UpdateStatus(_ context.Context, id string, status leave.LeaveRequestStatus, processedAt time.Time, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}
	req.Status = status
	req.ProcessedAt = &processedAt
	req.RejectionReason = reason
	r.requests[id] = req
	return nil
}
