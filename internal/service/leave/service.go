package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/keylock"
)

type Repositories struct {
	LeaveType  leave.LeaveTypeRepository
	Policy     leave.LeavePolicyRepository
	Period     leave.LeavePeriodRepository
	Allocation leave.LeaveAllocationRepository
	Request    leave.LeaveRequestRepository
	Employee   employee.EmployeeRepository
}

type Options struct {
	WorkerPoolSize int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service is the leave engine as a whole. It satisfies both leave.LeaveService
// and leave.LifecycleService.
type Service struct {
	*PeriodService
	*SetupService
	*AllocationService
	*BalanceService
	*LifecycleService
}

var (
	_ leave.LeaveService     = (*Service)(nil)
	_ leave.LifecycleService = (*Service)(nil)
)

func NewService(tx database.Transactor, repos Repositories, opts Options) *Service {
	periods := NewPeriodService(tx, repos.Period, opts.Now)
	allocations := NewAllocationService(tx, periods, repos.LeaveType, repos.Policy, repos.Allocation, repos.Employee, keylock.New(), opts.WorkerPoolSize, opts.Now)

	return &Service{
		PeriodService:     periods,
		SetupService:      NewSetupService(repos.LeaveType, repos.Policy),
		AllocationService: allocations,
		BalanceService:    NewBalanceService(tx, repos.LeaveType, repos.Allocation, repos.Request, repos.Employee, opts.Now),
		LifecycleService:  NewLifecycleService(periods, allocations, repos.LeaveType, repos.Policy, repos.Period, repos.Allocation),
	}
}
