package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
)

// BalanceService moves leave requests through their lifecycle and keeps the
// matching allocation's usedLeaves in step with approvals.
type BalanceService struct {
	tx             database.Transactor
	leaveTypeRepo  leave.LeaveTypeRepository
	allocationRepo leave.LeaveAllocationRepository
	requestRepo    leave.LeaveRequestRepository
	employeeRepo   employee.EmployeeRepository
	now            func() time.Time
}

func NewBalanceService(
	tx database.Transactor,
	leaveTypeRepo leave.LeaveTypeRepository,
	allocationRepo leave.LeaveAllocationRepository,
	requestRepo leave.LeaveRequestRepository,
	employeeRepo employee.EmployeeRepository,
	now func() time.Time,
) *BalanceService {
	if now == nil {
		now = time.Now
	}
	return &BalanceService{
		tx:             tx,
		leaveTypeRepo:  leaveTypeRepo,
		allocationRepo: allocationRepo,
		requestRepo:    requestRepo,
		employeeRepo:   employeeRepo,
		now:            now,
	}
}

// ApplyUsage returns allocation with days added to usedLeaves. It fails with
// ErrInsufficientBalance when the result would be negative and the leave type
// does not allow it; allocation itself is never modified.
func ApplyUsage(allocation leave.LeaveAllocation, leaveType leave.LeaveType, days float64) (leave.LeaveAllocation, error) {
	next := allocation
	next.UsedLeaves = leave.RoundQuarter(allocation.UsedLeaves + days)

	if available := next.Available(); available < 0 && !leaveType.AllowNegativeBalance {
		return allocation, fmt.Errorf("%w: %.2f available, %.2f requested",
			leave.ErrInsufficientBalance, allocation.Available(), days)
	}
	return next, nil
}

func (s *BalanceService) CreateLeaveRequest(ctx context.Context, companyID string, req leave.CreateLeaveRequestRequest) (leave.LeaveRequest, error) {
	start, end, err := req.Validate()
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if emp.CompanyID != companyID {
		return leave.LeaveRequest{}, employee.ErrEmployeeNotFound
	}

	leaveType, err := s.leaveTypeRepo.GetByID(ctx, req.LeaveTypeID, companyID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	if limit := leaveType.MaxConsecutiveLeaves; limit != nil && *limit > 0 {
		span := int(end.Sub(start).Hours()/24) + 1
		if span > *limit {
			return leave.LeaveRequest{}, fmt.Errorf("%w: %d days requested, at most %d allowed",
				leave.ErrMaxConsecutiveExceeded, span, *limit)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to generate leave request id: %w", err)
	}

	created, err := s.requestRepo.Create(ctx, leave.LeaveRequest{
		ID:          id.String(),
		CompanyID:   companyID,
		EmployeeID:  emp.ID,
		LeaveTypeID: leaveType.ID,
		StartDate:   start,
		EndDate:     end,
		TotalDays:   leave.RoundQuarter(req.TotalDays),
		Reason:      req.Reason,
		Status:      leave.LeaveRequestStatusPending,
	})
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	slog.Info("Leave request created", "company_id", companyID, "request_id", created.ID, "employee_id", emp.ID, "total_days", created.TotalDays)
	return created, nil
}

// ApproveLeaveRequest charges the request against the covering allocation. The
// request, the allocation and the status change commit together or not at all.
func (s *BalanceService) ApproveLeaveRequest(ctx context.Context, companyID, requestID string) (leave.LeaveRequest, error) {
	var approved leave.LeaveRequest
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.GetByIDForUpdate(txCtx, requestID, companyID)
		if err != nil {
			return err
		}
		if request.Status != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveRequestAlreadyProcessed
		}

		leaveType, err := s.leaveTypeRepo.GetByID(txCtx, request.LeaveTypeID, companyID)
		if err != nil {
			return err
		}

		allocation, err := s.allocationRepo.GetForUsage(txCtx, request.EmployeeID, request.LeaveTypeID, request.StartDate, request.EndDate)
		if err != nil {
			return err
		}

		next, err := ApplyUsage(allocation, leaveType, request.TotalDays)
		if err != nil {
			return err
		}
		if err := s.allocationRepo.UpdateUsed(txCtx, allocation.ID, next.UsedLeaves, allocation.Version); err != nil {
			return err
		}

		processedAt := s.now()
		if err := s.requestRepo.UpdateStatus(txCtx, request.ID, leave.LeaveRequestStatusApproved, processedAt, nil); err != nil {
			return fmt.Errorf("failed to approve leave request: %w", err)
		}

		request.Status = leave.LeaveRequestStatusApproved
		request.ProcessedAt = &processedAt
		approved = request
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Leave request approved", "company_id", companyID, "request_id", requestID, "employee_id", approved.EmployeeID)
	return approved, nil
}

// RejectLeaveRequest closes a pending request without touching any allocation.
func (s *BalanceService) RejectLeaveRequest(ctx context.Context, companyID, requestID string, req leave.RejectLeaveRequestRequest) (leave.LeaveRequest, error) {
	var reason *string
	if r := strings.TrimSpace(req.Reason); r != "" {
		reason = &r
	}

	var rejected leave.LeaveRequest
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.GetByIDForUpdate(txCtx, requestID, companyID)
		if err != nil {
			return err
		}
		if request.Status != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveRequestAlreadyProcessed
		}

		processedAt := s.now()
		if err := s.requestRepo.UpdateStatus(txCtx, request.ID, leave.LeaveRequestStatusRejected, processedAt, reason); err != nil {
			return fmt.Errorf("failed to reject leave request: %w", err)
		}

		request.Status = leave.LeaveRequestStatusRejected
		request.ProcessedAt = &processedAt
		request.RejectionReason = reason
		rejected = request
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Leave request rejected", "company_id", companyID, "request_id", requestID)
	return rejected, nil
}
