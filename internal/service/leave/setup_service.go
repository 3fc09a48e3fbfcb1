package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// SetupService manages leave types and the policies built on them.
type SetupService struct {
	leaveTypeRepo leave.LeaveTypeRepository
	policyRepo    leave.LeavePolicyRepository
}

func NewSetupService(leaveTypeRepo leave.LeaveTypeRepository, policyRepo leave.LeavePolicyRepository) *SetupService {
	return &SetupService{leaveTypeRepo: leaveTypeRepo, policyRepo: policyRepo}
}

func (s *SetupService) CreateLeaveType(ctx context.Context, companyID string, req leave.CreateLeaveTypeRequest) (leave.LeaveType, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveType{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeaveType{}, fmt.Errorf("failed to generate leave type id: %w", err)
	}

	leaveType := req.ToEntity(companyID)
	leaveType.ID = id.String()

	created, err := s.leaveTypeRepo.Create(ctx, leaveType)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return leave.LeaveType{}, leave.ErrLeaveTypeNameExists
		}
		return leave.LeaveType{}, fmt.Errorf("failed to create leave type: %w", err)
	}

	slog.Info("Leave type created", "company_id", companyID, "leave_type_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *SetupService) ListLeaveTypes(ctx context.Context, companyID string) ([]leave.LeaveType, error) {
	types, err := s.leaveTypeRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}
	return types, nil
}

// CreatePolicy refuses a carry forward cap on a leave type that cannot carry forward.
func (s *SetupService) CreatePolicy(ctx context.Context, companyID string, req leave.CreateLeavePolicyRequest) (leave.LeavePolicy, error) {
	if err := req.Validate(); err != nil {
		return leave.LeavePolicy{}, err
	}

	leaveType, err := s.leaveTypeRepo.GetByID(ctx, req.LeaveTypeID, companyID)
	if err != nil {
		return leave.LeavePolicy{}, err
	}
	if !leaveType.IsCarryForwardEnabled && req.MaxCarryForward > 0 {
		return leave.LeavePolicy{}, leave.ErrCarryForwardDisabled
	}

	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeavePolicy{}, fmt.Errorf("failed to generate leave policy id: %w", err)
	}

	policy := leave.LeavePolicy{
		ID:               id.String(),
		CompanyID:        companyID,
		Name:             req.Name,
		LeaveTypeID:      leaveType.ID,
		AccrualFrequency: req.AccrualFrequency,
		MaxCarryForward:  leave.RoundQuarter(req.MaxCarryForward),
		AllowEncashment:  req.AllowEncashment,
		LeaveTypeName:    &leaveType.Name,
	}

	created, err := s.policyRepo.Create(ctx, policy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return leave.LeavePolicy{}, leave.ErrLeavePolicyNameExists
		}
		return leave.LeavePolicy{}, fmt.Errorf("failed to create leave policy: %w", err)
	}

	slog.Info("Leave policy created", "company_id", companyID, "policy_id", created.ID, "leave_type_id", created.LeaveTypeID)
	return created, nil
}

func (s *SetupService) ListPolicies(ctx context.Context, companyID string) ([]leave.LeavePolicy, error) {
	policies, err := s.policyRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave policies: %w", err)
	}
	return policies, nil
}
