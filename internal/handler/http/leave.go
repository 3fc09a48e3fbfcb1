package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	GetActivePeriod(w http.ResponseWriter, r *http.Request)
	ListPeriods(w http.ResponseWriter, r *http.Request)
	CreatePeriod(w http.ResponseWriter, r *http.Request)
	ActivatePeriod(w http.ResponseWriter, r *http.Request)

	CreateType(w http.ResponseWriter, r *http.Request)
	ListTypes(w http.ResponseWriter, r *http.Request)
	CreatePolicy(w http.ResponseWriter, r *http.Request)
	ListPolicies(w http.ResponseWriter, r *http.Request)

	Allocate(w http.ResponseWriter, r *http.Request)
	ListAllocations(w http.ResponseWriter, r *http.Request)
	CancelAllocation(w http.ResponseWriter, r *http.Request)

	CreateRequest(w http.ResponseWriter, r *http.Request)
	ApproveRequest(w http.ResponseWriter, r *http.Request)
	RejectRequest(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{leaveService: leaveService}
}

// ========== PERIODS ==========

// GetActivePeriod resolves the period for ?date=YYYY-MM-DD, or today when absent.
func (l *LeaveHandlerImpl) GetActivePeriod(w http.ResponseWriter, r *http.Request) {
	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, ok := validator.IsValidDate(raw)
		if !ok {
			response.BadRequest(w, "date must be in YYYY-MM-DD format", nil)
			return
		}
		date = parsed
	}

	period, err := l.leaveService.ResolveActivePeriod(r.Context(), middleware.CompanyIDFromContext(r.Context()), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, period)
}

func (l *LeaveHandlerImpl) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := l.leaveService.ListPeriods(r.Context(), middleware.CompanyIDFromContext(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, periods)
}

func (l *LeaveHandlerImpl) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateLeavePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreatePeriod decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	period, err := l.leaveService.CreatePeriod(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave period created successfully", period)
}

func (l *LeaveHandlerImpl) ActivatePeriod(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "id")

	period, err := l.leaveService.ActivatePeriod(r.Context(), middleware.CompanyIDFromContext(r.Context()), periodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave period activated successfully", period)
}

// ========== TYPES & POLICIES ==========

func (l *LeaveHandlerImpl) CreateType(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateLeaveTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateType decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	leaveType, err := l.leaveService.CreateLeaveType(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave type created successfully", leaveType)
}

func (l *LeaveHandlerImpl) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := l.leaveService.ListLeaveTypes(r.Context(), middleware.CompanyIDFromContext(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, types)
}

func (l *LeaveHandlerImpl) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateLeavePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreatePolicy decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	policy, err := l.leaveService.CreatePolicy(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave policy created successfully", policy)
}

func (l *LeaveHandlerImpl) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := l.leaveService.ListPolicies(r.Context(), middleware.CompanyIDFromContext(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, policies)
}

// ========== ALLOCATIONS ==========

// Allocate always answers 200 once the request validates; per-employee
// outcomes are in the body.
func (l *LeaveHandlerImpl) Allocate(w http.ResponseWriter, r *http.Request) {
	var req leave.AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Allocate decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := l.leaveService.Allocate(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (l *LeaveHandlerImpl) ListAllocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := leave.AllocationFilter{
		EmployeeID:    query.Get("employee_id"),
		LeavePeriodID: query.Get("leave_period_id"),
		Status:        leave.AllocationStatus(query.Get("status")),
	}

	allocations, err := l.leaveService.ListAllocations(r.Context(), middleware.CompanyIDFromContext(r.Context()), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, allocations)
}

func (l *LeaveHandlerImpl) CancelAllocation(w http.ResponseWriter, r *http.Request) {
	allocation, err := l.leaveService.CancelAllocation(r.Context(), middleware.CompanyIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave allocation cancelled", allocation)
}

// ========== REQUESTS ==========

func (l *LeaveHandlerImpl) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateLeaveRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateRequest decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := l.leaveService.CreateLeaveRequest(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted successfully", created)
}

func (l *LeaveHandlerImpl) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	approved, err := l.leaveService.ApproveLeaveRequest(r.Context(), middleware.CompanyIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request approved successfully", approved)
}

func (l *LeaveHandlerImpl) RejectRequest(w http.ResponseWriter, r *http.Request) {
	var req leave.RejectLeaveRequestRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("RejectRequest decode error", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}

	rejected, err := l.leaveService.RejectLeaveRequest(r.Context(), middleware.CompanyIDFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request rejected", rejected)
}
