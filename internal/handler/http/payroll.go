package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	CreateComponent(w http.ResponseWriter, r *http.Request)
	ListComponents(w http.ResponseWriter, r *http.Request)
	GetSalaryMaster(w http.ResponseWriter, r *http.Request)
	UpsertSalaryMaster(w http.ResponseWriter, r *http.Request)
	Generate(w http.ResponseWriter, r *http.Request)
	ListGenerations(w http.ResponseWriter, r *http.Request)
	EvaluateFormula(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== COMPONENTS ==========

func (h *payrollHandlerImpl) CreateComponent(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateSalaryComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateComponent decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	component, err := h.payrollService.CreateComponent(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary component created successfully", component)
}

func (h *payrollHandlerImpl) ListComponents(w http.ResponseWriter, r *http.Request) {
	components, err := h.payrollService.ListComponents(r.Context(), middleware.CompanyIDFromContext(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, components)
}

// ========== SALARY MASTERS ==========

func (h *payrollHandlerImpl) GetSalaryMaster(w http.ResponseWriter, r *http.Request) {
	master, err := h.payrollService.GetSalaryMaster(r.Context(), middleware.CompanyIDFromContext(r.Context()), chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, master)
}

func (h *payrollHandlerImpl) UpsertSalaryMaster(w http.ResponseWriter, r *http.Request) {
	var req payroll.UpsertSalaryMasterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpsertSalaryMaster decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	master, err := h.payrollService.UpsertSalaryMaster(r.Context(), middleware.CompanyIDFromContext(r.Context()), employeeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary master saved successfully", master)
}

// ========== GENERATIONS ==========

// Generate runs the monthly salary generation. Per-employee failures come
// back in the body with 200; an unresolved attendance gate is a 422.
func (h *payrollHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	var req payroll.GenerateMonthlyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Generate decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.GenerateMonthly(r.Context(), middleware.CompanyIDFromContext(r.Context()), req.Month, req.Year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary generation completed", result)
}

func (h *payrollHandlerImpl) ListGenerations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	month, monthErr := strconv.Atoi(query.Get("month"))
	year, yearErr := strconv.Atoi(query.Get("year"))
	if monthErr != nil || yearErr != nil {
		response.BadRequest(w, "month and year query parameters are required", nil)
		return
	}

	generations, err := h.payrollService.ListGenerations(r.Context(), middleware.CompanyIDFromContext(r.Context()), month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, generations)
}

// ========== FORMULAS ==========

func (h *payrollHandlerImpl) EvaluateFormula(w http.ResponseWriter, r *http.Request) {
	var req payroll.EvaluateFormulaRequest
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		slog.Error("EvaluateFormula decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.payrollService.EvaluateFormula(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
