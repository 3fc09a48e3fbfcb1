package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/formula"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var unresolved *payroll.UnresolvedAttendanceError
	if errors.As(err, &unresolved) {
		UnprocessableEntity(w, "UNRESOLVED_ATTENDANCE", unresolved.Error(), map[string]interface{}{
			"month":            unresolved.Month,
			"year":             unresolved.Year,
			"absent_employees": unresolved.AbsentEmployees,
		})
		return
	}

	var componentErr *payroll.ComponentError
	if errors.As(err, &componentErr) {
		BadRequest(w, componentErr.Error(), map[string]string{
			"component_code": componentErr.Code,
			"formula":        componentErr.Formula,
		})
		return
	}

	var syntaxErr *formula.SyntaxError
	if errors.As(err, &syntaxErr) {
		BadRequest(w, syntaxErr.Error(), nil)
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrCompanyIDRequired):
		Forbidden(w, "Token is not bound to a company")
	case errors.Is(err, auth.ErrManagerAccessRequired):
		Forbidden(w, "Manager or owner role required")

	// Employee errors
	case errors.Is(err, employee.ErrEmployeeNotFound), errors.Is(err, payroll.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Leave errors
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, leave.ErrLeavePolicyNotFound):
		NotFound(w, "Leave policy not found")
	case errors.Is(err, leave.ErrLeavePeriodNotFound):
		NotFound(w, "Leave period not found")
	case errors.Is(err, leave.ErrAllocationNotFound):
		NotFound(w, "Leave allocation not found")
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrNoActivePeriod):
		BadRequest(w, "No active leave period", nil)
	case errors.Is(err, leave.ErrCompanyMismatch):
		BadRequest(w, "Leave policy does not belong to this company", nil)
	case errors.Is(err, leave.ErrCarryForwardDisabled):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, leave.ErrOverAllocation):
		BadRequest(w, "Allocated leaves exceed the leave type maximum", nil)
	case errors.Is(err, leave.ErrInsufficientBalance):
		BadRequest(w, "Insufficient leave balance", nil)
	case errors.Is(err, leave.ErrMaxConsecutiveExceeded):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, leave.ErrLeaveTypeNameExists):
		Conflict(w, "Leave type name already exists")
	case errors.Is(err, leave.ErrLeavePolicyNameExists):
		Conflict(w, "Leave policy name already exists")
	case errors.Is(err, leave.ErrLeavePeriodNameExists):
		Conflict(w, "Leave period name already exists")
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrConcurrencyConflict):
		Conflict(w, "Leave allocation was modified concurrently, please retry")

	// Payroll errors
	case errors.Is(err, payroll.ErrComponentNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, payroll.ErrSalaryMasterNotFound):
		NotFound(w, "Salary master not found")
	case errors.Is(err, payroll.ErrComponentCodeExists):
		Conflict(w, "Salary component code already exists")
	case errors.Is(err, payroll.ErrDeductionNotAssignable):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid payroll period", nil)
	case errors.Is(err, formula.ErrEvaluation):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
