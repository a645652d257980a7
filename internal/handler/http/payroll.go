package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	CreateAdjustment(w http.ResponseWriter, r *http.Request)
	ListAdjustments(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	CompanySummary(w http.ResponseWriter, r *http.Request)
	GenerateAutoAdjustments(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

func monthQuery(r *http.Request) payroll.MonthRequest {
	return payroll.MonthRequest{Month: r.URL.Query().Get("month")}
}

// CreateAdjustment records a manual bonus or deduction.
func (h *payrollHandlerImpl) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req payroll.CreateAdjustmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	adj, err := h.payrollService.CreateAdjustment(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Adjustment created successfully", adj)
}

// ListAdjustments implements PayrollHandler. Query: month, employee_id.
func (h *payrollHandlerImpl) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	adjs, err := h.payrollService.ListAdjustments(r.Context(), caller, monthQuery(r), optionalQuery(r, "employee_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, adjs)
}

// Summary implements PayrollHandler. Without an employeeID the caller's own
// summary is returned.
func (h *payrollHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == "" {
		employeeID = caller.EmployeeID
	}

	summary, err := h.payrollService.Summary(r.Context(), caller, employeeID, monthQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}

// CompanySummary implements PayrollHandler.
func (h *payrollHandlerImpl) CompanySummary(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	summaries, err := h.payrollService.CompanySummary(r.Context(), caller, monthQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summaries)
}

// GenerateAutoAdjustments implements PayrollHandler. Body: {"month":"YYYY-MM"}.
func (h *payrollHandlerImpl) GenerateAutoAdjustments(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req payroll.MonthRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.payrollService.GenerateAutoAdjustments(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Auto adjustments generated", result)
}
