package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/response"
)

type PolicyHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type policyHandlerImpl struct {
	policyService policy.PolicyService
}

func NewPolicyHandler(policyService policy.PolicyService) PolicyHandler {
	return &policyHandlerImpl{policyService: policyService}
}

// Get returns the caller's company policy, falling back to the defaults.
func (h *policyHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	p, err := h.policyService.Get(r.Context(), caller.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, policy.ToResponse(p))
}

// Update applies a partial policy update.
func (h *policyHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req policy.UpdatePolicyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.policyService.Update(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Policy updated successfully", policy.ToResponse(p))
}
