package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AuditHandler interface {
	ListAudit(w http.ResponseWriter, r *http.Request)
	DeleteRecord(w http.ResponseWriter, r *http.Request)
	ListDeleted(w http.ResponseWriter, r *http.Request)
	Restore(w http.ResponseWriter, r *http.Request)
}

type auditHandlerImpl struct {
	recordService audit.RecordService
}

func NewAuditHandler(recordService audit.RecordService) AuditHandler {
	return &auditHandlerImpl{recordService: recordService}
}

// ListAudit implements AuditHandler. Query: table, record_id, limit.
func (h *auditHandlerImpl) ListAudit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	filter := audit.ListAuditFilter{
		TableName: optionalQuery(r, "table"),
		RecordID:  optionalQuery(r, "record_id"),
		Limit:     getIntQueryParam(r, "limit", 0),
	}
	entries, err := h.recordService.ListAudit(r.Context(), caller, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, entries)
}

// DeleteRecord removes any registered kind: DELETE /records/{kind}/{id}.
func (h *auditHandlerImpl) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	kind := audit.Kind(chi.URLParam(r, "kind"))
	if err := h.recordService.Delete(r.Context(), caller, kind, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Record deleted successfully", nil)
}

// ListDeleted implements AuditHandler. Query: kind.
func (h *auditHandlerImpl) ListDeleted(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var kind *audit.Kind
	if k := optionalQuery(r, "kind"); k != nil {
		v := audit.Kind(*k)
		kind = &v
	}

	records, err := h.recordService.ListDeleted(r.Context(), caller, kind)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, records)
}

// Restore implements AuditHandler.
func (h *auditHandlerImpl) Restore(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	record, err := h.recordService.Restore(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Record restored successfully", record)
}
