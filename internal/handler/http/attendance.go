package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-policy-engine/internal/service/file"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	StartBreak(w http.ResponseWriter, r *http.Request)
	EndBreak(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	ListMy(w http.ResponseWriter, r *http.Request)
	UploadSelfie(w http.ResponseWriter, r *http.Request)
	GetSelfie(w http.ResponseWriter, r *http.Request)

	ListPending(w http.ResponseWriter, r *http.Request)
	ApprovePending(w http.ResponseWriter, r *http.Request)
	RejectPending(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	fileService       file.FileService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, fileService file.FileService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		fileService:       fileService,
	}
}

type checkFunc func(caller user.Caller, req attendance.CheckRequest) (attendance.CheckResult, error)

// check writes 201 when the event was recorded and 202 when it was queued
// for approval.
func (h *attendanceHandlerImpl) check(w http.ResponseWriter, r *http.Request, fn checkFunc, done string) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req attendance.CheckRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.IPAddress = clientIP(r)

	result, err := fn(caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !result.Recorded {
		response.Accepted(w, "Waiting for approval", result)
		return
	}
	response.Created(w, done, result)
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, func(c user.Caller, req attendance.CheckRequest) (attendance.CheckResult, error) {
		return h.attendanceService.CheckIn(r.Context(), c, req)
	}, "Checked in successfully")
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, func(c user.Caller, req attendance.CheckRequest) (attendance.CheckResult, error) {
		return h.attendanceService.CheckOut(r.Context(), c, req)
	}, "Checked out successfully")
}

// StartBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) StartBreak(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	log, err := h.attendanceService.StartBreak(r.Context(), caller)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break started", log)
}

// EndBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) EndBreak(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	log, err := h.attendanceService.EndBreak(r.Context(), caller)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break ended", log)
}

// Today returns today's log, or null when the caller has not checked in.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	log, err := h.attendanceService.Today(r.Context(), caller)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, log)
}

// ListMy implements AttendanceHandler. Query: month=YYYY-MM.
func (h *attendanceHandlerImpl) ListMy(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	filter := attendance.ListLogsFilter{Month: r.URL.Query().Get("month")}
	logs, err := h.attendanceService.ListMy(r.Context(), caller, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, logs)
}

// ListPending implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	pending, err := h.attendanceService.ListPending(r.Context(), caller)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, pending)
}

// ApprovePending implements AttendanceHandler.
func (h *attendanceHandlerImpl) ApprovePending(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req attendance.ReviewPendingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.attendanceService.ApprovePending(r.Context(), caller, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance approved", p)
}

// RejectPending implements AttendanceHandler.
func (h *attendanceHandlerImpl) RejectPending(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req attendance.ReviewPendingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.attendanceService.RejectPending(r.Context(), caller, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance rejected", p)
}

// UploadSelfie stores the multipart "selfie" file and returns the URL to send
// as selfie_url on the next check.
func (h *attendanceHandlerImpl) UploadSelfie(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	// Parse multipart form (max 10MB)
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		slog.Debug("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	f, header, err := r.FormFile("selfie")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			response.BadRequest(w, "Field 'selfie' is required", nil)
			return
		}
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer f.Close()

	result, err := h.fileService.UploadSelfie(r.Context(), caller, f, header.Filename)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Selfie uploaded successfully", result)
}

// GetSelfie streams a stored selfie: GET /attendance/selfies/*.
func (h *attendanceHandlerImpl) GetSelfie(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	rc, err := h.fileService.OpenSelfie(r.Context(), caller, chi.URLParam(r, "*"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Debug("selfie stream interrupted", "error", err)
	}
}
