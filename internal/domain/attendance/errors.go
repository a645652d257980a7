package attendance

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"

var (
	ErrAttendanceNotFound    = apperror.NotFound("attendance not found")
	ErrPendingNotFound       = apperror.NotFound("pending attendance not found")
	ErrAlreadyCheckedIn      = apperror.Conflict("already checked in today")
	ErrNotCheckedIn          = apperror.Conflict("no check-in recorded today")
	ErrAlreadyCheckedOut     = apperror.Conflict("already checked out today")
	ErrAlreadyOnBreak        = apperror.Conflict("break already started")
	ErrNotOnBreak            = apperror.Conflict("no break in progress")
	ErrPendingAlreadyDecided = apperror.Conflict("pending attendance already decided")
	ErrPendingAlreadyExists  = apperror.Conflict("a verification for today is already pending")
	ErrNotDesignatedApprover = apperror.Permission("only the designated approver can decide this attendance")
	ErrInvalidSchedule       = apperror.Validation("invalid work schedule")
	ErrInvalidSelfie         = apperror.Validation("selfie must be a jpg or png image")
	ErrSelfieNotFound        = apperror.NotFound("selfie not found")
)
