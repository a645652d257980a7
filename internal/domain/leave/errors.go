package leave

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"

var (
	ErrLeaveRequestNotFound   = apperror.NotFound("leave request not found")
	ErrInsufficientBalance    = apperror.InsufficientBalance("insufficient leave balance")
	ErrLeaveAlreadyProcessed  = apperror.Conflict("leave request already processed")
	ErrInvalidTransition      = apperror.Conflict("leave request cannot move to that status")
	ErrOverlappingLeave       = apperror.Conflict("leave request overlaps an existing request")
	ErrRejectionReasonMissing = apperror.Validation("rejection reason is required")
)
