package marketplace

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"

var (
	ErrItemNotFound       = apperror.NotFound("marketplace item not found")
	ErrItemInactive       = apperror.Validation("marketplace item is not available")
	ErrOrderNotFound      = apperror.NotFound("marketplace order not found")
	ErrInvalidTransition  = apperror.Conflict("order cannot move to that status")
	ErrInsufficientPoints = apperror.InsufficientBalance("insufficient points balance")
)
