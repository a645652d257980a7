package notification

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"

// Notification domain errors
var (
	ErrNotificationNotFound = apperror.NotFound("notification not found")
)
