package user

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"

var (
	ErrInvalidClaims           = apperror.Validation("invalid token claims")
	ErrAdminAccessRequired     = apperror.Permission("admin access required")
	ErrInsufficientPermissions = apperror.Permission("insufficient permissions")
)
