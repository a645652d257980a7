package policy

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"

var (
	ErrPolicyNotFound          = apperror.NotFound("company policy not found")
	ErrInvalidVerificationMode = apperror.Validation("invalid verification mode")
)
