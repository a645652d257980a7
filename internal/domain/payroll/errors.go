package payroll

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"

var (
	ErrAdjustmentNotFound = apperror.NotFound("salary adjustment not found")
	ErrEmptyAdjustment    = apperror.Validation("adjustment needs a bonus or a deduction")
)
