package employee

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"

var (
	ErrEmployeeNotFound   = apperror.NotFound("employee not found")
	ErrEmailExists        = apperror.Conflict("email already registered in this company")
	ErrManagerNotFound    = apperror.Validation("manager does not belong to this company")
	ErrSelfManager        = apperror.Validation("employee cannot be their own manager")
	ErrBalanceConflict    = apperror.Conflict("balance changed concurrently, please retry")
	ErrInsufficientPoints = apperror.InsufficientBalance("insufficient points balance")
)
