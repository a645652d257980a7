package audit

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"

var (
	ErrUnknownKind           = apperror.Validation("unknown record kind")
	ErrDeletedRecordNotFound = apperror.NotFound("deleted record not found")
	ErrAlreadyRestored       = apperror.Conflict("record already restored")
	ErrRecordNotFound        = apperror.NotFound("record not found")
	ErrRecordExists          = apperror.Conflict("a record with this id already exists")
)
