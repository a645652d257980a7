package assistant

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"

var (
	ErrUnknownTool       = apperror.Validation("unknown tool")
	ErrInvalidArguments  = apperror.Validation("invalid tool arguments")
	ErrTooManyToolRounds = apperror.Conflict("assistant exceeded the tool call limit")
	ErrModelUnavailable  = apperror.New(apperror.KindInternal, "assistant model is unavailable")
)
