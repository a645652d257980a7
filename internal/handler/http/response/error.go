package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses by their apperror kind.
// Unclassified errors are logged and answered with a generic 500.
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
		return
	}

	fail(w, apperror.HTTPStatus(kind), string(kind), err.Error(), nil)
}
