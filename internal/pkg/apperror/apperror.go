package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind string

const (
	KindValidation          Kind = "VALIDATION_ERROR"
	KindNotFound            Kind = "NOT_FOUND"
	KindInsufficientBalance Kind = "INSUFFICIENT_BALANCE"
	KindPermission          Kind = "FORBIDDEN"
	KindConflict            Kind = "CONFLICT"
	KindInternal            Kind = "INTERNAL_SERVER_ERROR"
)

type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches kind markers (an AppError with no message) by kind, everything else by identity.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Message == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return e == t
}

// Kind markers for errors.Is(err, apperror.ErrNotFound) style checks.
var (
	ErrValidation          = &AppError{Kind: KindValidation}
	ErrNotFound            = &AppError{Kind: KindNotFound}
	ErrInsufficientBalance = &AppError{Kind: KindInsufficientBalance}
	ErrPermission          = &AppError{Kind: KindPermission}
	ErrConflict            = &AppError{Kind: KindConflict}
)

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(err error, kind Kind, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *AppError            { return New(KindNotFound, message) }
func Conflict(message string) *AppError            { return New(KindConflict, message) }
func Permission(message string) *AppError          { return New(KindPermission, message) }
func Validation(message string) *AppError          { return New(KindValidation, message) }
func InsufficientBalance(message string) *AppError { return New(KindInsufficientBalance, message) }

// KindOf returns the kind of the first AppError in the chain. Field validation
// failures count as KindValidation, anything unclassified is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return KindValidation
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientBalance:
		return http.StatusBadRequest
	case KindPermission:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether err looks like a transient I/O failure. Classified
// domain errors and cancellations are never retried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return KindOf(err) == KindInternal
}

// RetryOnce runs fn and, if it fails with a retryable error, runs it exactly once more.
func RetryOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if !Retryable(err) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	return fn(ctx)
}
