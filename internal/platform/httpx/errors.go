// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
)

// Sentinel errors for the domain layer. Handlers wrap these so RespondError
// can map an error chain onto a status code.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// Conflictf wraps ErrConflict with a formatted detail message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, args...)...)
}

var verboseErrors atomic.Bool

// SetVerboseErrors toggles whether unrecognised errors include their detail in
// the 500 response. Enabled in development, left off in production so internal
// error text never leaks to clients.
func SetVerboseErrors(enabled bool) {
	verboseErrors.Store(enabled)
}

// RespondError maps domain errors to HTTP responses. Unrecognised errors
// become 500; the detail is suppressed unless verbose errors are enabled.
// Callers are expected to log the full error server-side before handing it
// here.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		detail := ""
		if verboseErrors.Load() && err != nil {
			detail = err.Error()
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", detail)
	}
}
