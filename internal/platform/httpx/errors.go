// Package httpx maps domain errors onto HTTP responses.
package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// Sentinel error kinds. Domain errors wrap one of these so the HTTP layer
// can pick a status without knowing the domain.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Kind    error
	Code    string
	Message string
}

// NewError returns an Error of the given kind.
func NewError(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a JSON error body. Errors of unknown kind are
// logged and reported as a generic 500.
func RespondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "error", err)
		JSON(w, status, ErrorBody{Error: "internal error", Code: "internal"})
		return
	}

	body := ErrorBody{Error: http.StatusText(status), Code: defaultCode(status), Message: err.Error()}
	var coded *Error
	if errors.As(err, &coded) {
		body.Code = coded.Code
	}
	JSON(w, status, body)
}

func defaultCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}
