package httpdto

import (
	"errors"
	"net/http"

	redline_errors "redline/pkg/errors"
)

type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}

// FromError builds the error response for a service failure: a stable
// documented code plus a human-readable message. Internal errors are
// never surfaced with detail.
func FromError(err error) (int, Response[any]) {
	// Integrity failures surface distinctly even though they map to a
	// server-side status: clients must not treat them as retriable.
	if errors.Is(err, redline_errors.ErrIntegrity) {
		return http.StatusInternalServerError, NewErrorResponse(err.Error(), "INTEGRITY_ERROR")
	}
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		return status, NewErrorResponse("internal error", "INTERNAL_ERROR")
	}
	return status, NewErrorResponse(err.Error(), redline_errors.Code(err))
}

// StatusFor maps error kinds to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, redline_errors.ErrInvalidConfig),
		errors.Is(err, redline_errors.ErrEmptyComment),
		errors.Is(err, redline_errors.ErrInvalidThreadDepth),
		errors.Is(err, redline_errors.ErrCrossDocumentCompare),
		errors.Is(err, redline_errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, redline_errors.ErrAccessDenied):
		return http.StatusUnauthorized
	case errors.Is(err, redline_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, redline_errors.ErrNotFound),
		errors.Is(err, redline_errors.ErrVersionNotFound):
		return http.StatusNotFound
	case errors.Is(err, redline_errors.ErrSessionFull),
		errors.Is(err, redline_errors.ErrSessionEnded),
		errors.Is(err, redline_errors.ErrInvalidTransition),
		errors.Is(err, redline_errors.ErrAlreadyClosed),
		errors.Is(err, redline_errors.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, redline_errors.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
