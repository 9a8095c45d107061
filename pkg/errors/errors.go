package redline_errors

import (
	"errors"
	"time"
)

// Recoverable, user-facing error kinds. Handlers map these to stable
// response codes; anything not in this list is reported as internal.
var (
	ErrInvalidConfig        = errors.New("invalid session configuration")
	ErrSessionFull          = errors.New("session is full")
	ErrSessionEnded         = errors.New("session has ended")
	ErrAccessDenied         = errors.New("access denied")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrForbidden            = errors.New("forbidden")
	ErrVersionNotFound      = errors.New("version not found")
	ErrCrossDocumentCompare = errors.New("versions belong to different documents")
	ErrIntegrity            = errors.New("content checksum mismatch")
	ErrEmptyComment         = errors.New("comment content is empty")
	ErrInvalidThreadDepth   = errors.New("replies cannot be nested")
	ErrAlreadyClosed        = errors.New("comment is already closed")
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrAlreadyExists        = errors.New("already exists")
	ErrTimeout              = errors.New("external dependency timed out")
	ErrInternal             = errors.New("internal error")
)

// Code returns the stable machine-readable code for a known error kind.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return "INVALID_CONFIG"
	case errors.Is(err, ErrSessionFull):
		return "SESSION_FULL"
	case errors.Is(err, ErrSessionEnded):
		return "SESSION_ENDED"
	case errors.Is(err, ErrAccessDenied):
		return "ACCESS_DENIED"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrVersionNotFound):
		return "VERSION_NOT_FOUND"
	case errors.Is(err, ErrCrossDocumentCompare):
		return "CROSS_DOCUMENT_COMPARE"
	case errors.Is(err, ErrIntegrity):
		return "INTEGRITY_ERROR"
	case errors.Is(err, ErrEmptyComment):
		return "EMPTY_COMMENT"
	case errors.Is(err, ErrInvalidThreadDepth):
		return "INVALID_THREAD_DEPTH"
	case errors.Is(err, ErrAlreadyClosed):
		return "ALREADY_CLOSED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	default:
		return "INTERNAL_ERROR"
	}
}

// Recoverable reports whether err is one of the user-facing kinds.
// Internal invariant violations are logged with context and surfaced
// as ErrInternal, never with detail.
func Recoverable(err error) bool {
	return Code(err) != "INTERNAL_ERROR"
}

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
