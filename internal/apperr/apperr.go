package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of business error kinds the API maps to
// HTTP status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindPreconditionFailed
	KindEscrowService
)

// Error carries a kind plus a user-actionable message. Wrapped causes are
// kept for logging but never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument flags malformed or missing input.
func InvalidArgument(format string, args ...interface{}) *Error {
	return newf(KindInvalidArgument, format, args...)
}

// Unauthenticated flags a missing caller identity.
func Unauthenticated(format string, args ...interface{}) *Error {
	return newf(KindUnauthenticated, format, args...)
}

// Forbidden flags an authenticated caller without the capability.
func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindForbidden, format, args...)
}

// NotFound flags a missing entity.
func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

// Conflict flags duplicate submissions, duplicate settlement txs and
// terminal-state re-reviews.
func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

// PreconditionFailed flags a business-rule gate that did not hold.
func PreconditionFailed(format string, args ...interface{}) *Error {
	return newf(KindPreconditionFailed, format, args...)
}

// EscrowService wraps a failure of the external settlement dependency.
// Callers may retry; local state is guaranteed unchanged.
func EscrowService(message string, err error) *Error {
	return &Error{Kind: KindEscrowService, Message: message, Err: err}
}

// Internal wraps an unexpected failure. The message shown to clients is
// generic; the cause goes to the log only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the kind from an error chain, KindInternal if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message for an error chain. Internal
// errors never leak their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps an error chain to the status code of the REST surface.
// PreconditionFailed business gates render as 400 to match the API
// contract, not as 412.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument, KindPreconditionFailed:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindEscrowService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
