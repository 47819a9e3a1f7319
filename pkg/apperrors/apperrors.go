package apperrors

import (
	"errors"
	"net/http"
)

// Kind is the stable, machine-checkable category of an expected failure.
// Services return these; handlers map them to HTTP statuses. Anything that
// is not one of the listed kinds is treated as an internal failure.
type Kind string

const (
	KindNotFound       Kind = "not_found"        // referenced entity absent
	KindConflict       Kind = "conflict"         // uniqueness violated
	KindLocked         Kind = "locked"           // mutation on a paid obligation
	KindUnauthorized   Kind = "unauthorized"     // credentials missing or wrong
	KindForbidden      Kind = "forbidden"        // actor not allowed
	KindInvalidInput   Kind = "invalid_input"    // value out of domain range
	KindAlreadySettled Kind = "already_settled"  // payment re-attempt on a paid obligation
	KindInternal       Kind = "internal"         // unexpected; details stay server-side
)

// Error carries a kind plus a human-readable message. It optionally wraps
// the underlying cause so errors.Is/As keep working through it.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an expected error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Internal wraps an unexpected failure. The message shown to callers is
// generic; the cause is preserved for logging.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the kind from err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to its transport status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindAlreadySettled:
		return http.StatusConflict
	case KindLocked:
		return http.StatusLocked
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-visible message for err. Internal failures are
// collapsed to an opaque message so no internals leak to the caller.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal server error"
}
