package scheduling

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an engine failure. Every kind is a terminal business
// outcome for the request; none is retried internally.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidInput
	KindSelfBooking
	KindInvalidDate
	KindProfessionalUnavailable
	KindClientConflict
	KindProfessionalConflict
	KindNotAuthorized
	KindCancellationNotAllowed
	KindCancellationWindowExpired
	KindStorageFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindSelfBooking:
		return "self_booking"
	case KindInvalidDate:
		return "invalid_date"
	case KindProfessionalUnavailable:
		return "professional_unavailable"
	case KindClientConflict:
		return "client_conflict"
	case KindProfessionalConflict:
		return "professional_conflict"
	case KindNotAuthorized:
		return "not_authorized"
	case KindCancellationNotAllowed:
		return "cancellation_not_allowed"
	case KindCancellationWindowExpired:
		return "cancellation_window_expired"
	case KindStorageFailure:
		return "storage_failure"
	}
	return "unknown"
}

// Error carries the failure kind plus a message fit for rendering to the
// caller. Wrapped causes (storage errors) are preserved for errors.Is.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func storageError(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindStorageFailure, msg: fmt.Sprintf(format, args...), err: cause}
}

func conflictError(kind Kind, who string, start, end time.Time) *Error {
	return newError(kind, "%s already has a reservation between %s and %s",
		who, start.Format(time.RFC3339), end.Format(time.RFC3339))
}

// ErrorKind extracts the Kind from err, or zero when err is not an engine
// error.
func ErrorKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
