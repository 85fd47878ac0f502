package job

import (
	"errors"
	"fmt"
)

// Reason enumerates why a submission failed.
type Reason string

const (
	ReasonValidationFailed  Reason = "validation_failed"
	ReasonTransportFailure  Reason = "simulated_transport_failure"
	ReasonProcessingFailure Reason = "simulated_processing_failure"
)

// Error is the failure outcome of a single submission. Message is safe to
// show to the user as-is.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same Reason, so callers can write
// errors.Is(err, job.ErrValidationFailed).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

var (
	ErrValidationFailed  = &Error{Reason: ReasonValidationFailed, Message: "validation failed"}
	ErrTransportFailure  = &Error{Reason: ReasonTransportFailure, Message: "simulated transport failure"}
	ErrProcessingFailure = &Error{Reason: ReasonProcessingFailure, Message: "simulated processing failure"}
)

func validationErrorf(format string, args ...any) *Error {
	return &Error{Reason: ReasonValidationFailed, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var jobErr *Error
	if errors.As(err, &jobErr) {
		return jobErr, true
	}
	return nil, false
}
