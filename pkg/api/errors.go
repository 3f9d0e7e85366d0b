package api

import (
	"errors"
	"fmt"
	"time"
)

// Error sentinels for the failure taxonomy surfaced by Call. Match with
// errors.Is against the error returned by any client operation.
var (
	// ErrNoSession indicates no authenticated identity is present.
	ErrNoSession = errors.New("no active session")

	// ErrNoToken indicates the identity provider returned an empty token.
	ErrNoToken = errors.New("no session token available")

	// ErrInvalidRequest indicates a missing action or missing configuration.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTimeout indicates the request was aborted by its timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrHTTP indicates a transport-level HTTP failure status.
	ErrHTTP = errors.New("http error")

	// ErrRemoteRejected indicates the remote answered but did not assert success.
	ErrRemoteRejected = errors.New("remote rejected request")

	// ErrNetwork indicates the request never produced an HTTP response.
	ErrNetwork = errors.New("network error")

	// ErrFallback indicates the fallback transport attempt failed.
	ErrFallback = errors.New("fallback transport error")
)

// Error is the typed failure returned by Call. Kind is always one of the
// sentinels above and Message is always a non-empty human-readable string.
type Error struct {
	// Kind is the sentinel classifying this failure.
	Kind error

	// Message is the human-readable failure description, preferring any
	// structured message found in the remote response.
	Message string

	// RequestID correlates the failure with the attempted request.
	RequestID string

	// Status is the HTTP status for ErrHTTP failures.
	Status int

	// Timeout is the configured timeout for ErrTimeout failures.
	Timeout time.Duration

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}

	return e.Message
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}

	return []error{e.Kind}
}

// newError builds a typed failure, defaulting the message from the kind.
func newError(kind error, requestID, message string, cause error) *Error {
	if message == "" {
		message = kind.Error()
	}

	return &Error{
		Kind:      kind,
		Message:   message,
		RequestID: requestID,
		cause:     cause,
	}
}

// failureMessage extracts the human-readable message from a Call failure.
func failureMessage(err error) string {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Message
	}

	return err.Error()
}
