package contract

import (
	"errors"
	"fmt"
)

// FailureKind classifies a pipeline failure.
type FailureKind string

// All failure kinds.
const (
	ValidationFailure FailureKind = "validation" // rejected locally, nothing was sent
	AuthFailure       FailureKind = "auth"       // missing credential or 401/403
	NetworkFailure    FailureKind = "network"    // transport failed before a response
	TimeoutFailure    FailureKind = "timeout"    // no response before the deadline
	ServerFailure     FailureKind = "server"     // non-2xx response
	ShapeFailure      FailureKind = "shape"      // response body does not match the schema
	BusyFailure       FailureKind = "busy"       // same action already in flight
)

// Validation error reasons.
const (
	ReasonUnsupportedType = "unsupported-type"
	ReasonNoSnapshot      = "no-snapshot"
	ReasonMissingField    = "missing-field"
)

// PipelineError is the error returned by every pipeline operation.
type PipelineError struct {
	Op     string      // operation that failed, e.g. "upload"
	Kind   FailureKind // classification
	Status int         // HTTP status for server and auth failures, 0 otherwise
	Reason string      // short machine-readable reason, optional
	Err    error       // underlying cause, optional
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a validation failure with the given reason.
func NewValidationError(op, reason string) *PipelineError {
	return &PipelineError{Op: op, Kind: ValidationFailure, Reason: reason}
}

// NewAuthError returns an auth failure. Status is 0 when no request was sent.
func NewAuthError(op string, status int, err error) *PipelineError {
	return &PipelineError{Op: op, Kind: AuthFailure, Status: status, Err: err}
}

// NewShapeError returns a shape failure for a malformed payload.
func NewShapeError(op string, err error) *PipelineError {
	return &PipelineError{Op: op, Kind: ShapeFailure, Err: err}
}

// NewBusyError returns a failure for an action already in flight.
func NewBusyError(op string) *PipelineError {
	return &PipelineError{Op: op, Kind: BusyFailure, Reason: "already in progress"}
}

// KindOf returns the failure kind of err, or "" when err is not a PipelineError.
func KindOf(err error) FailureKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err is a PipelineError of the given kind.
func IsKind(err error, kind FailureKind) bool {
	return err != nil && KindOf(err) == kind
}
