package internal

import (
	"errors"
	"fmt"
)

// NetworkError wraps a failed HTTP or websocket operation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError reports client-side input that must never reach the
// network (attachment limits, malformed email, missing profile fields).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SessionBootstrapError reports a failed start/resume exchange. The
// controller surfaces it and does not retry on its own.
type SessionBootstrapError struct {
	Err error
}

func (e *SessionBootstrapError) Error() string {
	return fmt.Sprintf("session bootstrap failed: %v", e.Err)
}

func (e *SessionBootstrapError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a malformed inbound frame. Frames carrying it are
// dropped and logged, never fatal to the event stream.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
