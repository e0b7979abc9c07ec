package internal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NetworkError{Op: "dial", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is() does not reach the cause")
	}
	if !strings.Contains(err.Error(), "dial") {
		t.Errorf("Error = %q, want operation name", err.Error())
	}
}

func TestSessionBootstrapErrorUnwrap(t *testing.T) {
	cause := &NetworkError{Op: "start session", Err: errors.New("boom")}
	err := &SessionBootstrapError{Err: cause}

	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Error("errors.As() does not reach the wrapped NetworkError")
	}
}

func TestIsValidation(t *testing.T) {
	verr := &ValidationError{Field: "email", Reason: "malformed"}
	if !IsValidation(verr) {
		t.Error("IsValidation() = false for ValidationError")
	}
	if !IsValidation(fmt.Errorf("wrapped: %w", verr)) {
		t.Error("IsValidation() = false for wrapped ValidationError")
	}
	if IsValidation(errors.New("other")) {
		t.Error("IsValidation() = true for unrelated error")
	}
}
