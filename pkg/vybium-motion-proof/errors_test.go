package vybiummotionproof

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestGuardErrorMessage tests error formatting with and without a cause
func TestGuardErrorMessage(t *testing.T) {
	plain := &GuardError{Code: ErrInvalidConfig, Message: "bad config"}
	if !strings.Contains(plain.Error(), "bad config") {
		t.Errorf("Message missing from error: %s", plain.Error())
	}

	cause := fmt.Errorf("underlying failure")
	wrapped := &GuardError{Code: ErrProofGeneration, Message: "generation failed", Cause: cause}
	if !strings.Contains(wrapped.Error(), "underlying failure") {
		t.Errorf("Cause missing from error: %s", wrapped.Error())
	}
}

// TestGuardErrorUnwrap tests errors.Is/As traversal through the cause chain
func TestGuardErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := &GuardError{Code: ErrProofEncoding, Message: "encode", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}

// TestGuardErrorIs tests code-based matching
func TestGuardErrorIs(t *testing.T) {
	err := &GuardError{Code: ErrEncodingOverflow, Message: "overflow"}

	if !errors.Is(err, &GuardError{Code: ErrEncodingOverflow}) {
		t.Error("Errors with matching codes should match")
	}
	if errors.Is(err, &GuardError{Code: ErrTraceBoundary}) {
		t.Error("Errors with different codes should not match")
	}
	if errors.Is(err, fmt.Errorf("other")) {
		t.Error("Non-GuardError targets should not match")
	}
}
