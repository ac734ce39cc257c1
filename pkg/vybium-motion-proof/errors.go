package vybiummotionproof

import "fmt"

// ErrorCode represents a motion proof error code
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig

	// ErrEncodingOverflow represents a quantity outside its encodable range
	ErrEncodingOverflow

	// ErrTraceBoundary represents a trace of the wrong shape for proving
	ErrTraceBoundary

	// ErrProofGeneration represents a proof generation error
	ErrProofGeneration

	// ErrProofVerification represents a structural proof verification error
	ErrProofVerification

	// ErrProofEncoding represents a proof serialization error
	ErrProofEncoding

	// ErrEngineClosed represents use of a guard after Close
	ErrEngineClosed
)

// GuardError represents a motion proof error
type GuardError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *GuardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-motion-proof error [%d]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-motion-proof error [%d]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *GuardError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *GuardError) Is(target error) bool {
	t, ok := target.(*GuardError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
