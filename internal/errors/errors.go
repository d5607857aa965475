package errors

import "fmt"

// ErrorCode represents a snag error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrConflict           ErrorCode = "CONFLICT"            // 409
	ErrInvariantViolation ErrorCode = "INVARIANT_VIOLATION" // 409, state-machine invariant broken
	ErrResource           ErrorCode = "RESOURCE"            // 500, filesystem or capture-tool bridge failure
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// SnagError represents a structured error with code, status, and details.
type SnagError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SnagError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SnagError {
	return &SnagError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing session, bug, or capture.
func NewNotFound(kind, identifier string) *SnagError {
	return &SnagError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewConflict creates a 409 error for lifecycle-phase conflicts, e.g.
// ending a bug capture with an id that is not the active bug.
func NewConflict(msg string) *SnagError {
	return &SnagError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewInvariantViolation creates a 409 error for a broken state-machine
// invariant: a second active session or a second capturing bug slipped
// past the serialized command path. The failed command leaves state
// unchanged; the condition indicates a programming or race bug.
func NewInvariantViolation(msg string) *SnagError {
	return &SnagError{
		Code:    ErrInvariantViolation,
		Status:  409,
		Message: msg,
	}
}

// NewResource creates a 500 error for a failed filesystem or capture-tool
// operation. The step name identifies which part of a multi-step command
// failed so recovery can retry just that step.
func NewResource(step string, err error) *SnagError {
	msg := step
	if err != nil {
		msg = fmt.Sprintf("%s: %v", step, err)
	}
	return &SnagError{
		Code:    ErrResource,
		Status:  500,
		Message: msg,
		Details: map[string]any{"step": step},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SnagError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SnagError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a SnagError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*SnagError); ok {
		return sErr.Code == code
	}
	return false
}
