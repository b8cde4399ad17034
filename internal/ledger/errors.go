package ledger

import (
	"errors"
	"fmt"
)

// ValidationError reports an unmet input precondition. It is never retried; the
// message names the precondition so the caller can surface it verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a named input field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ComputationError reports an unexpected failure inside a computation, such as a
// non-finite intermediate value. Root cause is an invariant violation rather than
// bad input, so it is kept distinct from ValidationError.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("computation failed in %s", e.Op)
	}
	return fmt.Sprintf("computation failed in %s: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// NewComputationError wraps err with the operation that failed.
func NewComputationError(op string, err error) *ComputationError {
	return &ComputationError{Op: op, Err: err}
}
