package pipeline

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies a failed run. Every failure a host sees is one of
// these four; none of them poisons the pipeline for later requests.
type ErrorCategory string

const (
	CategoryDecode  ErrorCategory = "decode_failure"
	CategoryRuntime ErrorCategory = "runtime_unavailable"
	CategoryStage   ErrorCategory = "stage_failure"
	CategoryEncode  ErrorCategory = "encode_failure"
)

// Error wraps a failure with its category at the orchestrator boundary.
type Error struct {
	Category ErrorCategory
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(category ErrorCategory, err error) *Error {
	return &Error{Category: category, Err: err}
}

// CategoryOf extracts the category from a pipeline error chain. Errors that
// did not pass the orchestrator boundary count as stage failures.
func CategoryOf(err error) ErrorCategory {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryStage
}
