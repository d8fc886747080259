package engine

import (
	"errors"
	"fmt"
)

// ExecutionError is returned by Execute and Commit.
//
// Evaluation failures keep the underlying error (often an eval.QueryError)
// as Cause, so errors.Is and errors.As see through it.
type ExecutionError struct {
	// Code identifies the error category.
	Code ExecutionErrorCode

	// Message is a human-readable description.
	Message string

	// Token identifies the execution, when one was started.
	Token string

	Cause error
}

// ExecutionErrorCode categorizes execution errors.
type ExecutionErrorCode string

const (
	// ErrCodeInvalidQuery indicates the query cannot be executed at all.
	ErrCodeInvalidQuery ExecutionErrorCode = "INVALID_QUERY"

	// ErrCodeEvaluation indicates an operator failed during evaluation.
	ErrCodeEvaluation ExecutionErrorCode = "EVALUATION_FAILED"

	// ErrCodeFlush indicates buffered graph changes could not be committed.
	ErrCodeFlush ExecutionErrorCode = "FLUSH_FAILED"
)

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Token != "" {
		msg += fmt.Sprintf(" (execution=%s)", e.Token)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// IsInvalidQueryError reports whether err is an ExecutionError with
// ErrCodeInvalidQuery. Uses errors.As to handle wrapped errors.
func IsInvalidQueryError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee) && ee.Code == ErrCodeInvalidQuery
}

// IsEvaluationError reports whether err is an ExecutionError with
// ErrCodeEvaluation.
func IsEvaluationError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee) && ee.Code == ErrCodeEvaluation
}

// NewInvalidQueryError creates an ExecutionError for a query that cannot be
// executed.
func NewInvalidQueryError(format string, args ...any) *ExecutionError {
	return &ExecutionError{
		Code:    ErrCodeInvalidQuery,
		Message: fmt.Sprintf(format, args...),
	}
}
