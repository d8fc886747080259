package eval

import (
	"errors"
	"fmt"
)

// QueryError is an error raised while evaluating a query.
//
// Expression errors are expected: filters treat them as false and never
// surface them. Sub-query errors wrap the failure of a nested evaluation
// and carry it as Cause.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Operator names the operator that raised the error, if known.
	Operator string

	// Cause is the underlying failure.
	Cause error
}

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeExpression indicates a type error or unbound variable in an
	// expression.
	ErrCodeExpression ErrorCode = "EXPRESSION"

	// ErrCodeSubQuery indicates a failure inside a nested query.
	ErrCodeSubQuery ErrorCode = "SUBQUERY"

	// ErrCodeUnsupported indicates an operation an operator does not support.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"

	// ErrCodeTimeout is reserved for callers that want to treat a partial
	// result as a failure. Products never raise it.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Operator != "" {
		msg += fmt.Sprintf(" (operator=%s)", e.Operator)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the cause.
func (e *QueryError) Unwrap() error { return e.Cause }

// NewExpressionError creates a QueryError for an expression failure.
func NewExpressionError(format string, args ...any) *QueryError {
	return &QueryError{Code: ErrCodeExpression, Message: fmt.Sprintf(format, args...)}
}

// NewSubQueryError wraps the failure of a nested query.
func NewSubQueryError(operator string, cause error) *QueryError {
	return &QueryError{
		Code:     ErrCodeSubQuery,
		Message:  "failure in sub-query execution",
		Operator: operator,
		Cause:    cause,
	}
}

// NewUnsupportedError creates a QueryError for an unsupported operation.
func NewUnsupportedError(operator, what string) *QueryError {
	return &QueryError{Code: ErrCodeUnsupported, Message: what, Operator: operator}
}

// IsExpressionError returns true if err is an expression error.
// Uses errors.As to handle wrapped errors.
func IsExpressionError(err error) bool {
	return hasCode(err, ErrCodeExpression)
}

// IsSubQueryError returns true if err is a wrapped sub-query failure.
func IsSubQueryError(err error) bool {
	return hasCode(err, ErrCodeSubQuery)
}

func hasCode(err error, code ErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}
