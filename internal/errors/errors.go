// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (configuration,
// domain, arithmetic, etc.) and for carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types implement the Unwrap() method where a cause exists, to
// support errors.Is() and errors.As().
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess         = 0   // Indicates successful execution.
	ExitErrorGeneric    = 1   // Indicates a generic error.
	ExitErrorTimeout    = 2   // Indicates the operation timed out.
	ExitErrorConfig     = 4   // Indicates a configuration error.
	ExitErrorArithmetic = 5   // Indicates that at least one truncation order failed arithmetically.
	ExitErrorCanceled   = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// DomainError reports an input outside the domain of a series evaluation,
// such as a non-positive evaluation point.
type DomainError struct {
	// Op is the operation that rejected the input (e.g., "series.Evaluate").
	Op string
	// Message describes the violated condition.
	Message string
}

// Error returns the error message for a DomainError.
func (e DomainError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("domain error in %s: %s", e.Op, e.Message)
	}
	return "domain error: " + e.Message
}

// NewDomainError creates a new DomainError.
func NewDomainError(op, format string, a ...any) error {
	return DomainError{Op: op, Message: fmt.Sprintf(format, a...)}
}

// ArithmeticUndefinedError signals that the preconditions of a bound or of
// the solver do not hold for the requested truncation order. It is not a
// program defect: raising the truncation order is the usual remedy.
type ArithmeticUndefinedError struct {
	// Op is the operation that could not produce a finite result.
	Op string
	// Message describes the failed precondition.
	Message string
}

// Error returns the error message for an ArithmeticUndefinedError.
func (e ArithmeticUndefinedError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("arithmetic undefined in %s: %s", e.Op, e.Message)
	}
	return "arithmetic undefined: " + e.Message
}

// NewArithmeticUndefinedError creates a new ArithmeticUndefinedError.
func NewArithmeticUndefinedError(op, format string, a ...any) error {
	return ArithmeticUndefinedError{Op: op, Message: fmt.Sprintf(format, a...)}
}

// BracketError reports that a bisection bracket does not straddle the
// target value, so the solver's convergence guarantee does not hold.
type BracketError struct {
	// Low and High are the decimal renderings of the bracket endpoints.
	Low, High string
	// Message describes which condition failed.
	Message string
}

// Error returns the error message for a BracketError.
func (e BracketError) Error() string {
	return fmt.Sprintf("invalid bracket [%s, %s]: %s", e.Low, e.High, e.Message)
}

// CalculationError encapsulates the failure of one truncation order while
// preserving the original cause.
type CalculationError struct {
	// Order is the truncation order whose run failed.
	Order int
	// Cause is the underlying error that triggered this calculation error.
	Cause error
}

// Error returns the error message, prefixed by the order.
func (e CalculationError) Error() string {
	return fmt.Sprintf("order %d: %v", e.Order, e.Cause)
}

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
func (e CalculationError) Unwrap() error { return e.Cause }

// NewCalculationError wraps cause for the given order. A nil cause yields nil.
func NewCalculationError(order int, cause error) error {
	if cause == nil {
		return nil
	}
	return CalculationError{Order: order, Cause: cause}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsArithmeticError reports whether err is (or wraps) one of the numeric
// failure classes: DomainError, ArithmeticUndefinedError or BracketError.
func IsArithmeticError(err error) bool {
	var domainErr DomainError
	var undefinedErr ArithmeticUndefinedError
	var bracketErr BracketError
	return errors.As(err, &domainErr) || errors.As(err, &undefinedErr) || errors.As(err, &bracketErr)
}

// ValidationError represents an error due to invalid input validation.
// It is used for parameter validation (truncation orders, table sizes).
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the invalid value (optional, may be nil).
	Value any
}

// Error returns the error message for a ValidationError.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}
