package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies the terminal color codes used by
// HandleCalculationError. It keeps this package free of the cli import.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// ExitCode maps an error to the process exit code. Context errors take
// precedence over the error class they are wrapped in.
func ExitCode(err error) int {
	var configErr ConfigError
	var validationErr ValidationError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &configErr), errors.As(err, &validationErr):
		return ExitErrorConfig
	case IsArithmeticError(err):
		return ExitErrorArithmetic
	}
	return ExitErrorGeneric
}

// HandleCalculationError prints the status line of a failed run and
// returns its exit code (see ExitCode).
//
// Parameters:
//   - err: The error that occurred.
//   - duration: The time spent before the failure; zero omits it.
//   - out: The io.Writer to which the error message will be written.
//   - colors: Provider for terminal color codes (can be nil for no colors).
//
// Returns:
//   - int: The appropriate exit code for the error type.
func HandleCalculationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	code := ExitCode(err)
	if code == ExitSuccess {
		return code
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	after := ""
	if duration > 0 {
		after = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	switch code {
	case ExitErrorTimeout:
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", after)
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), after, colors.Reset())
	case ExitErrorConfig:
		fmt.Fprintf(out, "Status: Failure (Configuration): %v\n", err)
	case ExitErrorArithmetic:
		fmt.Fprintf(out, "Status: Failure (Arithmetic)%s: %v\n", after, err)
		fmt.Fprintln(out, "Hint: an undefined or infinite bound usually means the truncation order is too small.")
	default:
		fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	}
	return code
}
