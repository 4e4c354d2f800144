package apperrors

import (
	"context"
	"errors"
	"testing"
)

// TestErrorKinds checks the message of every error type together with the
// classification helpers, directly and through two levels of wrapping.
func TestErrorKinds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		err        error
		msg        string
		arithmetic bool
		context    bool
	}{
		{
			name: "config",
			err:  NewConfigError("invalid value %d for flag %s", 7, "-digits"),
			msg:  "invalid value 7 for flag -digits",
		},
		{
			name:       "domain",
			err:        NewDomainError("series.Evaluate", "x must be positive, got %s", "-1"),
			msg:        "domain error in series.Evaluate: x must be positive, got -1",
			arithmetic: true,
		},
		{
			name:       "domain without op",
			err:        DomainError{Message: "x is zero"},
			msg:        "domain error: x is zero",
			arithmetic: true,
		},
		{
			name:       "undefined",
			err:        NewArithmeticUndefinedError("tail.Certified", "decay rate %s >= 1", "1.2"),
			msg:        "arithmetic undefined in tail.Certified: decay rate 1.2 >= 1",
			arithmetic: true,
		},
		{
			name:       "undefined without op",
			err:        ArithmeticUndefinedError{Message: "ratio >= 1"},
			msg:        "arithmetic undefined: ratio >= 1",
			arithmetic: true,
		},
		{
			name:       "bracket",
			err:        BracketError{Low: "1.98", High: "1.99", Message: "f(low) <= target"},
			msg:        "invalid bracket [1.98, 1.99]: f(low) <= target",
			arithmetic: true,
		},
		{
			name: "validation",
			err:  NewValidationError("maxN", "must be at least 1", 0),
			msg:  "validation error for 'maxN': must be at least 1",
		},
		{
			name: "validation without field",
			err:  ValidationError{Message: "invalid input"},
			msg:  "validation error: invalid input",
		},
		{
			name:    "canceled",
			err:     context.Canceled,
			msg:     "context canceled",
			context: true,
		},
		{
			name:    "deadline",
			err:     context.DeadlineExceeded,
			msg:     "context deadline exceeded",
			context: true,
		},
		{
			name: "plain",
			err:  errors.New("disk full"),
			msg:  "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.msg {
				t.Errorf("Error() = %q, want %q", got, tt.msg)
			}
			wrapped := NewCalculationError(20, WrapError(tt.err, "solve"))
			for _, err := range []error{tt.err, wrapped} {
				if got := IsArithmeticError(err); got != tt.arithmetic {
					t.Errorf("IsArithmeticError(%v) = %v, want %v", err, got, tt.arithmetic)
				}
				if got := IsContextError(err); got != tt.context {
					t.Errorf("IsContextError(%v) = %v, want %v", err, got, tt.context)
				}
			}
			if !errors.Is(wrapped, tt.err) {
				t.Errorf("%v lost %v", wrapped, tt.err)
			}
		})
	}

	if IsArithmeticError(nil) || IsContextError(nil) {
		t.Error("nil is neither arithmetic nor a context error")
	}
}

func TestErrorsAsValueTypes(t *testing.T) {
	t.Parallel()
	wrapped := WrapError(NewValidationError("orders", "order must be positive", -3), "parse")

	var valErr ValidationError
	if !errors.As(wrapped, &valErr) {
		t.Fatalf("errors.As did not find ValidationError in %v", wrapped)
	}
	if valErr.Field != "orders" || valErr.Value != -3 {
		t.Errorf("unexpected ValidationError %+v", valErr)
	}

	var cfgErr ConfigError
	if !errors.As(WrapError(NewConfigError("bad"), "load"), &cfgErr) || cfgErr.Message != "bad" {
		t.Errorf("errors.As did not find ConfigError, got %+v", cfgErr)
	}
}

func TestCalculationError(t *testing.T) {
	t.Parallel()
	cause := errors.New("bracket collapsed")
	err := NewCalculationError(40, cause)
	if got, want := err.Error(), "order 40: bracket collapsed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
	var calc CalculationError
	if !errors.As(err, &calc) || calc.Order != 40 {
		t.Errorf("errors.As gave %+v", calc)
	}
	if NewCalculationError(3, nil) != nil {
		t.Error("a nil cause yields a nil error")
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()
	if WrapError(nil, "ignored") != nil {
		t.Error("WrapError(nil) should be nil")
	}
	got := WrapError(errors.New("table too short"), "order %d at %d digits", 40, 60)
	if want := "order 40 at 60 digits: table too short"; got.Error() != want {
		t.Errorf("WrapError() = %q, want %q", got, want)
	}
}

func TestExitCodesDistinct(t *testing.T) {
	t.Parallel()
	if ExitSuccess != 0 || ExitErrorCanceled != 128+2 {
		t.Errorf("ExitSuccess = %d, ExitErrorCanceled = %d; want 0 and 130", ExitSuccess, ExitErrorCanceled)
	}
	seen := make(map[int]bool)
	for _, code := range []int{ExitSuccess, ExitErrorGeneric, ExitErrorTimeout, ExitErrorConfig, ExitErrorArithmetic, ExitErrorCanceled} {
		if seen[code] {
			t.Errorf("exit code %d is used twice", code)
		}
		seen[code] = true
	}
}
