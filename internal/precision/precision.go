// Package precision defines the working-precision context shared by every
// numeric component. A Context is created once per run from a count of
// decimal digits and then passed explicitly; it is never modified, so it
// can be shared freely between goroutines.
package precision

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/agbru/omegacalc/internal/bigmath"
	apperrors "github.com/agbru/omegacalc/internal/errors"
)

const (
	// DefaultDigits is the number of significant decimal digits used when
	// none is configured.
	DefaultDigits = 60

	// MinDigits is the smallest accepted precision. Below it the bisection
	// tolerance is no finer than float64 and the diagnostics carry no
	// information.
	MinDigits = 15

	// MaxDigits caps the precision to keep a run within reasonable time.
	MaxDigits = 10_000

	// DefaultToleranceMultiplier scales epsilon into the bisection
	// convergence tolerance.
	DefaultToleranceMultiplier = 10
)

// Context holds the binary precision derived from a decimal digit count,
// together with the constants every component needs at that precision.
type Context struct {
	digits int
	prec   uint
	phi    *big.Float
	invPhi *big.Float
	lnPhi  *big.Float
	eps    *big.Float
}

// BitsForDigits converts a decimal digit count into a binary mantissa width,
// keeping one spare decimal digit: round((digits+1)·log2(10)).
func BitsForDigits(digits int) uint {
	return uint(math.Round(float64(digits+1) * math.Log2(10)))
}

// New builds the precision context for the given number of significant
// decimal digits.
//
// Parameters:
//   - digits: The number of significant decimal digits, at least MinDigits.
//
// Returns:
//   - *Context: The immutable context.
//   - error: A ConfigError if digits is out of range.
func New(digits int) (*Context, error) {
	if digits < MinDigits {
		return nil, apperrors.NewConfigError("precision must be at least %d decimal digits, got %d", MinDigits, digits)
	}
	if digits > MaxDigits {
		return nil, apperrors.NewConfigError("precision must be at most %d decimal digits, got %d", MaxDigits, digits)
	}

	prec := BitsForDigits(digits)
	work := prec + bigmath.GuardBits

	// φ = (1 + √5) / 2
	phi := new(big.Float).SetPrec(work).SetInt64(5)
	phi.Sqrt(phi)
	phi.Add(phi, new(big.Float).SetInt64(1))
	phi.Quo(phi, new(big.Float).SetInt64(2))

	lnPhi := bigmath.Log(phi, work)
	invPhi := bigmath.Inverse(phi, work)

	eps := new(big.Float).SetPrec(prec).SetMantExp(big.NewFloat(1), 1-int(prec))

	return &Context{
		digits: digits,
		prec:   prec,
		phi:    new(big.Float).SetPrec(prec).Set(phi),
		invPhi: new(big.Float).SetPrec(prec).Set(invPhi),
		lnPhi:  new(big.Float).SetPrec(prec).Set(lnPhi),
		eps:    eps,
	}, nil
}

// Digits returns the configured number of significant decimal digits.
func (c *Context) Digits() int { return c.digits }

// Prec returns the binary mantissa width in bits.
func (c *Context) Prec() uint { return c.prec }

// Phi returns a copy of the golden ratio at context precision.
func (c *Context) Phi() *big.Float { return c.copyOf(c.phi) }

// InvPhi returns a copy of 1/φ at context precision.
func (c *Context) InvPhi() *big.Float { return c.copyOf(c.invPhi) }

// LnPhi returns a copy of ln φ at context precision. It is the target value
// of the series.
func (c *Context) LnPhi() *big.Float { return c.copyOf(c.lnPhi) }

// Epsilon returns a copy of the machine epsilon 2^(1-prec).
func (c *Context) Epsilon() *big.Float { return c.copyOf(c.eps) }

// Tolerance returns mult·ε. A non-positive multiplier selects
// DefaultToleranceMultiplier.
func (c *Context) Tolerance(mult int) *big.Float {
	if mult <= 0 {
		mult = DefaultToleranceMultiplier
	}
	t := c.NewFloat().SetInt64(int64(mult))
	return t.Mul(t, c.eps)
}

// NewFloat returns a zero value carrying the context precision.
func (c *Context) NewFloat() *big.Float {
	return new(big.Float).SetPrec(c.prec)
}

// Parse reads a decimal string at context precision.
func (c *Context) Parse(s string) (*big.Float, error) {
	x, _, err := big.ParseFloat(s, 10, c.prec, big.ToNearestEven)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid number %q: %v", s, err)
	}
	return x, nil
}

// FromDecimal converts an exact decimal into a float at context precision.
func (c *Context) FromDecimal(d decimal.Decimal) (*big.Float, error) {
	return c.Parse(d.String())
}

// Text renders x with the context's number of significant digits.
func (c *Context) Text(x *big.Float) string {
	return x.Text('g', c.digits)
}

func (c *Context) copyOf(x *big.Float) *big.Float {
	return new(big.Float).SetPrec(c.prec).Set(x)
}
