package tail

import (
	"fmt"
	"math"
	"math/big"

	"github.com/agbru/omegacalc/internal/bigmath"
)

// Bound is an estimate of the truncation remainder.
//
// Tails at high orders are far smaller than the smallest big.Float, so a
// Bound carries its natural logarithm alongside the value. When Underflow
// is set only Log is meaningful and Value is zero. When Infinite is set no
// finite bound exists; Value is +Inf and Log is nil. A bound that is
// exactly zero has a nil Log.
type Bound struct {
	Value     *big.Float
	Log       *big.Float
	Underflow bool
	Infinite  bool
}

// infiniteBound returns the sentinel for an unbounded tail.
func infiniteBound(prec uint) Bound {
	return Bound{Value: new(big.Float).SetPrec(prec).SetInf(false), Infinite: true}
}

// zeroBound returns an exact zero bound.
func zeroBound(prec uint) Bound {
	return Bound{Value: new(big.Float).SetPrec(prec)}
}

// fromValue builds a bound from a representable positive value.
func fromValue(v *big.Float, prec uint) Bound {
	if v.Sign() == 0 {
		return zeroBound(prec)
	}
	return Bound{Value: v, Log: bigmath.Log(v, prec)}
}

// fromLog builds a bound from its logarithm, materializing the value when
// it is representable.
func fromLog(ln *big.Float, prec uint) Bound {
	v, underflow := bigmath.Exp(ln, prec)
	return Bound{Value: v, Log: new(big.Float).SetPrec(prec).Set(ln), Underflow: underflow}
}

// IsZero reports whether the bound is exactly zero.
func (b Bound) IsZero() bool {
	return !b.Infinite && !b.Underflow && b.Value != nil && b.Value.Sign() == 0
}

// Log10 returns log10 of the bound as a float64: +Inf for an infinite
// bound and -Inf for a zero one.
func (b Bound) Log10() float64 {
	switch {
	case b.Infinite:
		return math.Inf(1)
	case b.Log == nil:
		return math.Inf(-1)
	}
	return bigmath.Log10(b.Log)
}

// Dominates reports whether the bound is at least |y|.
func (b Bound) Dominates(y *big.Float) bool {
	if b.Infinite || y.Sign() == 0 {
		return true
	}
	if b.Log == nil {
		return false
	}
	if !b.Underflow {
		return b.Value.Cmp(new(big.Float).Abs(y)) >= 0
	}
	lnY := bigmath.Log(new(big.Float).Abs(y), b.Log.Prec())
	return b.Log.Cmp(lnY) >= 0
}

// Quo divides the bound by a positive d. A zero d yields an infinite bound.
func (b Bound) Quo(d *big.Float, prec uint) Bound {
	if b.Infinite || d.Sign() == 0 {
		return infiniteBound(prec)
	}
	if b.Log == nil {
		return zeroBound(prec)
	}
	ad := new(big.Float).Abs(d)
	if !b.Underflow {
		v := new(big.Float).SetPrec(prec).Quo(b.Value, ad)
		if v.Sign() != 0 {
			return fromValue(v, prec)
		}
	}
	ln := new(big.Float).SetPrec(prec).Sub(b.Log, bigmath.Log(ad, prec))
	return fromLog(ln, prec)
}

// Text renders the bound with the given number of significant digits.
// Underflowed bounds are rendered from their logarithm with float64
// resolution, prefixed by "~".
func (b Bound) Text(digits int) string {
	switch {
	case b.Infinite:
		return "+Inf"
	case b.Log == nil:
		return "0"
	case !b.Underflow:
		return b.Value.Text('e', digits-1)
	}
	l10 := bigmath.Log10(b.Log)
	exp := math.Floor(l10)
	mant := math.Pow(10, l10-exp)
	return fmt.Sprintf("~%.6fe%+.0f", mant, exp)
}
