// Package bigmath provides the elementary functions needed on *big.Float
// values: natural logarithm, log1p, exponential and integer powers.
//
// math/big offers no transcendental functions, so Log and Exp delegate to
// github.com/ALTree/bigfloat at a guarded working precision. The helpers in
// this package add what the series work needs on top of those kernels:
// a cancellation-free log1p for tiny arguments, an exponential that survives
// results far outside the big.Float exponent range, and exact-exponent
// integer powers.
package bigmath

import (
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
)

const (
	// GuardBits is the number of extra bits carried by intermediate results
	// before the final rounding to the caller's precision.
	GuardBits = 64

	// log1pSeriesExp selects the direct power series in Log1p: arguments
	// with |t| < 2^log1pSeriesExp are summed term by term instead of going
	// through Log(1+t), where 1+t would discard the low bits of t.
	log1pSeriesExp = -16
)

// Log returns the natural logarithm of x rounded to prec bits.
// x must be positive; Log(0) is -Inf.
func Log(x *big.Float, prec uint) *big.Float {
	work := new(big.Float).SetPrec(prec + GuardBits).Set(x)
	return new(big.Float).SetPrec(prec).Set(bigfloat.Log(work))
}

// Log1p returns ln(1+t) rounded to prec bits. t must be greater than -1.
//
// For |t| < 2^-16 the alternating series t - t²/2 + t³/3 - ... is summed
// directly, which keeps full relative precision however small t is.
// Larger arguments are evaluated as Log(1+t) with the sum formed at the
// guarded precision.
func Log1p(t *big.Float, prec uint) *big.Float {
	if t.Sign() == 0 {
		return new(big.Float).SetPrec(prec)
	}
	if t.MantExp(nil) <= log1pSeriesExp {
		return log1pSeries(t, prec)
	}
	work := prec + GuardBits
	u := new(big.Float).SetPrec(work).SetInt64(1)
	u.Add(u, t)
	return Log(u, prec)
}

func log1pSeries(t *big.Float, prec uint) *big.Float {
	work := prec + GuardBits
	x := new(big.Float).SetPrec(work).Set(t)
	sum := new(big.Float).SetPrec(work).Set(x)
	pow := new(big.Float).SetPrec(work).Set(x)
	term := new(big.Float).SetPrec(work)
	k := new(big.Float).SetPrec(work)

	// Terms shrink by at least 2^16 per step; stop once they no longer
	// touch the working precision of the sum.
	limit := x.MantExp(nil) - int(work)
	for i := int64(2); ; i++ {
		pow.Mul(pow, x)
		if pow.Sign() == 0 || pow.MantExp(nil) < limit {
			break
		}
		term.Quo(pow, k.SetInt64(i))
		if i%2 == 0 {
			sum.Sub(sum, term)
		} else {
			sum.Add(sum, term)
		}
	}
	return new(big.Float).SetPrec(prec).Set(sum)
}

// Exp returns e^x rounded to prec bits.
//
// The argument is reduced as x = k·ln2 + r with 0 <= r < ln2, so the kernel
// only ever sees a small r and the scaling by 2^k is exact. When k lies
// below the big.Float exponent range the true value is not representable:
// Exp then returns zero and underflow is true. Results above the range
// are +Inf.
func Exp(x *big.Float, prec uint) (value *big.Float, underflow bool) {
	if x.Sign() == 0 {
		return new(big.Float).SetPrec(prec).SetInt64(1), false
	}
	if x.IsInf() {
		if x.Sign() < 0 {
			return new(big.Float).SetPrec(prec), true
		}
		return new(big.Float).SetPrec(prec).SetInf(false), false
	}

	// Reducing x loses as many bits as the integer part of x/ln2 carries.
	work := prec + GuardBits
	if e := x.MantExp(nil); e > 0 {
		work += uint(e)
	}

	ln2 := Log(new(big.Float).SetPrec(work).SetInt64(2), work)
	q := new(big.Float).SetPrec(work).Quo(x, ln2)
	k, acc := q.Int(nil)
	if acc == big.Above {
		// Int truncates toward zero; move negative non-integers down.
		k.Sub(k, big.NewInt(1))
	}

	if k.Cmp(big.NewInt(big.MinExp-int64(GuardBits))) < 0 {
		return new(big.Float).SetPrec(prec), true
	}
	if k.Cmp(big.NewInt(big.MaxExp)) > 0 {
		return new(big.Float).SetPrec(prec).SetInf(false), false
	}

	r := new(big.Float).SetPrec(work).SetInt(k)
	r.Mul(r, ln2)
	r.Sub(x, r)
	e := bigfloat.Exp(r)

	res := new(big.Float).SetPrec(prec).SetMantExp(e, int(k.Int64()))
	return res, res.Sign() == 0
}

// PowInt returns base^n for a non-negative integer n, rounded to prec bits.
//
// Binary exponentiation at prec + bitlen(n) + GuardBits bits keeps the
// accumulated rounding error below one ulp of the result. For 0 < base < 1
// and large n the result may leave the exponent range; it is then exactly
// zero, which callers treat as underflow.
func PowInt(base *big.Float, n *big.Int, prec uint) *big.Float {
	work := prec + uint(n.BitLen()) + GuardBits
	result := new(big.Float).SetPrec(work).SetInt64(1)
	if n.Sign() == 0 {
		return result.SetPrec(prec)
	}
	b := new(big.Float).SetPrec(work).Set(base)
	for i := n.BitLen() - 1; i >= 0; i-- {
		result.Mul(result, result)
		if n.Bit(i) == 1 {
			result.Mul(result, b)
		}
		if result.Sign() == 0 || result.IsInf() {
			break
		}
	}
	return result.SetPrec(prec)
}

// Inverse returns 1/x rounded to prec bits.
func Inverse(x *big.Float, prec uint) *big.Float {
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	return one.Quo(one, x)
}

// Log10 converts a natural logarithm to a base-10 float64 exponent.
// It is meant for display, where float64 resolution is enough.
func Log10(ln *big.Float) float64 {
	v, _ := ln.Float64()
	return v / math.Ln10
}
