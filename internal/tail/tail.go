// Package tail estimates the remainder of the series after truncation
// order maxN, that is Σ_{n>maxN} φ^-n · ln(1 + x^-F(n)).
//
// Three estimators are provided. Simple and Geometric are heuristics used
// for comparison; Certified is a rigorous upper bound and the only one the
// root error estimate relies on.
package tail

import (
	"math/big"

	"github.com/agbru/omegacalc/internal/bigmath"
	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/precision"
	"github.com/agbru/omegacalc/internal/sequence"
	"github.com/agbru/omegacalc/internal/series"
)

// Estimator names, as used by the Registry.
const (
	NameSimple    = "simple"
	NameGeometric = "geometric"
	NameCertified = "certified"
)

// firstOmitted validates the inputs shared by all estimators and returns
// the index of the first omitted term, maxN+1.
func firstOmitted(op string, maxN int, tab *sequence.Tables) (int, error) {
	if maxN < 1 {
		return 0, apperrors.NewArithmeticUndefinedError(op, "truncation order must be at least 1, got %d", maxN)
	}
	if tab == nil || maxN+1 > tab.MaxIndex() {
		return 0, apperrors.NewArithmeticUndefinedError(op, "index %d is beyond the precomputed tables", maxN+1)
	}
	return maxN + 1, nil
}

// term returns the n-th series term w(n)·ln(1+x^-F(n)) as a Bound.
func term(pc *precision.Context, p *series.Point, n int, tab *sequence.Tables) Bound {
	prec := pc.Prec()
	l := p.Log1pInvPow(tab.F[n])
	if l.Sign() != 0 {
		return fromValue(new(big.Float).SetPrec(prec).Mul(tab.W[n], l), prec)
	}
	// ln(1+t) ~ t once t underflows: ln term = ln w(n) - F(n)·ln x.
	return underflowedMajorant(pc, p, n, tab)
}

// majorant returns w(n)·x^-F(n), which dominates the n-th term.
func majorant(pc *precision.Context, p *series.Point, n int, tab *sequence.Tables) Bound {
	prec := pc.Prec()
	t := p.InvPow(tab.F[n])
	if t.Sign() != 0 {
		return fromValue(new(big.Float).SetPrec(prec).Mul(tab.W[n], t), prec)
	}
	return underflowedMajorant(pc, p, n, tab)
}

func underflowedMajorant(pc *precision.Context, p *series.Point, n int, tab *sequence.Tables) Bound {
	prec := pc.Prec()
	ln := new(big.Float).SetPrec(prec).SetInt(tab.F[n])
	ln.Mul(ln, p.LnX())
	ln.Sub(bigmath.Log(tab.W[n], prec), ln)
	return Bound{Value: new(big.Float).SetPrec(prec), Log: ln, Underflow: true}
}

// geometricSum returns first/(1-ratio) for a ratio in [0, 1) given by its
// logarithm.
func geometricSum(first Bound, lnRatio *big.Float, prec uint) Bound {
	r, _ := bigmath.Exp(lnRatio, prec)
	r.Neg(r)
	// ln(first/(1-r)) = ln first - log1p(-r)
	ln := new(big.Float).SetPrec(prec).Sub(first.Log, bigmath.Log1p(r, prec))
	if first.Underflow {
		return Bound{Value: new(big.Float).SetPrec(prec), Log: ln, Underflow: true}
	}
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	den := one.Add(one, r)
	return Bound{Value: new(big.Float).SetPrec(prec).Quo(first.Value, den), Log: ln}
}

// Simple returns the first omitted term w(n)·ln(1+x^-F(n)), n = maxN+1.
// It is a heuristic: the true tail is larger.
//
// Returns:
//   - Bound: The estimate.
//   - error: An ArithmeticUndefinedError if maxN+1 is beyond the tables,
//     a DomainError if x <= 0.
func Simple(pc *precision.Context, x *big.Float, maxN int, tab *sequence.Tables) (Bound, error) {
	n, err := firstOmitted("tail.Simple", maxN, tab)
	if err != nil {
		return Bound{}, err
	}
	p, err := series.NewPoint("tail.Simple", x, pc.Prec())
	if err != nil {
		return Bound{}, err
	}
	return term(pc, p, n, tab), nil
}

// Geometric treats the tail as a geometric series whose ratio is the
// quotient of the first two omitted terms. When the table has no term
// after the first omitted one, the next term is taken as first/φ.
// If the ratio is not below one, or the first term is zero, it falls back
// to the simple estimate. It is a heuristic.
func Geometric(pc *precision.Context, x *big.Float, maxN int, tab *sequence.Tables) (Bound, error) {
	n, err := firstOmitted("tail.Geometric", maxN, tab)
	if err != nil {
		return Bound{}, err
	}
	p, err := series.NewPoint("tail.Geometric", x, pc.Prec())
	if err != nil {
		return Bound{}, err
	}

	prec := pc.Prec()
	first := term(pc, p, n, tab)
	if first.IsZero() {
		return first, nil
	}

	var lnNext *big.Float
	if n+1 <= tab.MaxIndex() {
		next := term(pc, p, n+1, tab)
		if next.IsZero() {
			return first, nil
		}
		lnNext = next.Log
	} else {
		lnNext = new(big.Float).SetPrec(prec).Sub(first.Log, pc.LnPhi())
	}

	lnRatio := new(big.Float).SetPrec(prec).Sub(lnNext, first.Log)
	if lnRatio.Sign() >= 0 {
		return first, nil
	}
	return geometricSum(first, lnRatio, prec), nil
}

// Certified returns a rigorous upper bound on the tail for x > 1.
//
// Every omitted term satisfies w(k)·ln(1+x^-F(k)) <= w(k)·x^-F(k), and the
// ratio of consecutive majorants is φ^-1·x^-F(k-1), which decreases in k.
// With first = w(n)·x^-F(n) and r = φ^-1·x^-F(maxN) the tail is at most
// first/(1-r).
//
// Returns:
//   - Bound: The bound; Infinite when r >= 1.
//   - error: An ArithmeticUndefinedError when x <= 1, when r >= 1 or when
//     maxN+1 is beyond the tables; a DomainError when x <= 0.
func Certified(pc *precision.Context, x *big.Float, maxN int, tab *sequence.Tables) (Bound, error) {
	n, err := firstOmitted("tail.Certified", maxN, tab)
	if err != nil {
		return Bound{}, err
	}
	p, err := series.NewPoint("tail.Certified", x, pc.Prec())
	if err != nil {
		return Bound{}, err
	}
	if !p.AboveOne() {
		return Bound{}, apperrors.NewArithmeticUndefinedError("tail.Certified", "x must exceed 1, got %s", x.Text('g', 10))
	}

	prec := pc.Prec()
	first := majorant(pc, p, n, tab)

	// ln r = -ln φ - F(maxN)·ln x
	lnR := new(big.Float).SetPrec(prec).SetInt(tab.F[n-1])
	lnR.Mul(lnR, p.LnX())
	lnR.Add(lnR, pc.LnPhi())
	lnR.Neg(lnR)
	if lnR.Sign() >= 0 {
		return infiniteBound(prec), apperrors.NewArithmeticUndefinedError("tail.Certified", "decay ratio is not below 1")
	}
	if first.IsZero() {
		return first, nil
	}
	return geometricSum(first, lnR, prec), nil
}
