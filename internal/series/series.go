// Package series evaluates the truncated series
//
//	f(x) = Σ_{n=1}^{maxN} φ^-n · ln(1 + x^-F(n))
//
// and the magnitude of its derivative. Both are pure functions of the
// precision context, the point x and the precomputed tables.
package series

import (
	"fmt"
	"math/big"

	"github.com/agbru/omegacalc/internal/bigmath"
	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/precision"
	"github.com/agbru/omegacalc/internal/sequence"
)

// sumGuardBits is the extra precision of the running sums.
const sumGuardBits = 32

// Point caches the quantities that depend only on x, so that several
// terms can be evaluated at the same point without recomputing them.
type Point struct {
	x    *big.Float
	inv  *big.Float // 1/x
	lnX  *big.Float
	prec uint
}

// NewPoint prepares x for term evaluation at prec bits.
// It fails with a DomainError unless x is finite and positive.
func NewPoint(op string, x *big.Float, prec uint) (*Point, error) {
	if x == nil || x.IsInf() || x.Sign() <= 0 {
		return nil, apperrors.NewDomainError(op, "x must be a finite positive number, got %s", describe(x))
	}
	work := prec + bigmath.GuardBits
	return &Point{
		x:    new(big.Float).SetPrec(work).Set(x),
		inv:  bigmath.Inverse(x, work),
		lnX:  bigmath.Log(x, work),
		prec: prec,
	}, nil
}

// X returns the evaluation point.
func (p *Point) X() *big.Float { return p.x }

// LnX returns ln x at the guarded precision.
func (p *Point) LnX() *big.Float { return p.lnX }

// AboveOne reports whether x > 1.
func (p *Point) AboveOne() bool { return p.x.Cmp(big.NewFloat(1)) > 0 }

// InvPow returns x^-k. The result is zero when it underflows.
func (p *Point) InvPow(k *big.Int) *big.Float {
	return bigmath.PowInt(p.inv, k, p.prec)
}

// Log1pInvPow returns ln(1 + x^-k).
//
// For x >= 1 the argument x^-k lies in (0, 1] and Log1p applies directly;
// a zero result means the term underflowed. For x < 1 the identity
// ln(1 + x^-k) = -k·ln x + ln(1 + x^k) avoids forming the huge x^-k.
func (p *Point) Log1pInvPow(k *big.Int) *big.Float {
	if p.x.Cmp(big.NewFloat(1)) >= 0 {
		return bigmath.Log1p(p.InvPow(k), p.prec)
	}
	work := p.prec + bigmath.GuardBits
	kf := new(big.Float).SetPrec(work).SetInt(k)
	head := new(big.Float).SetPrec(work).Mul(kf, p.lnX)
	head.Neg(head)
	tail := bigmath.Log1p(bigmath.PowInt(p.x, k, work), work)
	head.Add(head, tail)
	return new(big.Float).SetPrec(p.prec).Set(head)
}

// decayRatio returns x^-k/(1+x^-k), the factor that turns the derivative
// of ln(1+x^-k) into k/x times a bounded quantity.
func (p *Point) decayRatio(k *big.Int) *big.Float {
	work := p.prec + bigmath.GuardBits
	one := new(big.Float).SetPrec(work).SetInt64(1)
	if p.x.Cmp(big.NewFloat(1)) >= 0 {
		t := bigmath.PowInt(p.inv, k, work)
		if t.Sign() == 0 {
			return t
		}
		den := new(big.Float).SetPrec(work).Add(one, t)
		return t.Quo(t, den)
	}
	// t/(1+t) = 1/(1+u) with u = x^k
	u := bigmath.PowInt(p.x, k, work)
	u.Add(u, one)
	return one.Quo(one, u)
}

// Evaluate computes the truncated series f(x) over n = 1..maxN.
//
// Parameters:
//   - pc: The precision context.
//   - x: The evaluation point; must be positive.
//   - maxN: The truncation order.
//   - tab: Tables covering at least index maxN.
//
// Returns:
//   - *big.Float: f(x) rounded to the context precision.
//   - error: A DomainError for x <= 0, a ValidationError for a bad order.
func Evaluate(pc *precision.Context, x *big.Float, maxN int, tab *sequence.Tables) (*big.Float, error) {
	sum, _, err := evaluate(pc, x, maxN, tab)
	return sum, err
}

// evaluate also returns the number of terms added to the sum.
func evaluate(pc *precision.Context, x *big.Float, maxN int, tab *sequence.Tables) (*big.Float, int, error) {
	if err := checkTables("series.Evaluate", maxN, tab); err != nil {
		return nil, 0, err
	}
	prec := pc.Prec() + sumGuardBits
	p, err := NewPoint("series.Evaluate", x, prec)
	if err != nil {
		return nil, 0, err
	}

	// For x >= 1 the terms decrease: both φ^-n and x^-F(n) do.
	decreasing := p.x.Cmp(big.NewFloat(1)) >= 0
	sum := new(big.Float).SetPrec(prec)
	term := new(big.Float).SetPrec(prec)
	terms := 0
	for n := 1; n <= maxN; n++ {
		l := p.Log1pInvPow(tab.F[n])
		if l.Sign() == 0 {
			// F is non-decreasing, so every later term underflows too.
			break
		}
		term.Mul(tab.W[n], l)
		if decreasing && negligible(term, sum, prec) {
			break
		}
		sum.Add(sum, term)
		terms++
	}
	return pc.NewFloat().Set(sum), terms, nil
}

// Derivative computes the magnitude of f'(x) over n = 1..maxN:
//
//	Σ w(n)·F(n)·x^-(F(n)+1) / (1 + x^-F(n))
//
// f is strictly decreasing for x > 0, so f'(x) is the negation of this
// value. It fails like Evaluate.
func Derivative(pc *precision.Context, x *big.Float, maxN int, tab *sequence.Tables) (*big.Float, error) {
	sum, _, err := derivative(pc, x, maxN, tab)
	return sum, err
}

func derivative(pc *precision.Context, x *big.Float, maxN int, tab *sequence.Tables) (*big.Float, int, error) {
	if err := checkTables("series.Derivative", maxN, tab); err != nil {
		return nil, 0, err
	}
	prec := pc.Prec() + sumGuardBits
	p, err := NewPoint("series.Derivative", x, prec)
	if err != nil {
		return nil, 0, err
	}

	// For x > 1, F·x^-F decreases once F > 1/ln x, and any term small
	// enough to be negligible lies past that point.
	decreasing := p.AboveOne()
	sum := new(big.Float).SetPrec(prec)
	term := new(big.Float).SetPrec(prec)
	terms := 0
	for n := 1; n <= maxN; n++ {
		g := p.decayRatio(tab.F[n])
		if g.Sign() == 0 {
			break
		}
		term.SetInt(tab.F[n])
		term.Mul(term, tab.W[n])
		term.Mul(term, g)
		if decreasing && negligible(term, sum, prec) {
			break
		}
		sum.Add(sum, term)
		terms++
	}
	sum.Mul(sum, p.inv)
	return pc.NewFloat().Set(sum), terms, nil
}

// negligible reports whether term lies below the last of the prec bits of
// sum. Adding it would only shift mantissas across the exponent gap, which
// costs time linear in the gap once x^-F(n) gets tiny.
func negligible(term, sum *big.Float, prec uint) bool {
	return sum.Sign() != 0 && term.MantExp(nil) < sum.MantExp(nil)-int(prec)
}

func checkTables(op string, maxN int, tab *sequence.Tables) error {
	if maxN < 1 {
		return apperrors.NewValidationError("maxN", fmt.Sprintf("%s: must be at least 1, got %d", op, maxN), maxN)
	}
	if tab == nil || tab.MaxIndex() < maxN {
		return apperrors.NewValidationError("tables", fmt.Sprintf("%s: tables do not cover index %d", op, maxN), maxN)
	}
	return nil
}

func describe(x *big.Float) string {
	if x == nil {
		return "<nil>"
	}
	return x.Text('g', 10)
}
