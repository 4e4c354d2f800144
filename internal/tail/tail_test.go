package tail

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/precision"
	"github.com/agbru/omegacalc/internal/sequence"
	"github.com/agbru/omegacalc/internal/series"
)

func setup(t *testing.T, maxN int) (*precision.Context, *sequence.Tables) {
	t.Helper()
	pc, err := precision.New(precision.DefaultDigits)
	require.NoError(t, err)
	tab, err := sequence.Precompute(pc, maxN)
	require.NoError(t, err)
	return pc, tab
}

// trueTail sums the omitted terms maxN+1..upto directly. Terms that
// underflow are dropped; they are far below anything the bound resolves.
func trueTail(t *testing.T, pc *precision.Context, x *big.Float, maxN, upto int) *big.Float {
	t.Helper()
	tab, err := sequence.Precompute(pc, upto)
	require.NoError(t, err)
	p, err := series.NewPoint("test", x, pc.Prec()+32)
	require.NoError(t, err)
	sum := new(big.Float).SetPrec(pc.Prec() + 32)
	term := new(big.Float).SetPrec(pc.Prec() + 32)
	for n := maxN + 1; n <= upto; n++ {
		sum.Add(sum, term.Mul(tab.W[n], p.Log1pInvPow(tab.F[n])))
	}
	// Allow a few ulps for the rounding of the bound itself.
	slack := new(big.Float).SetPrec(pc.Prec()+32).SetMantExp(big.NewFloat(1), -int(pc.Prec())+4)
	slack.Sub(big.NewFloat(1), slack)
	return sum.Mul(sum, slack)
}

func TestCertifiedDominatesTrueTail(t *testing.T) {
	t.Parallel()
	pc, _ := setup(t, 1)
	for _, v := range []float64{1.05, 1.5, 1.98, 1.9883, 1.99, 3} {
		for _, maxN := range []int{3, 5, 8, 12, 20} {
			x := big.NewFloat(v)
			tab, err := sequence.Precompute(pc, maxN)
			require.NoError(t, err)
			cert, err := Certified(pc, x, maxN, tab)
			require.NoError(t, err)

			tail := trueTail(t, pc, x, maxN, maxN+40)
			assert.True(t, cert.Dominates(tail), "x=%v maxN=%d: certified %s < tail %s", v, maxN, cert.Text(10), tail.Text('e', 10))
		}
	}
}

func TestCertifiedAgainstFloat64(t *testing.T) {
	t.Parallel()
	pc, tab := setup(t, 10)
	x := 1.98
	phi := (1 + math.Sqrt(5)) / 2
	// F(10)=55, F(11)=89
	first := math.Pow(phi, -11) * math.Pow(x, -89)
	r := math.Pow(x, -55) / phi
	want := first / (1 - r)

	b, err := Certified(pc, big.NewFloat(x), 10, tab)
	require.NoError(t, err)
	require.False(t, b.Underflow)
	got, _ := b.Value.Float64()
	assert.InEpsilon(t, want, got, 1e-12)
	assert.InDelta(t, math.Log10(want), b.Log10(), 1e-9)
}

// Orders beyond ~46 push the bound outside the big.Float exponent range;
// the logarithm still tracks ln w(n) - F(n)·ln x.
func TestCertifiedUnderflowKeepsLog(t *testing.T) {
	t.Parallel()
	pc, tab := setup(t, 60)
	x := big.NewFloat(1.9883)
	b, err := Certified(pc, x, 60, tab)
	require.NoError(t, err)
	assert.True(t, b.Underflow)
	assert.Zero(t, b.Value.Sign())

	phi := (1 + math.Sqrt(5)) / 2
	f61, _ := new(big.Float).SetInt(tab.F[61]).Float64()
	wantLn := -61*math.Log(phi) - f61*math.Log(1.9883)
	gotLn, _ := b.Log.Float64()
	assert.InEpsilon(t, wantLn, gotLn, 1e-12)
	assert.Contains(t, b.Text(10), "~")
}

func TestEstimatorOrdering(t *testing.T) {
	t.Parallel()
	pc, tab := setup(t, 12)
	x := big.NewFloat(1.9883)

	simple, err := Simple(pc, x, 10, tab)
	require.NoError(t, err)
	geometric, err := Geometric(pc, x, 10, tab)
	require.NoError(t, err)
	cert, err := Certified(pc, x, 10, tab)
	require.NoError(t, err)

	// simple <= geometric and simple <= certified: both add the
	// remaining terms to the first one.
	assert.True(t, geometric.Dominates(simple.Value))
	assert.True(t, cert.Dominates(simple.Value))
}

func TestGeometricFallbacks(t *testing.T) {
	t.Parallel()
	pc, tab := setup(t, 5)

	t.Run("table exhausted uses first/phi", func(t *testing.T) {
		t.Parallel()
		// maxN+1 = MaxIndex, so there is no n+1 entry.
		x := big.NewFloat(1.5)
		g, err := Geometric(pc, x, tab.MaxIndex()-1, tab)
		require.NoError(t, err)
		s, err := Simple(pc, x, tab.MaxIndex()-1, tab)
		require.NoError(t, err)

		// first/(1 - 1/φ) = first·φ²
		phi := pc.Phi()
		want := new(big.Float).SetPrec(pc.Prec()).Mul(s.Value, phi)
		want.Mul(want, phi)
		gf, _ := g.Value.Float64()
		wf, _ := want.Float64()
		assert.InEpsilon(t, wf, gf, 1e-15)
	})

	t.Run("ratio above one falls back to simple", func(t *testing.T) {
		t.Parallel()
		// Far below one, ln(1+x^-F(n)) grows like F(n), and F(3)/F(2) = 2 > φ.
		x := big.NewFloat(0.01)
		g, err := Geometric(pc, x, 1, tab)
		require.NoError(t, err)
		s, err := Simple(pc, x, 1, tab)
		require.NoError(t, err)
		assert.Zero(t, g.Value.Cmp(s.Value))
	})
}

func TestEstimatorErrors(t *testing.T) {
	t.Parallel()
	pc, tab := setup(t, 5)
	estimators := map[string]EstimateFunc{
		NameSimple:    Simple,
		NameGeometric: Geometric,
		NameCertified: Certified,
	}
	for name, fn := range estimators {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := fn(pc, big.NewFloat(1.98), tab.MaxIndex(), tab)
			var undefined apperrors.ArithmeticUndefinedError
			assert.True(t, errors.As(err, &undefined), "beyond tables: got %v", err)

			_, err = fn(pc, big.NewFloat(-2), 3, tab)
			var domain apperrors.DomainError
			assert.True(t, errors.As(err, &domain), "negative x: got %v", err)
		})
	}

	t.Run("certified requires x above one", func(t *testing.T) {
		t.Parallel()
		_, err := Certified(pc, big.NewFloat(1), 3, tab)
		var undefined apperrors.ArithmeticUndefinedError
		assert.True(t, errors.As(err, &undefined))
	})
}

func TestBoundQuo(t *testing.T) {
	t.Parallel()
	prec := uint(128)

	b := fromValue(big.NewFloat(3e-20), prec)
	q := b.Quo(big.NewFloat(0.25), prec)
	v, _ := q.Value.Float64()
	assert.InEpsilon(t, 1.2e-19, v, 1e-12)

	inf := b.Quo(new(big.Float), prec)
	assert.True(t, inf.Infinite)
	assert.Equal(t, "+Inf", inf.Text(5))
	assert.True(t, math.IsInf(inf.Log10(), 1))

	ln := new(big.Float).SetPrec(prec).SetFloat64(-1e10)
	under := fromLog(ln, prec)
	require.True(t, under.Underflow)
	uq := under.Quo(big.NewFloat(0.5), prec)
	assert.True(t, uq.Underflow)
	got, _ := uq.Log.Float64()
	assert.InDelta(t, -1e10+math.Ln2, got, 1e-3)

	zero := zeroBound(prec)
	assert.True(t, zero.IsZero())
	assert.Equal(t, "0", zero.Text(5))
	assert.True(t, zero.Dominates(new(big.Float)))
	assert.False(t, zero.Dominates(big.NewFloat(1e-300)))
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	r := NewDefaultRegistry()
	assert.Equal(t, []string{NameCertified, NameGeometric, NameSimple}, r.List())

	for _, name := range r.List() {
		e, err := r.Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, e.Name())
		assert.Equal(t, name == NameCertified, e.Rigorous())
	}

	_, err := r.Get("oracle")
	assert.Error(t, err)

	pc, tab := setup(t, 10)
	e, err := r.Get(NameCertified)
	require.NoError(t, err)
	viaRegistry, err := e.Estimate(pc, big.NewFloat(1.98), 10, tab)
	require.NoError(t, err)
	direct, err := Certified(pc, big.NewFloat(1.98), 10, tab)
	require.NoError(t, err)
	assert.Zero(t, viaRegistry.Value.Cmp(direct.Value))
}
