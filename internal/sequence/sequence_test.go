package sequence

import (
	"errors"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/precision"
)

var bigIntComparer = cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })

func testContext(t *testing.T) *precision.Context {
	t.Helper()
	pc, err := precision.New(precision.DefaultDigits)
	if err != nil {
		t.Fatalf("precision.New: %v", err)
	}
	return pc
}

func TestPrecomputeSmallTables(t *testing.T) {
	t.Parallel()
	pc := testContext(t)

	tab, err := Precompute(pc, 3)
	if err != nil {
		t.Fatalf("Precompute: %v", err)
	}
	if tab.MaxN() != 3 || tab.MaxIndex() != 5 {
		t.Fatalf("MaxN/MaxIndex = %d/%d, want 3/5", tab.MaxN(), tab.MaxIndex())
	}
	want := []*big.Int{big.NewInt(0), big.NewInt(1), big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(5)}
	if diff := cmp.Diff(want, tab.F, bigIntComparer); diff != "" {
		t.Errorf("F mismatch (-want +got):\n%s", diff)
	}
	if tab.W[0].Sign() != 0 {
		t.Errorf("W[0] = %s, want 0", tab.W[0].Text('g', 10))
	}
	if tab.W[1].Cmp(pc.InvPhi()) != 0 {
		t.Errorf("W[1] = %s, want 1/phi", tab.W[1].Text('g', 20))
	}
}

func TestPrecomputeRejectsInvalidOrder(t *testing.T) {
	t.Parallel()
	pc := testContext(t)
	for _, maxN := range []int{0, -5} {
		_, err := Precompute(pc, maxN)
		var valErr apperrors.ValidationError
		if !errors.As(err, &valErr) {
			t.Errorf("Precompute(%d): expected ValidationError, got %v", maxN, err)
		}
	}
	if _, err := PrecomputeWith(pc, 4, "abacus"); err == nil {
		t.Error("expected an error for an unknown column builder")
	}
}

func TestPrecomputeIsDeterministic(t *testing.T) {
	t.Parallel()
	pc := testContext(t)
	a, err := Precompute(pc, 40)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Precompute(pc, 40)
	if err != nil {
		t.Fatal(err)
	}
	floatComparer := cmp.Comparer(func(x, y *big.Float) bool { return x.Cmp(y) == 0 })
	if diff := cmp.Diff(a.F, b.F, bigIntComparer); diff != "" {
		t.Errorf("F differs between runs:\n%s", diff)
	}
	if diff := cmp.Diff(a.W, b.W, floatComparer); diff != "" {
		t.Errorf("W differs between runs:\n%s", diff)
	}
}

func TestColumnBuildersAgree(t *testing.T) {
	t.Parallel()
	want := BigColumn(120)
	for _, name := range ColumnBuilders() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			columnMu.RLock()
			build := columnBuilders[name]
			columnMu.RUnlock()
			if diff := cmp.Diff(want, build(120), bigIntComparer); diff != "" {
				t.Errorf("%s column differs from math/big (-want +got):\n%s", name, diff)
			}
		})
	}
}

// TestTableProperties checks the recurrence and the weight invariant
// w(n)·φⁿ ≈ 1 for random truncation orders.
func TestTableProperties(t *testing.T) {
	pc := testContext(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("F satisfies the Fibonacci recurrence", prop.ForAll(
		func(maxN int) bool {
			tab, err := Precompute(pc, maxN)
			if err != nil || len(tab.F) != maxN+3 || len(tab.W) != maxN+3 {
				return false
			}
			sum := new(big.Int)
			for n := 3; n <= tab.MaxIndex(); n++ {
				if sum.Add(tab.F[n-1], tab.F[n-2]).Cmp(tab.F[n]) != 0 {
					return false
				}
			}
			return tab.F[1].Cmp(big.NewInt(1)) == 0 && tab.F[2].Cmp(big.NewInt(1)) == 0
		},
		gen.IntRange(1, 200),
	))

	properties.Property("w(n)·φⁿ stays within n ulps of 1", prop.ForAll(
		func(maxN int) bool {
			tab, err := Precompute(pc, maxN)
			if err != nil {
				return false
			}
			phi := pc.Phi()
			pow := new(big.Float).SetPrec(pc.Prec() + 64).SetInt64(1)
			diff := new(big.Float)
			one := big.NewFloat(1)
			for n := 1; n <= tab.MaxIndex(); n++ {
				pow.Mul(pow, phi)
				prod := new(big.Float).SetPrec(pc.Prec()+64).Mul(tab.W[n], pow)
				diff.Sub(prod, one).Abs(diff)
				if diff.Cmp(pc.Tolerance(2*n)) > 0 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 120),
	))

	properties.TestingRun(t)
}
