// Package sequence precomputes the two coefficient tables of the series:
// the exact Fibonacci exponents F(n) and the weights w(n) = φ^-n.
//
// Tables are built per truncation order and are read-only once returned.
// They are never cached across orders, so two runs with different orders
// or precisions cannot observe each other's values.
package sequence

import (
	"fmt"
	"math/big"
	"sort"
	"sync"

	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/precision"
)

// ColumnBuilder returns the Fibonacci numbers F(0..size-1) with
// F(0)=0 and F(1)=F(2)=1.
type ColumnBuilder func(size int) []*big.Int

// DefaultColumnBuilder names the math/big Fibonacci column builder.
const DefaultColumnBuilder = "math/big"

var (
	columnMu       sync.RWMutex
	columnBuilders = map[string]ColumnBuilder{DefaultColumnBuilder: BigColumn}
	activeColumn   = DefaultColumnBuilder
)

// RegisterColumnBuilder adds a Fibonacci column builder. When preferred is
// true it also becomes the builder used by Precompute.
func RegisterColumnBuilder(name string, b ColumnBuilder, preferred bool) {
	columnMu.Lock()
	defer columnMu.Unlock()
	columnBuilders[name] = b
	if preferred {
		activeColumn = name
	}
}

// ColumnBuilders returns the registered builder names in sorted order.
func ColumnBuilders() []string {
	columnMu.RLock()
	defer columnMu.RUnlock()
	names := make([]string, 0, len(columnBuilders))
	for name := range columnBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActiveColumnBuilder returns the name of the builder used by Precompute.
func ActiveColumnBuilder() string {
	columnMu.RLock()
	defer columnMu.RUnlock()
	return activeColumn
}

// BigColumn builds the Fibonacci column with math/big additions.
func BigColumn(size int) []*big.Int {
	col := make([]*big.Int, size)
	for i := range col {
		switch i {
		case 0:
			col[i] = big.NewInt(0)
		case 1, 2:
			col[i] = big.NewInt(1)
		default:
			col[i] = new(big.Int).Add(col[i-1], col[i-2])
		}
	}
	return col
}

// Tables holds F(n) and w(n) for n in [1, maxN+2]. Index 0 is unused and
// holds zero. The slices must not be modified.
type Tables struct {
	F []*big.Int
	W []*big.Float

	maxN    int
	builder string
}

// MaxN returns the truncation order the tables were built for.
func (t *Tables) MaxN() int { return t.maxN }

// MaxIndex returns the last valid table index, maxN+2.
func (t *Tables) MaxIndex() int { return len(t.F) - 1 }

// Builder returns the name of the column builder that produced F.
func (t *Tables) Builder() string { return t.builder }

// Precompute builds the tables for truncation order maxN with the active
// column builder.
//
// Parameters:
//   - pc: The precision context; the weights carry its precision.
//   - maxN: The truncation order, at least 1.
//
// Returns:
//   - *Tables: F and W of length maxN+3.
//   - error: A ValidationError if maxN < 1.
func Precompute(pc *precision.Context, maxN int) (*Tables, error) {
	return PrecomputeWith(pc, maxN, ActiveColumnBuilder())
}

// PrecomputeWith is Precompute with an explicit column builder.
func PrecomputeWith(pc *precision.Context, maxN int, builder string) (*Tables, error) {
	if maxN < 1 {
		return nil, apperrors.NewValidationError("maxN", fmt.Sprintf("must be at least 1, got %d", maxN), maxN)
	}
	columnMu.RLock()
	build, ok := columnBuilders[builder]
	columnMu.RUnlock()
	if !ok {
		return nil, apperrors.NewValidationError("builder", fmt.Sprintf("unknown Fibonacci column builder %q", builder), builder)
	}

	size := maxN + 3
	tab := &Tables{
		F:       build(size),
		W:       make([]*big.Float, size),
		maxN:    maxN,
		builder: builder,
	}

	phi := pc.Phi()
	tab.W[0] = pc.NewFloat()
	tab.W[1] = pc.InvPhi()
	for n := 2; n < size; n++ {
		tab.W[n] = pc.NewFloat().Quo(tab.W[n-1], phi)
	}
	return tab, nil
}
