//go:build gmp

// This file registers a GMP-backed Fibonacci column builder, compiled only
// with the "gmp" build tag (go build -tags=gmp) and libgmp installed.
// The column is identical to the math/big one; only the additions run
// through GMP.

package sequence

import (
	"math/big"

	"github.com/ncw/gmp"
)

// GMPColumnBuilder names the GMP Fibonacci column builder.
const GMPColumnBuilder = "gmp"

func init() {
	RegisterColumnBuilder(GMPColumnBuilder, GMPColumn, true)
}

// GMPColumn builds the Fibonacci column with GMP additions and converts the
// entries to math/big.
func GMPColumn(size int) []*big.Int {
	col := make([]*big.Int, size)
	a := gmp.NewInt(0)
	b := gmp.NewInt(1)
	t := gmp.NewInt(0)
	for i := range col {
		col[i] = gmpToStdBigInt(a)
		// (a, b) -> (b, a+b)
		t.Add(a, b)
		a.Set(b)
		b.Set(t)
	}
	return col
}

func gmpToStdBigInt(g *gmp.Int) *big.Int {
	return new(big.Int).SetBytes(g.Bytes())
}
