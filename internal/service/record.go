package service

import (
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agbru/omegacalc/internal/tail"
	"github.com/agbru/omegacalc/pkg/models"
)

// RoundedText renders x with the given number of decimal places, rounding
// half away from zero. Trailing zeros are kept so that every record of a
// run has the same width.
func RoundedText(x *big.Float, places int) string {
	// Four spare digits keep the decimal rounding independent of the
	// binary-to-decimal conversion.
	d, err := decimal.NewFromString(x.Text('f', places+4))
	if err != nil {
		return x.Text('f', places)
	}
	return d.StringFixed(int32(places))
}

// NewRecord converts a Diagnostic into its JSON record.
func NewRecord(d Diagnostic, runID string) models.Diagnostic {
	rec := models.Diagnostic{
		RunID:      runID,
		Order:      d.Order,
		Digits:     d.Digits,
		Iterations: d.Iterations,
		DurationMS: durationMS(d.Duration),
	}
	if d.Root != nil {
		rec.Root = RoundedText(d.Root, d.Digits-1)
	}
	if d.Residual != nil {
		rec.Residual = d.Residual.Text('e', 12)
	}
	if d.Derivative != nil {
		rec.Derivative = d.Derivative.Text('g', d.Digits)
	}
	if d.Certified.Value != nil {
		rec.SimpleBound = boundRecord(d.Simple, d.Digits)
		rec.GeometricBound = boundRecord(d.Geometric, d.Digits)
		rec.CertifiedBound = boundRecord(d.Certified, d.Digits)
		rec.DeltaX = boundRecord(d.DeltaX, d.Digits)
		if l := d.DeltaX.Log10(); !math.IsInf(l, 0) {
			digits := -l
			rec.CertifiedDigits = &digits
		}
	}
	return rec
}

// FailedRecord builds the record of an order that did not complete.
func FailedRecord(order, digits int, err error, duration time.Duration, runID string) models.Diagnostic {
	rec := models.Diagnostic{
		RunID:      runID,
		Order:      order,
		Digits:     digits,
		DurationMS: durationMS(duration),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

func boundRecord(b tail.Bound, digits int) *models.Bound {
	if b.Value == nil && !b.Infinite {
		return nil
	}
	rec := &models.Bound{
		Value:     b.Text(digits),
		Underflow: b.Underflow,
		Infinite:  b.Infinite,
	}
	if l := b.Log10(); !math.IsInf(l, 0) {
		rec.Log10 = &l
	}
	return rec
}

func durationMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
