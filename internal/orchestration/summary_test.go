package orchestration

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/service"
	"github.com/agbru/omegacalc/internal/tail"
	"github.com/agbru/omegacalc/internal/testutil"
	"github.com/agbru/omegacalc/internal/ui"
)

func TestCertifiedDigits(t *testing.T) {
	tests := []struct {
		name string
		res  OrderResult
		want float64
	}{
		{"finite", OrderResult{Diagnostic: fakeDiagnostic(10, 20)}, 20},
		{"capped at precision", OrderResult{Diagnostic: fakeDiagnostic(60, 1e12)}, 60},
		{"failed", OrderResult{Err: errors.New("boom")}, 0},
		{"infinite", OrderResult{Diagnostic: func() service.Diagnostic {
			d := fakeDiagnostic(3, 0)
			d.DeltaX = tail.Bound{Value: new(big.Float).SetInf(false), Infinite: true}
			return d
		}()}, 0},
		{"exact zero", OrderResult{Diagnostic: func() service.Diagnostic {
			d := fakeDiagnostic(100, 0)
			d.DeltaX = tail.Bound{Value: new(big.Float)}
			return d
		}()}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CertifiedDigits(tt.res), 1e-9)
		})
	}
}

func TestSummarize(t *testing.T) {
	results := []OrderResult{
		{Order: 10, Diagnostic: fakeDiagnostic(10, 10), Duration: 1 * time.Millisecond},
		{Order: 20, Diagnostic: fakeDiagnostic(20, 30), Duration: 3 * time.Millisecond},
		{Order: 40, Err: errors.New("boom"), Duration: 100 * time.Millisecond},
		{Order: 60, Diagnostic: fakeDiagnostic(60, 50), Duration: 2 * time.Millisecond},
	}

	s := Summarize(results)
	assert.Equal(t, 3, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 30, s.MeanDigits, 1e-9)
	assert.InDelta(t, 10, s.MinDigits, 1e-9)
	assert.InDelta(t, 50, s.MaxDigits, 1e-9)
	assert.Equal(t, 2*time.Millisecond, s.MedianDuration)
	assert.True(t, s.Converging)

	t.Run("Regression", func(t *testing.T) {
		s := Summarize([]OrderResult{
			{Order: 10, Diagnostic: fakeDiagnostic(10, 30)},
			{Order: 20, Diagnostic: fakeDiagnostic(20, 10)},
		})
		assert.False(t, s.Converging)
	})

	t.Run("AllFailed", func(t *testing.T) {
		s := Summarize([]OrderResult{{Order: 10, Err: errors.New("boom")}})
		assert.Equal(t, Summary{Failed: 1}, s)
	})
}

func TestAnalyzeResults(t *testing.T) {
	ui.SetTheme("none")
	t.Cleanup(func() { ui.SetTheme("dark") })

	tests := []struct {
		name     string
		results  []OrderResult
		wantCode int
		contains []string
	}{
		{
			name:     "Empty",
			wantCode: apperrors.ExitSuccess,
		},
		{
			name: "All success",
			results: []OrderResult{
				{Order: 10, Diagnostic: fakeDiagnostic(10, 20), Duration: time.Millisecond},
				{Order: 20, Diagnostic: fakeDiagnostic(20, 40), Duration: time.Millisecond},
			},
			wantCode: apperrors.ExitSuccess,
			contains: []string{"--- Summary ---", "Certified digits", "✅ Success", "mean 30.0", "2 order(s) diagnosed"},
		},
		{
			name: "Arithmetic failure",
			results: []OrderResult{
				{Order: 3, Err: apperrors.NewCalculationError(3, apperrors.BracketError{Low: "1.98", High: "1.99", Message: "same sign"})},
				{Order: 10, Diagnostic: fakeDiagnostic(10, 20), Duration: time.Millisecond},
			},
			wantCode: apperrors.ExitErrorArithmetic,
			contains: []string{"❌ Failure", "1 of 2 order(s) failed", "Arithmetic"},
		},
		{
			name: "Timeout",
			results: []OrderResult{
				{Order: 10, Err: apperrors.NewCalculationError(10, context.DeadlineExceeded), Duration: time.Second},
			},
			wantCode: apperrors.ExitErrorTimeout,
			contains: []string{"Timeout"},
		},
		{
			name: "Canceled",
			results: []OrderResult{
				{Order: 10, Err: apperrors.NewCalculationError(10, context.Canceled)},
			},
			wantCode: apperrors.ExitErrorCanceled,
			contains: []string{"Canceled"},
		},
		{
			name: "Generic failure",
			results: []OrderResult{
				{Order: 10, Err: errors.New("boom")},
			},
			wantCode: apperrors.ExitErrorGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := AnalyzeResults(tt.results, &buf)
			assert.Equal(t, tt.wantCode, code)
			out := testutil.StripAnsiCodes(buf.String())
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestAnalyzeResultsWarnsOnRegression(t *testing.T) {
	var buf bytes.Buffer
	AnalyzeResults([]OrderResult{
		{Order: 10, Diagnostic: fakeDiagnostic(10, 30)},
		{Order: 20, Diagnostic: fakeDiagnostic(20, 10)},
	}, &buf)
	assert.True(t, strings.Contains(buf.String(), "certified digits drop"))
	assert.False(t, math.IsNaN(Summarize(nil).MeanDigits))
}
