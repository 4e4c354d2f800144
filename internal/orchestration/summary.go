package orchestration

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/agbru/omegacalc/internal/cli"
	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/ui"
)

// CertifiedDigits returns the number of decimal digits of the root that
// the error estimate guarantees, capped at the working precision. An
// infinite estimate certifies nothing.
func CertifiedDigits(res OrderResult) float64 {
	if res.Err != nil || res.Diagnostic.DeltaX.Infinite {
		return 0
	}
	digits := float64(res.Diagnostic.Digits)
	l := res.Diagnostic.DeltaX.Log10()
	if math.IsInf(l, -1) {
		return digits
	}
	return math.Max(0, math.Min(-l, digits))
}

// Summary aggregates a run.
type Summary struct {
	Succeeded, Failed int
	// MeanDigits, MinDigits and MaxDigits describe the certified digits of
	// the successful orders.
	MeanDigits, MinDigits, MaxDigits float64
	// MedianDuration is the median wall time of the successful orders.
	MedianDuration time.Duration
	// Converging reports whether the certified digits never drop as the
	// order grows.
	Converging bool
}

// Summarize computes the run statistics. Orders are taken in input order.
func Summarize(results []OrderResult) Summary {
	var s Summary
	var digits, durations []float64
	s.Converging = true
	var prevOrder int
	var prevDigits float64
	havePrev := false

	for _, res := range results {
		if res.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		d := CertifiedDigits(res)
		digits = append(digits, d)
		durations = append(durations, float64(res.Duration))

		if havePrev && res.Order > prevOrder && d < prevDigits {
			s.Converging = false
		}
		prevOrder, prevDigits, havePrev = res.Order, d, true
	}
	if len(digits) == 0 {
		s.Converging = false
		return s
	}

	// Errors from stats only signal empty input, excluded above.
	s.MeanDigits, _ = stats.Mean(digits)
	s.MinDigits, _ = stats.Min(digits)
	s.MaxDigits, _ = stats.Max(digits)
	median, _ := stats.Median(durations)
	s.MedianDuration = time.Duration(median)
	return s
}

// AnalyzeResults prints the summary table of a run and returns the exit
// code. The first failed order decides the code.
//
// Parameters:
//   - results: The order results, in input order.
//   - out: The io.Writer for the summary.
//
// Returns:
//   - int: An exit code from the apperrors package.
func AnalyzeResults(results []OrderResult, out io.Writer) int {
	if len(results) == 0 {
		return apperrors.ExitSuccess
	}

	fmt.Fprintf(out, "\n--- Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sOrder%s\t%sDuration%s\t%sIterations%s\t%sCertified digits%s\t%sStatus%s\n",
		cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset(),
		cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset(),
		cli.ColorUnderline(), cli.ColorReset())

	for _, res := range results {
		var status, iterations, digits string
		if res.Err != nil {
			status = ui.Paint(ui.ColorRed(), "❌ Failure")
			iterations, digits = "-", "-"
		} else {
			status = ui.Paint(ui.ColorGreen(), "✅ Success")
			iterations = fmt.Sprintf("%d", res.Diagnostic.Iterations)
			digits = fmt.Sprintf("%.1f", CertifiedDigits(res))
		}
		duration := cli.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(tw, "%s%d%s\t%s%s%s\t%s\t%s\t%s\n",
			cli.ColorBlue(), res.Order, cli.ColorReset(),
			cli.ColorYellow(), duration, cli.ColorReset(),
			iterations, digits, status)
	}
	tw.Flush()

	s := Summarize(results)
	if s.Succeeded > 0 {
		fmt.Fprintf(out, "\nCertified digits: mean %s%.1f%s, min %.1f, max %.1f\n",
			cli.ColorGreen(), s.MeanDigits, cli.ColorReset(), s.MinDigits, s.MaxDigits)
		fmt.Fprintf(out, "Median order time: %s%s%s\n",
			cli.ColorYellow(), cli.FormatExecutionDuration(s.MedianDuration), cli.ColorReset())
		if s.Succeeded > 1 && !s.Converging {
			fmt.Fprintf(out, "%sWarning: the certified digits drop as the truncation order grows.%s\n", cli.ColorYellow(), cli.ColorReset())
		}
	}

	err := FirstError(results)
	if err == nil {
		fmt.Fprintf(out, "\n%sGlobal Status: Success. %d order(s) diagnosed.%s\n", cli.ColorGreen(), s.Succeeded, cli.ColorReset())
		return apperrors.ExitSuccess
	}
	fmt.Fprintf(out, "\n%sGlobal Status: %d of %d order(s) failed.%s\n", cli.ColorRed(), s.Failed, len(results), cli.ColorReset())
	var duration time.Duration
	for _, res := range results {
		if res.Err != nil {
			duration = res.Duration
			break
		}
	}
	return apperrors.HandleCalculationError(err, duration, out, cli.CLIColorProvider{})
}
