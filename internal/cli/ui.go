// The cli package renders omegacalc's console output: the asynchronous
// display of bisection progress and the per-order diagnostic report.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/omegacalc/internal/service"
	"github.com/agbru/omegacalc/internal/solver"
	"github.com/agbru/omegacalc/internal/tail"
	"github.com/agbru/omegacalc/internal/ui"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: A formatted string representing the duration.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

const (
	// RootPlaces is the number of decimals of the root shown without -v.
	RootPlaces = 30
	// BoundDigits is the number of significant digits of the bounds shown
	// without -v.
	BoundDigits = 6
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Color functions return ANSI escape codes from the current theme.
// They delegate to the ui package to reduce coupling.

// ColorReset returns the reset escape code from the current theme.
func ColorReset() string { return ui.ColorReset() }

// ColorRed returns the error color from the current theme.
func ColorRed() string { return ui.ColorRed() }

// ColorGreen returns the success color from the current theme.
func ColorGreen() string { return ui.ColorGreen() }

// ColorYellow returns the warning color from the current theme.
func ColorYellow() string { return ui.ColorYellow() }

// ColorBlue returns the primary color from the current theme.
func ColorBlue() string { return ui.ColorBlue() }

// ColorMagenta returns the info color from the current theme.
func ColorMagenta() string { return ui.ColorMagenta() }

// ColorCyan returns the secondary color from the current theme.
func ColorCyan() string { return ui.ColorCyan() }

// ColorBold returns the bold escape code from the current theme.
func ColorBold() string { return ui.ColorBold() }

// ColorUnderline returns the underline escape code from the current theme.
func ColorUnderline() string { return ui.ColorUnderline() }

// Spinner abstracts the terminal spinner so that DisplayProgress can be
// tested without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressState holds the progress of each concurrent solve and computes
// their average, which is what the progress bar shows.
type ProgressState struct {
	progresses []float64
	numSolves  int
}

// NewProgressState creates a ProgressState tracking numSolves solves.
func NewProgressState(numSolves int) *ProgressState {
	return &ProgressState{
		progresses: make([]float64, numSolves),
		numSolves:  numSolves,
	}
}

// Update records a new progress value for a solve. Out-of-range indices
// are ignored.
//
// Parameters:
//   - index: The index of the solve (0 to numSolves-1).
//   - value: The progress value (0.0 to 1.0).
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
}

// CalculateAverage computes the average progress across all tracked solves.
//
// Returns:
//   - float64: The average progress (0.0 to 1.0).
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numSolves == 0 {
		return 0.0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(ps.numSolves)
}

// progressBar generates a textual progress bar of the given width.
func progressBar(progress float64, length int) string {
	if progress > 1.0 {
		progress = 1.0
	}
	if progress < 0.0 {
		progress = 0.0
	}
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// DisplayProgress renders a spinner and progress bar until progressChan is
// closed. It is meant to run in its own goroutine. Senders must deliver the
// final 1.0 of each completed solve; updates that may be dropped (see
// solver.ChannelObserver) are not enough for the closing line.
//
// Parameters:
//   - wg: A WaitGroup to signal when the display routine is complete.
//   - progressChan: The channel receiving progress updates.
//   - numSolves: The number of solves contributing to the progress.
//   - out: The io.Writer to which the progress bar is rendered.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan solver.ProgressUpdate, numSolves int, out io.Writer) {
	defer wg.Done()
	if numSolves <= 0 {
		for range progressChan {
		}
		return
	}

	state := NewProgressWithETA(numSolves)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	spinnerStopped := false
	defer func() {
		if !spinnerStopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	label := "Progress"
	if numSolves > 1 {
		label = "Avg progress"
	}

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				spinnerStopped = true
				fmt.Fprintf(out, "%s: %s\n", label, finalProgressLine(state.CalculateAverage()))
				return
			}
			state.UpdateWithETA(update.Index, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(fmt.Sprintf(" %s: %s", label,
				FormatProgressBarWithETA(state.CalculateAverage(), state.GetETA(), ProgressBarWidth)))
		}
	}
}

// finalProgressLine renders the bar left after the channel closes. A run
// that stopped short of 1.0 keeps the value it reached.
func finalProgressLine(progress float64) string {
	if progress >= 1.0 {
		return FormatProgressBarWithETA(1.0, time.Nanosecond, ProgressBarWidth)
	}
	return fmt.Sprintf("%6.2f%% [%s] stopped", progress*100, progressBar(progress, ProgressBarWidth))
}

// ReportOptions controls the level of detail of DisplayReport.
type ReportOptions struct {
	// Verbose prints the root with all its digits and the bounds at the
	// working precision.
	Verbose bool
}

// DisplayReport prints the diagnostic of one truncation order: root,
// residual, the three tail bounds, the derivative and the error estimate.
//
// Parameters:
//   - d: The diagnostic to print.
//   - opts: The level of detail.
//   - out: The io.Writer for the output.
func DisplayReport(d service.Diagnostic, opts ReportOptions, out io.Writer) {
	places := d.Digits - 1
	boundDigits := d.Digits
	if !opts.Verbose {
		places = min(places, RootPlaces)
		boundDigits = BoundDigits
	}

	fmt.Fprintf(out, "\n%s--- Order %s%d%s%s ---%s\n", ColorBold(), ColorMagenta(), d.Order, ColorReset(), ColorBold(), ColorReset())
	fmt.Fprintf(out, "Root                 : %s%s%s\n", ColorGreen(), service.RoundedText(d.Root, places), ColorReset())
	fmt.Fprintf(out, "Residual f(x) - ln φ : %s\n", d.Residual.Text('e', boundDigits-1))
	fmt.Fprintf(out, "Tail bound (simple)  : %s\n", d.Simple.Text(boundDigits))
	fmt.Fprintf(out, "Tail bound (geom.)   : %s\n", d.Geometric.Text(boundDigits))
	fmt.Fprintf(out, "Tail bound (cert.)   : %s%s%s\n", ColorCyan(), d.Certified.Text(boundDigits), ColorReset())
	fmt.Fprintf(out, "Derivative |f'(x)|   : %s\n", d.Derivative.Text('g', boundDigits))
	fmt.Fprintf(out, "Error estimate Δx    : %s%s%s\n", deltaColor(d.DeltaX), d.DeltaX.Text(boundDigits), ColorReset())
	fmt.Fprintf(out, "Bisection            : %d iterations in %s\n", d.Iterations, FormatExecutionDuration(d.Duration))
}

// deltaColor flags an unbounded error estimate in red.
func deltaColor(b tail.Bound) string {
	if b.Infinite {
		return ColorRed()
	}
	return ColorYellow()
}
