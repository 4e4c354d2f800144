package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/agbru/omegacalc/internal/service"
	"github.com/agbru/omegacalc/pkg/models"
)

// OutputConfig holds configuration for diagnostic output.
type OutputConfig struct {
	// JSON collects the records and prints them as one JSON array.
	JSON bool
	// Quiet prints one line per order, suitable for scripts.
	Quiet bool
	// Verbose shows the root with all its digits.
	Verbose bool
	// RunID is stamped on every JSON record.
	RunID string
}

// FormatQuietResult formats a diagnostic for quiet mode: the order, the
// root and the error estimate, separated by tabs.
//
// Parameters:
//   - d: The diagnostic.
//   - verbose: If true, the root keeps all its digits.
//
// Returns:
//   - string: The formatted line, without a trailing newline.
func FormatQuietResult(d service.Diagnostic, verbose bool) string {
	places := d.Digits - 1
	if !verbose {
		places = min(places, RootPlaces)
	}
	return fmt.Sprintf("%d\t%s\t%s", d.Order, service.RoundedText(d.Root, places), d.DeltaX.Text(BoundDigits))
}

// DisplayQuietResult writes the quiet line of a diagnostic.
func DisplayQuietResult(out io.Writer, d service.Diagnostic, verbose bool) {
	fmt.Fprintln(out, FormatQuietResult(d, verbose))
}

// DiagnosticWriter emits diagnostics as orders complete. Human and quiet
// reports are written immediately; JSON records are buffered until Flush
// so that the output is a single valid document.
type DiagnosticWriter struct {
	out     io.Writer
	cfg     OutputConfig
	records []models.Diagnostic
}

// NewDiagnosticWriter creates a DiagnosticWriter.
func NewDiagnosticWriter(out io.Writer, cfg OutputConfig) *DiagnosticWriter {
	return &DiagnosticWriter{out: out, cfg: cfg}
}

// Emit outputs the diagnostic of a completed order.
func (w *DiagnosticWriter) Emit(d service.Diagnostic) {
	switch {
	case w.cfg.JSON:
		w.records = append(w.records, service.NewRecord(d, w.cfg.RunID))
	case w.cfg.Quiet:
		DisplayQuietResult(w.out, d, w.cfg.Verbose)
	default:
		DisplayReport(d, ReportOptions{Verbose: w.cfg.Verbose}, w.out)
	}
}

// EmitFailure records an order that did not complete. Only the JSON
// output carries failures; the console summary reports them otherwise.
func (w *DiagnosticWriter) EmitFailure(rec models.Diagnostic) {
	if w.cfg.JSON {
		rec.RunID = w.cfg.RunID
		w.records = append(w.records, rec)
	}
}

// Records returns the buffered JSON records.
func (w *DiagnosticWriter) Records() []models.Diagnostic {
	return w.records
}

// Flush writes the buffered JSON records as an indented array. It is a
// no-op outside JSON mode.
func (w *DiagnosticWriter) Flush() error {
	if !w.cfg.JSON {
		return nil
	}
	return WriteJSON(w.out, w.records)
}

// WriteJSON writes records as an indented JSON array. A nil slice is
// written as an empty array.
func WriteJSON(out io.Writer, records []models.Diagnostic) error {
	if records == nil {
		records = []models.Diagnostic{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode diagnostics: %w", err)
	}
	return nil
}
