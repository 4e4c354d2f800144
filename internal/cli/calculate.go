package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/omegacalc/internal/config"
	"github.com/agbru/omegacalc/internal/precision"
	"github.com/agbru/omegacalc/internal/sequence"
)

// PrintExecutionConfig displays the run configuration: precision, bracket,
// tolerance, orders and environment.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	writeOut(out, "--- Execution Configuration ---\n")
	writeOut(out, "Solving %sf(x) = ln φ%s on [%s%s, %s%s] with %s%d%s digits (%d bits) and a timeout of %s%s%s.\n",
		ColorMagenta(), ColorReset(),
		ColorCyan(), cfg.Low, cfg.High, ColorReset(),
		ColorCyan(), cfg.Digits, ColorReset(), precision.BitsForDigits(cfg.Digits),
		ColorYellow(), cfg.Timeout, ColorReset())
	writeOut(out, "Tolerance: %s%d%s x machine epsilon. Truncation orders: %s%s%s.\n",
		ColorCyan(), cfg.ToleranceMultiplier, ColorReset(),
		ColorCyan(), cfg.Orders.String(), ColorReset())
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s, Fibonacci tables by %s%s%s.\n",
		ColorCyan(), runtime.NumCPU(), ColorReset(),
		ColorCyan(), runtime.Version(), ColorReset(),
		ColorCyan(), sequence.ActiveColumnBuilder(), ColorReset())
}

// PrintExecutionMode displays whether the orders run one after the other
// or concurrently.
func PrintExecutionMode(cfg config.AppConfig, out io.Writer) {
	modeDesc := "Sequential diagnosis of each truncation order"
	if cfg.Parallel && len(cfg.Orders) > 1 {
		modeDesc = fmt.Sprintf("Concurrent diagnosis of %s%d%s truncation orders",
			ColorGreen(), len(cfg.Orders), ColorReset())
	}
	writeOut(out, "Execution mode: %s.\n", modeDesc)
	writeOut(out, "\n--- Starting Execution ---\n")
}

func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
