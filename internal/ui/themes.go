// Package ui holds the color themes of omegacalc's console output and
// decides whether colors are enabled for a given output.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// Theme maps the roles of the report (accent, success, warning...) to ANSI
// escape codes. The zero Theme prints no escape codes at all.
type Theme struct {
	Name string
	// Primary highlights orders and headings.
	Primary string
	// Secondary is used for parameters and bounds.
	Secondary string
	// Success marks converged roots and passed checks.
	Success string
	// Warning marks durations, hints and heuristic bounds.
	Warning string
	// Error marks failed orders and infinite estimates.
	Error string
	// Info marks the equation and derived quantities.
	Info      string
	Bold      string
	Underline string
	Reset     string
}

// xterm256 returns the foreground escape code of a 256-color palette entry.
func xterm256(code int) string {
	return fmt.Sprintf("\033[38;5;%dm", code)
}

func paletteTheme(name string, primary, secondary, success, warning, failure, info int) Theme {
	return Theme{
		Name:      name,
		Primary:   xterm256(primary),
		Secondary: xterm256(secondary),
		Success:   xterm256(success),
		Warning:   xterm256(warning),
		Error:     xterm256(failure),
		Info:      xterm256(info),
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}
}

var (
	// DarkTheme uses bright colors for dark backgrounds.
	DarkTheme = paletteTheme("dark", 39, 245, 82, 220, 196, 141)
	// LightTheme uses darker colors for light backgrounds.
	LightTheme = paletteTheme("light", 27, 240, 28, 130, 124, 54)
	// NoColorTheme disables all color output.
	NoColorTheme = Theme{Name: "none"}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	current atomic.Pointer[Theme]
)

func init() {
	Use(DarkTheme)
}

// Current returns the active theme. It is safe for concurrent use.
func Current() Theme {
	return *current.Load()
}

// Use makes t the active theme.
func Use(t Theme) {
	current.Store(&t)
}

// ThemeByName looks a theme up by name ("dark", "light" or "none").
func ThemeByName(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// SetTheme activates the named theme; unknown names select DarkTheme.
func SetTheme(name string) {
	t, ok := ThemeByName(name)
	if !ok {
		t = DarkTheme
	}
	Use(t)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ColorsEnabled reports whether output written to out should carry
// escape codes: not when noColor is set, not when NO_COLOR is present in
// the environment (https://no-color.org/), and not when out is a
// non-terminal writer. A nil out skips the terminal check.
func ColorsEnabled(noColor bool, out io.Writer) bool {
	if noColor {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return out == nil || IsTerminal(out)
}

// InitTheme selects DarkTheme or NoColorTheme for output written to out,
// following ColorsEnabled.
func InitTheme(noColor bool, out io.Writer) {
	if ColorsEnabled(noColor, out) {
		Use(DarkTheme)
		return
	}
	Use(NoColorTheme)
}
