package ui

// Paint wraps s in color and the reset code of the active theme. With
// NoColorTheme it returns s unchanged.
func Paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + Current().Reset
}

// The Color functions return the escape code of one role of the active
// theme, named after its color in DarkTheme.

func ColorReset() string     { return Current().Reset }
func ColorRed() string       { return Current().Error }
func ColorGreen() string     { return Current().Success }
func ColorYellow() string    { return Current().Warning }
func ColorBlue() string      { return Current().Primary }
func ColorMagenta() string   { return Current().Info }
func ColorCyan() string      { return Current().Secondary }
func ColorBold() string      { return Current().Bold }
func ColorUnderline() string { return Current().Underline }
