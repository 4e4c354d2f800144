package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keepTheme restores the active theme when the test ends.
func keepTheme(t *testing.T) {
	t.Helper()
	prev := Current()
	t.Cleanup(func() { Use(prev) })
}

func TestThemeByName(t *testing.T) {
	t.Parallel()
	for _, want := range []Theme{DarkTheme, LightTheme, NoColorTheme} {
		got, ok := ThemeByName(want.Name)
		require.True(t, ok, want.Name)
		assert.Equal(t, want, got)
	}
	_, ok := ThemeByName("neon")
	assert.False(t, ok)
}

func TestSetTheme(t *testing.T) {
	keepTheme(t)

	SetTheme("light")
	assert.Equal(t, "light", Current().Name)
	SetTheme("neon")
	assert.Equal(t, "dark", Current().Name, "unknown names fall back to dark")
}

func TestPalette(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "\033[38;5;196m", DarkTheme.Error)
	assert.Equal(t, "\033[0m", LightTheme.Reset)
	assert.Equal(t, Theme{Name: "none"}, NoColorTheme)
}

func TestColorsEnabled(t *testing.T) {
	t.Run("flag", func(t *testing.T) {
		assert.False(t, ColorsEnabled(true, nil))
	})
	t.Run("buffer", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		os.Unsetenv("NO_COLOR")
		assert.False(t, ColorsEnabled(false, &bytes.Buffer{}))
		assert.True(t, ColorsEnabled(false, nil))
	})
	t.Run("env", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		assert.False(t, ColorsEnabled(false, nil))
	})
}

func TestInitTheme(t *testing.T) {
	keepTheme(t)

	InitTheme(true, nil)
	assert.Equal(t, NoColorTheme, Current())

	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")
	InitTheme(false, nil)
	assert.Equal(t, DarkTheme, Current())
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}

func TestPaint(t *testing.T) {
	keepTheme(t)

	Use(DarkTheme)
	assert.Equal(t, DarkTheme.Success+"ok"+DarkTheme.Reset, Paint(ColorGreen(), "ok"))

	Use(NoColorTheme)
	assert.Equal(t, "ok", Paint(ColorGreen(), "ok"))
}

func TestColorFunctions(t *testing.T) {
	keepTheme(t)
	Use(LightTheme)

	pairs := []struct {
		name      string
		got, want string
	}{
		{"Reset", ColorReset(), LightTheme.Reset},
		{"Red", ColorRed(), LightTheme.Error},
		{"Green", ColorGreen(), LightTheme.Success},
		{"Yellow", ColorYellow(), LightTheme.Warning},
		{"Blue", ColorBlue(), LightTheme.Primary},
		{"Magenta", ColorMagenta(), LightTheme.Info},
		{"Cyan", ColorCyan(), LightTheme.Secondary},
		{"Bold", ColorBold(), LightTheme.Bold},
		{"Underline", ColorUnderline(), LightTheme.Underline},
	}
	for _, p := range pairs {
		assert.Equal(t, p.want, p.got, "Color%s", p.name)
	}
}
