package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/omegacalc/internal/precision"
	"github.com/agbru/omegacalc/internal/service"
	"github.com/agbru/omegacalc/internal/solver"
	"github.com/agbru/omegacalc/internal/tail"
	"github.com/agbru/omegacalc/internal/testutil"
	"github.com/agbru/omegacalc/internal/ui"
)

// MockSpinner records the calls made by DisplayProgress.
type MockSpinner struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	suffixes []string
}

func (m *MockSpinner) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
}

func (m *MockSpinner) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *MockSpinner) UpdateSuffix(suffix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suffixes = append(m.suffixes, suffix)
}

// diagnose runs a real diagnostic at a small precision.
func diagnose(t *testing.T, digits, order int) service.Diagnostic {
	t.Helper()
	pc, err := precision.New(digits)
	if err != nil {
		t.Fatal(err)
	}
	s, err := solver.New(pc, solver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	svc := service.NewDiagnosticService(pc, s, tail.NewDefaultRegistry(), 0, nil)
	d, err := svc.Diagnose(context.Background(), nil, 0, order)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func useNoColor(t *testing.T) {
	t.Helper()
	prev := ui.Current()
	ui.Use(ui.NoColorTheme)
	t.Cleanup(func() { ui.Use(prev) })
}

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Nanosecond, "0µs"},
		{10 * time.Microsecond, "10µs"},
		{10 * time.Millisecond, "10ms"},
		{2 * time.Second, "2s"},
	}

	for _, tt := range tests {
		got := FormatExecutionDuration(tt.d)
		if got != tt.expected {
			t.Errorf("FormatExecutionDuration(%v) = %s; want %s", tt.d, got, tt.expected)
		}
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		length   int
		want     string
	}{
		{0.0, 10, "░░░░░░░░░░"},
		{0.5, 10, "█████░░░░░"},
		{1.0, 10, "██████████"},
		{1.2, 10, "██████████"},
		{-0.1, 10, "░░░░░░░░░░"},
	}

	for _, tt := range tests {
		got := progressBar(tt.progress, tt.length)
		if got != tt.want {
			t.Errorf("progressBar(%f, %d) = %s; want %s", tt.progress, tt.length, got, tt.want)
		}
	}
}

func TestProgressState(t *testing.T) {
	t.Parallel()
	ps := NewProgressState(4)
	ps.Update(0, 1)
	ps.Update(1, 0.5)
	ps.Update(9, 1)
	if got := ps.CalculateAverage(); got != 0.375 {
		t.Errorf("CalculateAverage() = %f, want 0.375", got)
	}
	if got := NewProgressState(0).CalculateAverage(); got != 0 {
		t.Errorf("CalculateAverage() of empty state = %f, want 0", got)
	}
}

func TestDisplayReport(t *testing.T) {
	useNoColor(t)
	d := diagnose(t, 40, 10)

	t.Run("Default", func(t *testing.T) {
		var buf bytes.Buffer
		DisplayReport(d, ReportOptions{}, &buf)
		output := buf.String()
		for _, s := range []string{
			"--- Order 10 ---",
			"Root                 : 1.988326587652240179646691078638",
			"Residual f(x) - ln φ",
			"Tail bound (simple)",
			"Tail bound (geom.)",
			"Tail bound (cert.)",
			"Derivative |f'(x)|",
			"Error estimate Δx",
			"iterations in",
		} {
			if !strings.Contains(output, s) {
				t.Errorf("Expected output to contain %q, but got:\n%s", s, output)
			}
		}
	})

	t.Run("Verbose", func(t *testing.T) {
		var buf bytes.Buffer
		DisplayReport(d, ReportOptions{Verbose: true}, &buf)
		root := service.RoundedText(d.Root, d.Digits-1)
		if !strings.Contains(buf.String(), "Root                 : "+root+"\n") {
			t.Errorf("Expected the full root %s, got:\n%s", root, buf.String())
		}
		if !strings.Contains(buf.String(), d.Certified.Text(d.Digits)) {
			t.Errorf("Expected the bound at full precision, got:\n%s", buf.String())
		}
	})

	t.Run("Colors", func(t *testing.T) {
		ui.Use(ui.DarkTheme)
		defer ui.Use(ui.NoColorTheme)
		var colored, plain bytes.Buffer
		DisplayReport(d, ReportOptions{}, &colored)
		ui.Use(ui.NoColorTheme)
		DisplayReport(d, ReportOptions{}, &plain)
		if colored.String() == plain.String() {
			t.Fatal("Expected escape codes in the colored report")
		}
		if got := testutil.StripAnsiCodes(colored.String()); got != plain.String() {
			t.Errorf("Stripped report differs:\n%s\nvs\n%s", got, plain.String())
		}
	})
}

func TestRealSpinner(t *testing.T) {
	t.Parallel()
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(io.Discard))
	rs := &realSpinner{s}

	rs.Start()
	rs.UpdateSuffix(" test")
	rs.Stop()
	if s.Suffix != " test" {
		t.Errorf("suffix = %q, want %q", s.Suffix, " test")
	}
}

func TestColors(t *testing.T) {
	prev := ui.Current()
	defer ui.Use(prev)
	ui.Use(ui.DarkTheme)

	for name, fn := range map[string]func() string{
		"Reset": ColorReset, "Red": ColorRed, "Green": ColorGreen, "Yellow": ColorYellow,
		"Blue": ColorBlue, "Magenta": ColorMagenta, "Cyan": ColorCyan, "Bold": ColorBold,
		"Underline": ColorUnderline,
	} {
		if fn() == "" {
			t.Errorf("Color%s() is empty with the dark theme", name)
		}
	}
}

func TestDisplayProgress(t *testing.T) {
	originalNewSpinner := newSpinner
	defer func() { newSpinner = originalNewSpinner }()

	mockS := &MockSpinner{}
	newSpinner = func(options ...spinner.Option) Spinner {
		return mockS
	}

	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan solver.ProgressUpdate)
	var out bytes.Buffer

	go func() {
		for i := 1; i <= 5; i++ {
			progressChan <- solver.ProgressUpdate{Index: i % 2, Value: float64(i) / 5}
			time.Sleep(ProgressRefreshRate / 2)
		}
		progressChan <- solver.ProgressUpdate{Index: 0, Value: 1}
		close(progressChan)
	}()

	DisplayProgress(&wg, progressChan, 2, &out)
	wg.Wait()

	mockS.mu.Lock()
	defer mockS.mu.Unlock()
	if !mockS.started {
		t.Error("Spinner should have started")
	}
	if !mockS.stopped {
		t.Error("Spinner should have stopped")
	}
	if len(mockS.suffixes) == 0 {
		t.Error("Expected the ticker to refresh the suffix")
	} else if !strings.Contains(mockS.suffixes[0], "Avg progress") {
		t.Errorf("Expected an average label, got %q", mockS.suffixes[0])
	}
	if !strings.Contains(out.String(), "100.00%") {
		t.Errorf("Expected a final 100%% line, got %q", out.String())
	}
}

func TestDisplayProgressStoppedShort(t *testing.T) {
	originalNewSpinner := newSpinner
	defer func() { newSpinner = originalNewSpinner }()
	newSpinner = func(options ...spinner.Option) Spinner { return &MockSpinner{} }

	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan solver.ProgressUpdate, 2)
	progressChan <- solver.ProgressUpdate{Value: 0.3}
	close(progressChan)

	var out bytes.Buffer
	DisplayProgress(&wg, progressChan, 1, &out)
	wg.Wait()

	if strings.Contains(out.String(), "100.00%") {
		t.Errorf("A solve that stopped at 30%% drew a full bar: %q", out.String())
	}
	if !strings.Contains(out.String(), "30.00%") || !strings.Contains(out.String(), "stopped") {
		t.Errorf("Expected the reached value and a stopped marker, got %q", out.String())
	}
}

func TestDisplayProgress_ZeroSolves(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan solver.ProgressUpdate, 1)
	progressChan <- solver.ProgressUpdate{Value: 0.5}
	close(progressChan)

	DisplayProgress(&wg, progressChan, 0, io.Discard)
	wg.Wait()
}
