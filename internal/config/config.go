// Package config provides the configuration management for omegacalc.
// It defines the configuration structure, parses the command line, applies
// environment and file overrides and validates the result.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/logging"
	"github.com/agbru/omegacalc/internal/precision"
)

const (
	// EnvPrefix is the prefix for all environment variables used by omegacalc.
	EnvPrefix = "OMEGA_"
)

// Default configuration values.
const (
	// DefaultDigits is the default number of significant decimal digits.
	DefaultDigits = precision.DefaultDigits
	// DefaultLow and DefaultHigh delimit the default bisection bracket.
	DefaultLow  = "1.98"
	DefaultHigh = "1.99"
	// DefaultToleranceMultiplier scales machine epsilon into the bisection tolerance.
	DefaultToleranceMultiplier = precision.DefaultToleranceMultiplier
	// DefaultTimeout is the default limit for a whole run.
	DefaultTimeout = 5 * time.Minute
	// MaxOrder is the largest accepted truncation order.
	MaxOrder = 100_000
)

// DefaultOrders are the truncation orders explored when none are given.
var DefaultOrders = OrderList{10, 20, 40, 60, 80, 100}

// CompletionShells lists the shells accepted by -completion.
var CompletionShells = []string{"bash", "zsh", "fish"}

// OrderList is a comma-separated list of truncation orders. It implements
// flag.Value.
type OrderList []int

// String implements flag.Value.
func (o *OrderList) String() string {
	if o == nil {
		return ""
	}
	parts := make([]string, len(*o))
	for i, n := range *o {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// Set implements flag.Value.
func (o *OrderList) Set(s string) error {
	orders, err := ParseOrders(s)
	if err != nil {
		return err
	}
	*o = orders
	return nil
}

// ParseOrders parses a comma-separated list of orders such as "10,20,40".
// Blank entries are ignored; at least one order is required.
func ParseOrders(s string) (OrderList, error) {
	var orders OrderList
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, apperrors.NewConfigError("invalid truncation order %q", field)
		}
		orders = append(orders, n)
	}
	if len(orders) == 0 {
		return nil, apperrors.NewConfigError("no truncation order given")
	}
	return orders, nil
}

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Digits is the number of significant decimal digits of the arithmetic.
	Digits int
	// Orders are the truncation orders to diagnose, in output order.
	Orders OrderList
	// Low and High delimit the bisection bracket, as decimal strings.
	Low, High string
	// ToleranceMultiplier scales machine epsilon into the bisection tolerance.
	ToleranceMultiplier int
	// Timeout limits the whole run.
	Timeout time.Duration
	// Parallel runs the orders concurrently.
	Parallel bool
	// JSONOutput prints a JSON array of diagnostic records.
	JSONOutput bool
	// Quiet prints one line per order and no progress.
	Quiet bool
	// Verbose prints the root with all its digits.
	Verbose bool
	// NoColor disables all color output. NO_COLOR is also respected.
	NoColor bool
	// LogLevel is the zerolog level of the diagnostic log on stderr.
	LogLevel string
	// MetricsFile, if set, receives the Prometheus metrics of the run in
	// the text exposition format.
	MetricsFile string
	// ConfigFile is the YAML file providing defaults.
	ConfigFile string
	// Completion, if set, prints a completion script for that shell.
	Completion string
}

// Bracket returns the validated bisection bracket.
func (c AppConfig) Bracket() (low, high decimal.Decimal, err error) {
	if low, err = decimal.NewFromString(strings.TrimSpace(c.Low)); err != nil {
		return low, high, apperrors.NewConfigError("invalid bracket low %q", c.Low)
	}
	if high, err = decimal.NewFromString(strings.TrimSpace(c.High)); err != nil {
		return low, high, apperrors.NewConfigError("invalid bracket high %q", c.High)
	}
	if !low.IsPositive() {
		return low, high, apperrors.NewConfigError("bracket low must be positive: %s", low)
	}
	if !low.LessThan(high) {
		return low, high, apperrors.NewConfigError("bracket low %s must be below high %s", low, high)
	}
	return low, high, nil
}

// Validate checks the semantic consistency of the configuration.
//
// Returns:
//   - error: A ConfigError if the configuration is invalid, nil otherwise.
func (c AppConfig) Validate() error {
	if c.Digits < precision.MinDigits || c.Digits > precision.MaxDigits {
		return apperrors.NewConfigError("digits must be in [%d, %d]: %d", precision.MinDigits, precision.MaxDigits, c.Digits)
	}
	if len(c.Orders) == 0 {
		return apperrors.NewConfigError("no truncation order given")
	}
	for _, n := range c.Orders {
		if n < 1 || n > MaxOrder {
			return apperrors.NewConfigError("truncation order must be in [1, %d]: %d", MaxOrder, n)
		}
	}
	if _, _, err := c.Bracket(); err != nil {
		return err
	}
	if c.ToleranceMultiplier < 1 {
		return apperrors.NewConfigError("tolerance multiplier must be at least 1: %d", c.ToleranceMultiplier)
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Completion != "" && !slices.Contains(CompletionShells, c.Completion) {
		return apperrors.NewConfigError("unsupported shell %q (accepted values: %s)", c.Completion, strings.Join(CompletionShells, ", "))
	}
	return nil
}

// NewFlagSet declares every omegacalc flag on a new FlagSet bound to cfg,
// with the built-in defaults.
func NewFlagSet(programName string, cfg *AppConfig) *flag.FlagSet {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)

	cfg.Orders = slices.Clone(DefaultOrders)
	fs.IntVar(&cfg.Digits, "digits", DefaultDigits, "Number of significant decimal digits of the arithmetic.")
	fs.Var(&cfg.Orders, "orders", "Comma-separated truncation orders to diagnose.")
	fs.StringVar(&cfg.Low, "low", DefaultLow, "Lower end of the bisection bracket.")
	fs.StringVar(&cfg.High, "high", DefaultHigh, "Upper end of the bisection bracket.")
	fs.IntVar(&cfg.ToleranceMultiplier, "tol-mult", DefaultToleranceMultiplier, "Bisection tolerance as a multiple of machine epsilon.")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the whole run.")
	fs.BoolVar(&cfg.Parallel, "parallel", false, "Diagnose the orders concurrently.")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "Output the diagnostics as a JSON array.")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Quiet mode - one line per order for scripts.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&cfg.Verbose, "v", false, "Display the root with all its digits.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&cfg.LogLevel, "log-level", logging.DefaultLevel, "Log level on stderr (debug, info, warn, error, disabled).")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", "", "Write the Prometheus metrics of the run to this file.")
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML file with default settings.")
	fs.StringVar(&cfg.Completion, "completion", "", "Generate a shell completion script (bash, zsh, fish).")
	return fs
}

// FlagNames returns the names of all flags, in lexical order.
func FlagNames() []string {
	var cfg AppConfig
	var names []string
	NewFlagSet("omegacalc", &cfg).VisitAll(func(f *flag.Flag) {
		names = append(names, f.Name)
	})
	return names
}

// ParseConfig parses the command-line arguments into an AppConfig. Values
// come, by decreasing priority, from the flags, the OMEGA_* environment
// variables, the YAML file named by -config or OMEGA_CONFIG, and the
// built-in defaults.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Where parsing errors and usage information are printed.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: flag.ErrHelp, a parse error or a ConfigError.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	config := AppConfig{}
	fs := NewFlagSet(programName, &config)
	fs.SetOutput(errorWriter)
	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(errorWriter, "Configuration error: unexpected argument %q\n", fs.Arg(0))
		fs.Usage()
		return AppConfig{}, apperrors.NewConfigError("unexpected argument %q", fs.Arg(0))
	}

	if !isFlagSet(fs, "config") {
		if path, ok := envValue("CONFIG"); ok {
			config.ConfigFile = path
		}
	}
	if config.ConfigFile != "" {
		file, err := LoadFile(config.ConfigFile)
		if err != nil {
			fmt.Fprintln(errorWriter, "Configuration error:", err)
			return AppConfig{}, err
		}
		if err := file.apply(&config, fs); err != nil {
			fmt.Fprintln(errorWriter, "Configuration error:", err)
			return AppConfig{}, err
		}
	}

	for _, name := range applyEnvOverrides(&config, fs) {
		fmt.Fprintf(errorWriter, "Warning: ignoring invalid value of %s\n", name)
	}

	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))
	config.Completion = strings.ToLower(config.Completion)
	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		var cfgErr apperrors.ConfigError
		if !errors.As(err, &cfgErr) {
			err = apperrors.NewConfigError("%v", err)
		}
		return AppConfig{}, err
	}
	return config, nil
}
