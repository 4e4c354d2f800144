package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envBinding ties the variable EnvPrefix+key to the flags it stands in for.
// apply leaves cfg untouched when val does not parse.
type envBinding struct {
	key   string
	flags []string
	apply func(cfg *AppConfig, val string) error
}

// envBindings lists every variable read by applyEnvOverrides. OMEGA_CONFIG
// is read earlier, before the YAML file is loaded.
var envBindings = []envBinding{
	{"DIGITS", []string{"digits"}, setInt(func(c *AppConfig) *int { return &c.Digits })},
	{"ORDERS", []string{"orders"}, func(c *AppConfig, val string) error {
		orders, err := ParseOrders(val)
		if err != nil {
			return err
		}
		c.Orders = orders
		return nil
	}},
	{"LOW", []string{"low"}, setString(func(c *AppConfig) *string { return &c.Low })},
	{"HIGH", []string{"high"}, setString(func(c *AppConfig) *string { return &c.High })},
	{"TOL_MULT", []string{"tol-mult"}, setInt(func(c *AppConfig) *int { return &c.ToleranceMultiplier })},
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		c.Timeout = d
		return nil
	}},
	{"PARALLEL", []string{"parallel"}, setBool(func(c *AppConfig) *bool { return &c.Parallel })},
	{"JSON", []string{"json"}, setBool(func(c *AppConfig) *bool { return &c.JSONOutput })},
	{"QUIET", []string{"quiet", "q"}, setBool(func(c *AppConfig) *bool { return &c.Quiet })},
	{"VERBOSE", []string{"v"}, setBool(func(c *AppConfig) *bool { return &c.Verbose })},
	{"NO_COLOR", []string{"no-color"}, setBool(func(c *AppConfig) *bool { return &c.NoColor })},
	{"LOG_LEVEL", []string{"log-level"}, setString(func(c *AppConfig) *string { return &c.LogLevel })},
	{"METRICS_FILE", []string{"metrics-file"}, setString(func(c *AppConfig) *string { return &c.MetricsFile })},
}

func setInt(field func(*AppConfig) *int) func(*AppConfig, string) error {
	return func(c *AppConfig, val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func setString(field func(*AppConfig) *string) func(*AppConfig, string) error {
	return func(c *AppConfig, val string) error {
		*field(c) = val
		return nil
	}
}

func setBool(field func(*AppConfig) *bool) func(*AppConfig, string) error {
	return func(c *AppConfig, val string) error {
		b, err := parseEnvBool(val)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

// parseEnvBool accepts true/1/yes and false/0/no in any case.
func parseEnvBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", val)
}

// envValue returns the non-empty value of EnvPrefix+key.
func envValue(key string) (string, bool) {
	val := os.Getenv(EnvPrefix + key)
	return val, val != ""
}

// isFlagSet reports whether any of names was given on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, name := range names {
		if set[name] {
			return true
		}
	}
	return false
}

// applyEnvOverrides copies the OMEGA_* variables into config for every
// flag absent from the command line. Values that do not parse are skipped
// and reported in the returned slice as variable names.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) []string {
	var invalid []string
	for _, b := range envBindings {
		val, ok := envValue(b.key)
		if !ok || isFlagSet(fs, b.flags...) {
			continue
		}
		if err := b.apply(config, val); err != nil {
			invalid = append(invalid, EnvPrefix+b.key)
		}
	}
	return invalid
}
