package config

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/omegacalc/internal/errors"
)

// FileConfig is the YAML defaults file. Absent keys leave the built-in
// defaults in place; unknown keys are rejected.
//
//	digits: 100
//	orders: [10, 20, 40]
//	low: "1.98"
//	high: "1.99"
//	tol_mult: 10
//	timeout: 10m
//	parallel: true
//	log_level: info
type FileConfig struct {
	Digits      *int    `yaml:"digits"`
	Orders      []int   `yaml:"orders"`
	Low         *string `yaml:"low"`
	High        *string `yaml:"high"`
	TolMult     *int    `yaml:"tol_mult"`
	Timeout     *string `yaml:"timeout"`
	Parallel    *bool   `yaml:"parallel"`
	JSON        *bool   `yaml:"json"`
	Quiet       *bool   `yaml:"quiet"`
	Verbose     *bool   `yaml:"verbose"`
	NoColor     *bool   `yaml:"no_color"`
	LogLevel    *string `yaml:"log_level"`
	MetricsFile *string `yaml:"metrics_file"`
}

// LoadFile reads and decodes a YAML defaults file.
func LoadFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, apperrors.NewConfigError("cannot read config file: %v", err)
	}
	return DecodeFile(data)
}

// DecodeFile decodes a YAML defaults document. An empty document yields
// an empty FileConfig.
func DecodeFile(data []byte) (FileConfig, error) {
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, apperrors.NewConfigError("invalid config file: %v", err)
	}
	return fc, nil
}

// apply copies the values present in the file into cfg, except for the
// flags set on the command line.
func (fc FileConfig) apply(cfg *AppConfig, fs *flag.FlagSet) error {
	fileValue(&cfg.Digits, fc.Digits, fs, "digits")
	fileValue(&cfg.ToleranceMultiplier, fc.TolMult, fs, "tol-mult")
	fileValue(&cfg.Low, fc.Low, fs, "low")
	fileValue(&cfg.High, fc.High, fs, "high")
	fileValue(&cfg.LogLevel, fc.LogLevel, fs, "log-level")
	fileValue(&cfg.MetricsFile, fc.MetricsFile, fs, "metrics-file")
	fileValue(&cfg.Parallel, fc.Parallel, fs, "parallel")
	fileValue(&cfg.JSONOutput, fc.JSON, fs, "json")
	fileValue(&cfg.Quiet, fc.Quiet, fs, "quiet", "q")
	fileValue(&cfg.Verbose, fc.Verbose, fs, "v")
	fileValue(&cfg.NoColor, fc.NoColor, fs, "no-color")

	if len(fc.Orders) > 0 && !isFlagSet(fs, "orders") {
		cfg.Orders = append(OrderList(nil), fc.Orders...)
	}
	if fc.Timeout != nil && !isFlagSet(fs, "timeout") {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return apperrors.NewConfigError("invalid timeout %q in config file", *fc.Timeout)
		}
		cfg.Timeout = d
	}
	return nil
}

// fileValue copies v into dst unless v is absent from the file or one of
// names was given on the command line.
func fileValue[T any](dst *T, v *T, fs *flag.FlagSet, names ...string) {
	if v != nil && !isFlagSet(fs, names...) {
		*dst = *v
	}
}
