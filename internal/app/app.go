package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agbru/omegacalc/internal/cli"
	"github.com/agbru/omegacalc/internal/config"
	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/logging"
	"github.com/agbru/omegacalc/internal/orchestration"
	"github.com/agbru/omegacalc/internal/precision"
	"github.com/agbru/omegacalc/internal/service"
	"github.com/agbru/omegacalc/internal/solver"
	"github.com/agbru/omegacalc/internal/tail"
	"github.com/agbru/omegacalc/internal/ui"
)

// Application represents the omegacalc application instance.
// It encapsulates the configuration and runs either the diagnostics or the
// completion script generation.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// ErrWriter is the writer for error output and logs (typically os.Stderr).
	ErrWriter io.Writer
	// RunID identifies this execution in logs and JSON records.
	RunID string
}

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or validation fails.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	// args[0] is program name, args[1:] are the actual arguments
	programName := "omegacalc"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:    cfg,
		ErrWriter: errWriter,
		RunID:     logging.NewRunID(),
	}, nil
}

// Run executes the application based on the configured mode.
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}
	return a.runDiagnostics(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, config.FlagNames()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runDiagnostics builds the numeric pipeline, diagnoses every configured
// order and reports the results.
func (a *Application) runDiagnostics(ctx context.Context, out io.Writer) int {
	if err := logging.Setup(a.Config.LogLevel, a.ErrWriter, a.RunID); err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	ui.InitTheme(a.Config.NoColor, out)
	logger := logging.Component("app")

	svc, err := a.buildService()
	if err != nil {
		logger.Error("setup failed", err)
		fmt.Fprintf(a.ErrWriter, "Setup error: %v\n", err)
		return apperrors.ExitCode(err)
	}

	ctx, cancels := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancels.Cleanup()

	console := !a.Config.JSONOutput && !a.Config.Quiet
	if console {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(a.Config, out)
	}

	// Progress is only drawn on the console report.
	progressOut := out
	if !console {
		progressOut = io.Discard
	}

	writer := cli.NewDiagnosticWriter(out, cli.OutputConfig{
		JSON:    a.Config.JSONOutput,
		Quiet:   a.Config.Quiet,
		Verbose: a.Config.Verbose,
		RunID:   a.RunID,
	})
	emit := func(res orchestration.OrderResult) {
		if res.Err != nil {
			writer.EmitFailure(service.FailedRecord(res.Order, a.Config.Digits, res.Err, res.Duration, a.RunID))
			return
		}
		writer.Emit(res.Diagnostic)
	}

	metrics := solver.NewMetricsObserver(a.Config.Orders...)
	metrics.ResetMetrics()
	opts := orchestration.Options{
		Parallel: a.Config.Parallel,
		Observers: []solver.ProgressObserver{
			solver.NewLoggingObserver(logging.Component("progress").Zerolog(), 0.25),
			metrics,
		},
	}

	logger.Info("run started",
		logging.Int("digits", a.Config.Digits),
		logging.String("orders", a.Config.Orders.String()),
		logging.Bool("parallel", a.Config.Parallel))

	results := orchestration.ExecuteOrders(ctx, svc, a.Config.Orders, opts, progressOut, emit)

	if err := writer.Flush(); err != nil {
		logger.Error("writing JSON output failed", err)
		return apperrors.ExitErrorGeneric
	}

	var exitCode int
	if console {
		exitCode = orchestration.AnalyzeResults(results, out)
	} else {
		exitCode = orchestration.AnalyzeResults(results, io.Discard)
		if err := orchestration.FirstError(results); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		}
	}

	if a.Config.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.Config.MetricsFile, prometheus.DefaultGatherer); err != nil {
			logger.Error("writing metrics failed", err, logging.String("path", a.Config.MetricsFile))
			if exitCode == apperrors.ExitSuccess {
				exitCode = apperrors.ExitErrorGeneric
			}
		}
	}

	logger.Info("run finished", logging.Int("exit_code", exitCode))
	return exitCode
}

// buildService assembles the precision context, solver and estimators.
func (a *Application) buildService() (*service.DiagnosticService, error) {
	pc, err := precision.New(a.Config.Digits)
	if err != nil {
		return nil, err
	}
	lowDec, highDec, err := a.Config.Bracket()
	if err != nil {
		return nil, err
	}
	low, err := pc.FromDecimal(lowDec)
	if err != nil {
		return nil, err
	}
	high, err := pc.FromDecimal(highDec)
	if err != nil {
		return nil, err
	}
	s, err := solver.New(pc, solver.Options{
		Low:                 low,
		High:                high,
		ToleranceMultiplier: a.Config.ToleranceMultiplier,
	})
	if err != nil {
		return nil, err
	}
	return service.NewDiagnosticService(pc, s, tail.NewDefaultRegistry(), config.MaxOrder, logging.Component("service")), nil
}

// IsHelpError checks if the error is a help flag error (--help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// IsConfigError reports whether err stems from invalid configuration.
func IsConfigError(err error) bool {
	var configErr apperrors.ConfigError
	return errors.As(err, &configErr)
}
