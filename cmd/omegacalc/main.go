// Command omegacalc computes the root of the Fibonacci-weighted series
// equation f(x) = ln φ at several truncation orders and reports certified
// error estimates for each.
package main

import (
	"context"
	"os"

	"github.com/agbru/omegacalc/internal/app"
	apperrors "github.com/agbru/omegacalc/internal/errors"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if app.HasVersionFlag(args[1:]) {
		app.PrintVersion(os.Stdout, args[1:])
		return apperrors.ExitSuccess
	}

	application, err := app.New(args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitErrorConfig
	}
	return application.Run(context.Background(), os.Stdout)
}
