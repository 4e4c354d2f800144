// Package solver finds the root of f(x) = ln φ by bisection and reports
// the progress of each solve through an observer-based mechanism.
// This file contains progress reporting types and utilities.
package solver

import "math/big"

// ProgressReportThreshold is the minimum progress change (0.0 to 1.0)
// required before a new progress update is sent. One bisection step is
// about 0.5% of a 60-digit solve, so this keeps updates to roughly one per
// couple of iterations.
const ProgressReportThreshold = 0.01

// ProgressUpdate carries the progress of one solve. It is sent over a
// channel from the solver to the user interface.
type ProgressUpdate struct {
	// Index identifies the solve within a run, allowing the UI to
	// distinguish concurrent solves.
	Index int
	// Value is the normalized progress, from 0.0 to 1.0.
	Value float64
}

// ProgressReporter is the callback through which the bisection loop
// reports its progress.
type ProgressReporter func(progress float64)

// ExpectedIterations returns the number of halvings needed to shrink a
// bracket of the given width below tol, that is ceil(log2(width/tol)).
// It returns 0 when the bracket is already narrow enough.
func ExpectedIterations(width, tol *big.Float) int {
	if width.Cmp(tol) <= 0 {
		return 0
	}
	ratio := new(big.Float).Quo(width, tol)
	// ratio = m·2^e with 0.5 <= m < 1, so 2^(e-1) <= ratio < 2^e.
	e := ratio.MantExp(nil)
	if ratio.Cmp(new(big.Float).SetMantExp(big.NewFloat(1), e-1)) == 0 {
		return e - 1
	}
	return e
}

// reportStepProgress sends progress for iteration iter out of expected when
// it moved by at least ProgressReportThreshold since the last report.
func reportStepProgress(reporter ProgressReporter, lastReported *float64, iter, expected int) {
	if expected <= 0 {
		return
	}
	p := float64(iter) / float64(expected)
	if p > 1 {
		p = 1
	}
	if p-*lastReported >= ProgressReportThreshold {
		reporter(p)
		*lastReported = p
	}
}
