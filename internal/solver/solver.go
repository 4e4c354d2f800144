package solver

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/precision"
	"github.com/agbru/omegacalc/internal/sequence"
	"github.com/agbru/omegacalc/internal/series"
)

const (
	// DefaultLow and DefaultHigh delimit the default search bracket.
	DefaultLow  = "1.98"
	DefaultHigh = "1.99"

	// IterationSlack is added to the expected number of halvings to form
	// the iteration cap.
	IterationSlack = 64

	tracerName = "omegacalc/solver"
)

// State is the state of a bisection.
type State int

const (
	// StateBisecting means the bracket is still wider than the tolerance.
	StateBisecting State = iota
	// StateConverged means the bracket width is within the tolerance.
	StateConverged
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateBisecting:
		return "bisecting"
	case StateConverged:
		return "converged"
	}
	return "unknown"
}

// Options configures a Solver.
type Options struct {
	// Low and High delimit the bracket. Nil selects the defaults.
	Low, High *big.Float
	// ToleranceMultiplier scales epsilon into the convergence tolerance.
	// Zero selects precision.DefaultToleranceMultiplier.
	ToleranceMultiplier int
}

// Result describes a converged solve.
type Result struct {
	// Root is the midpoint of the final bracket.
	Root *big.Float
	// Low and High are the final bracket.
	Low, High *big.Float
	// Iterations is the number of halvings performed.
	Iterations int
	// State is StateConverged for a returned result.
	State State
	// Duration is the wall time of the solve.
	Duration time.Duration
}

// Solver runs bisection on f(x) - ln φ over a fixed bracket. A Solver holds
// no per-solve state and can be shared between goroutines.
type Solver struct {
	pc        *precision.Context
	low, high *big.Float
	tol       *big.Float
	expected  int
}

// New creates a Solver for the given precision and options.
//
// Parameters:
//   - pc: The precision context.
//   - opts: The bracket and tolerance.
//
// Returns:
//   - *Solver: The solver.
//   - error: A BracketError if low <= 0 or low >= high.
func New(pc *precision.Context, opts Options) (*Solver, error) {
	low, high := opts.Low, opts.High
	var err error
	if low == nil {
		if low, err = pc.Parse(DefaultLow); err != nil {
			return nil, err
		}
	}
	if high == nil {
		if high, err = pc.Parse(DefaultHigh); err != nil {
			return nil, err
		}
	}
	low = pc.NewFloat().Set(low)
	high = pc.NewFloat().Set(high)

	if low.Sign() <= 0 {
		return nil, bracketError(low, high, "low must be positive")
	}
	if low.Cmp(high) >= 0 {
		return nil, bracketError(low, high, "low must be below high")
	}

	tol := pc.Tolerance(opts.ToleranceMultiplier)
	width := pc.NewFloat().Sub(high, low)
	return &Solver{
		pc:       pc,
		low:      low,
		high:     high,
		tol:      tol,
		expected: ExpectedIterations(width, tol),
	}, nil
}

// Tolerance returns a copy of the convergence tolerance.
func (s *Solver) Tolerance() *big.Float { return s.pc.NewFloat().Set(s.tol) }

// Bracket returns copies of the initial bracket.
func (s *Solver) Bracket() (low, high *big.Float) {
	return s.pc.NewFloat().Set(s.low), s.pc.NewFloat().Set(s.high)
}

// MaxIterations returns the iteration cap.
func (s *Solver) MaxIterations() int { return s.expected + IterationSlack }

// Solve finds the root for truncation order maxN without progress reporting.
func (s *Solver) Solve(ctx context.Context, maxN int, tab *sequence.Tables) (Result, error) {
	return s.SolveWithObservers(ctx, nil, 0, maxN, tab)
}

// SolveWithObservers finds the root of f(x) = ln φ for truncation order
// maxN, reporting progress to the subject's observers under index.
//
// The bracket must straddle the root: f(low) > ln φ > f(high). Each step
// evaluates f at the midpoint and keeps the half that still straddles it,
// until the width is within the tolerance. The context is checked before
// every step.
//
// Parameters:
//   - ctx: The context for cancellation and deadlines.
//   - subject: The progress subject; nil disables progress reporting.
//   - index: The identifier passed to observers.
//   - maxN: The truncation order.
//   - tab: Tables for maxN.
//
// Returns:
//   - Result: The converged root and final bracket.
//   - error: A BracketError, a context error, an ArithmeticUndefinedError
//     if the iteration cap is reached, or a series evaluation error.
func (s *Solver) SolveWithObservers(ctx context.Context, subject *ProgressSubject, index, maxN int, tab *sequence.Tables) (res Result, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Solve")
	span.SetAttributes(
		attribute.Int("order", maxN),
		attribute.Int("digits", s.pc.Digits()),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		status := StatusSuccess
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			status = StatusCanceled
		case err != nil:
			status = StatusError
		}
		solvesTotal.WithLabelValues(status).Inc()
		solveDuration.Observe(res.Duration.Seconds())
		span.SetAttributes(attribute.Int("iterations", res.Iterations))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			bisectionIterations.Observe(float64(res.Iterations))
		}

		log.Debug().
			Int("order", maxN).
			Int("iterations", res.Iterations).
			Float64("duration", res.Duration.Seconds()).
			Str("status", status).
			Msg("solve completed")
	}()

	reporter := ProgressReporter(func(float64) {})
	if subject != nil {
		reporter = subject.AsProgressReporter(index)
	}

	target := s.pc.LnPhi()
	low, high := s.Bracket()

	fLow, err := series.Evaluate(s.pc, low, maxN, tab)
	if err != nil {
		return res, err
	}
	if fLow.Cmp(target) <= 0 {
		return res, bracketError(low, high, "f(low) does not exceed ln φ")
	}
	fHigh, err := series.Evaluate(s.pc, high, maxN, tab)
	if err != nil {
		return res, err
	}
	if fHigh.Cmp(target) >= 0 {
		return res, bracketError(low, high, "f(high) is not below ln φ")
	}

	maxIter := s.MaxIterations()
	width := s.pc.NewFloat()
	mid := s.pc.NewFloat()
	state := StateBisecting
	var lastReported float64

	for state == StateBisecting {
		if width.Sub(high, low).Cmp(s.tol) <= 0 {
			state = StateConverged
			break
		}
		if res.Iterations >= maxIter {
			return res, apperrors.NewArithmeticUndefinedError("solver.Solve",
				"bisection did not converge within %d iterations (width %s)", maxIter, width.Text('e', 6))
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		// mid = (low + high) / 2; halving is exact.
		mid.Add(low, high)
		mid.SetMantExp(mid, -1)

		fMid, err := series.Evaluate(s.pc, mid, maxN, tab)
		if err != nil {
			return res, err
		}
		if fMid.Cmp(target) > 0 {
			low.Set(mid)
		} else {
			high.Set(mid)
		}
		res.Iterations++
		reportStepProgress(reporter, &lastReported, res.Iterations, s.expected)
	}

	root := s.pc.NewFloat().Add(low, high)
	root.SetMantExp(root, -1)

	res.Root = root
	res.Low = low
	res.High = high
	res.State = state
	reporter(1.0)
	return res, nil
}

func bracketError(low, high *big.Float, msg string) error {
	return apperrors.BracketError{Low: low.Text('g', 12), High: high.Text('g', 12), Message: msg}
}
