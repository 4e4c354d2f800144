// Package service runs the full diagnostic for one truncation order:
// table precomputation, root solve, residual, tail bounds, derivative and
// the resulting error estimate on the root.
package service

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"math/big"
	"time"

	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/logging"
	"github.com/agbru/omegacalc/internal/precision"
	"github.com/agbru/omegacalc/internal/sequence"
	"github.com/agbru/omegacalc/internal/series"
	"github.com/agbru/omegacalc/internal/solver"
	"github.com/agbru/omegacalc/internal/tail"
)

var (
	// ErrMaxOrderExceeded is returned when an order exceeds the configured limit.
	ErrMaxOrderExceeded = errors.New("maximum truncation order exceeded")
)

// Diagnostic is the outcome of one truncation order.
type Diagnostic struct {
	Order  int
	Digits int
	// Root is the converged root of the truncated equation.
	Root *big.Float
	// Residual is f(Root) - ln φ.
	Residual *big.Float
	// Simple, Geometric and Certified are the tail estimates at Root.
	Simple, Geometric, Certified tail.Bound
	// Derivative is |f'(Root)|.
	Derivative *big.Float
	// DeltaX is Certified / Derivative, the error estimate on Root.
	DeltaX tail.Bound
	// Iterations is the number of bisection steps.
	Iterations int
	// Duration covers the whole diagnostic, tables included.
	Duration time.Duration
}

// Service defines the interface for per-order diagnostics.
// This abstraction enables dependency injection and easier testing/mocking.
type Service interface {
	// Diagnose runs the diagnostic for one truncation order.
	//
	// Parameters:
	//   - ctx: The context for cancellation.
	//   - subject: Progress observers for the solve; may be nil.
	//   - index: The identifier passed to observers.
	//   - order: The truncation order.
	//
	// Returns:
	//   - Diagnostic: The result.
	//   - error: A CalculationError wrapping the cause.
	Diagnose(ctx context.Context, subject *solver.ProgressSubject, index, order int) (Diagnostic, error)
}

// DiagnosticService implements Service on top of the numeric packages.
type DiagnosticService struct {
	pc         *precision.Context
	solver     *solver.Solver
	estimators *tail.Registry
	maxOrder   int
	logger     logging.Logger
}

// Ensure DiagnosticService implements Service interface.
var _ Service = (*DiagnosticService)(nil)

// NewDiagnosticService creates a DiagnosticService.
//
// Parameters:
//   - pc: The precision context.
//   - s: The root solver.
//   - estimators: A registry holding the simple, geometric and certified estimators.
//   - maxOrder: The maximum accepted truncation order (0 for no limit).
//   - logger: The logger; nil discards log output.
func NewDiagnosticService(pc *precision.Context, s *solver.Solver, estimators *tail.Registry, maxOrder int, logger logging.Logger) *DiagnosticService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DiagnosticService{
		pc:         pc,
		solver:     s,
		estimators: estimators,
		maxOrder:   maxOrder,
		logger:     logger,
	}
}

// Diagnose implements Service.
func (s *DiagnosticService) Diagnose(ctx context.Context, subject *solver.ProgressSubject, index, order int) (Diagnostic, error) {
	d, err := s.diagnose(ctx, subject, index, order)
	if err != nil {
		s.logger.Debug("diagnostic failed", logging.Int("order", order), logging.Err(err))
		return d, apperrors.NewCalculationError(order, err)
	}
	s.logger.Debug("diagnostic completed",
		logging.Int("order", order),
		logging.Int("iterations", d.Iterations),
		logging.Float64("certified_log10", d.Certified.Log10()),
		logging.Float64("duration", d.Duration.Seconds()),
	)
	return d, nil
}

func (s *DiagnosticService) diagnose(ctx context.Context, subject *solver.ProgressSubject, index, order int) (Diagnostic, error) {
	d := Diagnostic{Order: order, Digits: s.pc.Digits()}
	if order < 1 {
		return d, apperrors.NewValidationError("order", "must be at least 1", order)
	}
	if s.maxOrder > 0 && order > s.maxOrder {
		return d, ErrMaxOrderExceeded
	}

	start := time.Now()

	tab, err := sequence.Precompute(s.pc, order)
	if err != nil {
		return d, err
	}
	res, err := s.solver.SolveWithObservers(ctx, subject, index, order, tab)
	if err != nil {
		return d, err
	}
	d.Root = res.Root
	d.Iterations = res.Iterations

	fRoot, err := series.Evaluate(s.pc, res.Root, order, tab)
	if err != nil {
		return d, err
	}
	d.Residual = s.pc.NewFloat().Sub(fRoot, s.pc.LnPhi())

	targets := []struct {
		name string
		dst  *tail.Bound
	}{
		{tail.NameSimple, &d.Simple},
		{tail.NameGeometric, &d.Geometric},
		{tail.NameCertified, &d.Certified},
	}
	for _, t := range targets {
		est, err := s.estimators.Get(t.name)
		if err != nil {
			return d, err
		}
		b, err := est.Estimate(s.pc, res.Root, order, tab)
		if err != nil {
			return d, err
		}
		*t.dst = b
	}

	if d.Derivative, err = series.Derivative(s.pc, res.Root, order, tab); err != nil {
		return d, err
	}
	d.DeltaX = d.Certified.Quo(d.Derivative, s.pc.Prec())
	d.Duration = time.Since(start)
	return d, nil
}
