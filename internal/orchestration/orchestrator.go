// Package orchestration drives the diagnostic of several truncation
// orders: it runs them one after the other or concurrently, feeds the
// progress display, emits each result and summarizes the run.
package orchestration

import (
	"context"
	"io"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/omegacalc/internal/cli"
	apperrors "github.com/agbru/omegacalc/internal/errors"
	"github.com/agbru/omegacalc/internal/service"
	"github.com/agbru/omegacalc/internal/solver"
)

const tracerName = "omegacalc/orchestration"

// OrderResult is the outcome of one truncation order.
type OrderResult struct {
	// Order is the truncation order.
	Order int
	// Diagnostic is valid only when Err is nil.
	Diagnostic service.Diagnostic
	// Duration is the wall time spent on the order.
	Duration time.Duration
	// Err is the failure of the order, if any.
	Err error
}

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. A larger buffer reduces the likelihood of dropped updates when the
// UI is slow to consume them.
const ProgressBufferMultiplier = 5

// Options controls ExecuteOrders.
type Options struct {
	// Parallel diagnoses the orders concurrently.
	Parallel bool
	// MaxConcurrency caps the concurrent orders; 0 means GOMAXPROCS.
	MaxConcurrency int
	// Observers are registered on the progress subject of every solve in
	// addition to the progress display.
	Observers []solver.ProgressObserver
}

// EmitFunc receives each finished order. Calls are serialized and follow
// the order of the input list.
type EmitFunc func(OrderResult)

// ExecuteOrders diagnoses every order and returns the results in input
// order.
//
// Sequentially, each order gets its own progress bar and is emitted as
// soon as it completes, so that earlier reports survive a later failure.
// A failed order does not stop the run; a canceled or expired context
// does, and the orders not yet started carry the context error.
// Concurrently, the orders share one progress bar and are emitted once
// all of them have finished.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - svc: The diagnostic service.
//   - orders: The truncation orders.
//   - opts: Execution options.
//   - out: The io.Writer for the progress display (io.Discard to hide it).
//   - emit: Called for each result; may be nil.
//
// Returns:
//   - []OrderResult: One result per order, in input order.
func ExecuteOrders(ctx context.Context, svc service.Service, orders []int, opts Options, out io.Writer, emit EmitFunc) []OrderResult {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ExecuteOrders")
	defer span.End()
	span.SetAttributes(
		attribute.IntSlice("orders", orders),
		attribute.Bool("parallel", opts.Parallel),
	)

	if emit == nil {
		emit = func(OrderResult) {}
	}
	if opts.Parallel && len(orders) > 1 {
		return executeParallel(ctx, svc, orders, opts, out, emit)
	}
	return executeSequential(ctx, svc, orders, opts, out, emit)
}

func executeSequential(ctx context.Context, svc service.Service, orders []int, opts Options, out io.Writer, emit EmitFunc) []OrderResult {
	results := make([]OrderResult, len(orders))
	for i, order := range orders {
		if err := ctx.Err(); err != nil {
			results[i] = OrderResult{Order: order, Err: apperrors.NewCalculationError(order, err)}
			emit(results[i])
			continue
		}

		progressChan := make(chan solver.ProgressUpdate, ProgressBufferMultiplier)
		var displayWg sync.WaitGroup
		displayWg.Add(1)
		go cli.DisplayProgress(&displayWg, progressChan, 1, out)

		display := slotObserver{solver.NewChannelObserver(progressChan)}
		results[i] = runOrder(ctx, svc, newSubject(display, opts), i, order)
		if results[i].Err == nil {
			progressChan <- solver.ProgressUpdate{Index: 0, Value: 1}
		}

		close(progressChan)
		displayWg.Wait()
		emit(results[i])
	}
	return results
}

func executeParallel(ctx context.Context, svc service.Service, orders []int, opts Options, out io.Writer, emit EmitFunc) []OrderResult {
	results := make([]OrderResult, len(orders))
	progressChan := make(chan solver.ProgressUpdate, len(orders)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(orders), out)

	limit := opts.MaxConcurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(limit)
	subject := newSubject(solver.NewChannelObserver(progressChan), opts)
	for i, order := range orders {
		g.Go(func() error {
			results[i] = runOrder(ctx, svc, subject, i, order)
			if results[i].Err == nil {
				progressChan <- solver.ProgressUpdate{Index: i, Value: 1}
			}
			return nil
		})
	}
	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	for _, res := range results {
		emit(res)
	}
	return results
}

// slotObserver maps every solve onto the single bar of a sequential run.
type slotObserver struct {
	next solver.ProgressObserver
}

func (o slotObserver) Update(_ int, progress float64) {
	o.next.Update(0, progress)
}

func newSubject(display solver.ProgressObserver, opts Options) *solver.ProgressSubject {
	subject := solver.NewProgressSubject()
	subject.Register(display)
	for _, o := range opts.Observers {
		subject.Register(o)
	}
	return subject
}

func runOrder(ctx context.Context, svc service.Service, subject *solver.ProgressSubject, index, order int) OrderResult {
	start := time.Now()
	d, err := svc.Diagnose(ctx, subject, index, order)
	return OrderResult{Order: order, Diagnostic: d, Duration: time.Since(start), Err: err}
}

// FirstError returns the error of the first failed order, or nil.
func FirstError(results []OrderResult) error {
	for _, res := range results {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}
