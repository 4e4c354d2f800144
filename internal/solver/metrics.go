package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric status labels.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

var (
	solvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omega_solves_total",
			Help: "The total number of root solves, by outcome",
		},
		[]string{"status"},
	)
	solveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "omega_solve_duration_seconds",
			Help:    "The duration of root solves in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)
	bisectionIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "omega_bisection_iterations",
			Help:    "The number of bisection steps of successful solves",
			Buckets: prometheus.LinearBuckets(32, 32, 12),
		},
	)
	// solveProgress is registered once globally and shared by every
	// MetricsObserver.
	solveProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "omega_solve_progress",
			Help: "Current progress of root solves (0.0 to 1.0)",
		},
		[]string{"order"},
	)
)
