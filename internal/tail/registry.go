package tail

import (
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/agbru/omegacalc/internal/precision"
	"github.com/agbru/omegacalc/internal/sequence"
)

// Estimator computes a tail estimate for a truncation order at a point.
type Estimator interface {
	// Name returns the registry key of the estimator.
	Name() string
	// Rigorous reports whether the estimate is a proven upper bound.
	Rigorous() bool
	// Estimate computes the bound.
	Estimate(pc *precision.Context, x *big.Float, maxN int, tab *sequence.Tables) (Bound, error)
}

// EstimateFunc is the signature shared by Simple, Geometric and Certified.
type EstimateFunc func(pc *precision.Context, x *big.Float, maxN int, tab *sequence.Tables) (Bound, error)

type funcEstimator struct {
	name     string
	rigorous bool
	fn       EstimateFunc
}

func (e funcEstimator) Name() string   { return e.name }
func (e funcEstimator) Rigorous() bool { return e.rigorous }
func (e funcEstimator) Estimate(pc *precision.Context, x *big.Float, maxN int, tab *sequence.Tables) (Bound, error) {
	return e.fn(pc, x, maxN, tab)
}

// NewEstimator wraps fn as an Estimator.
func NewEstimator(name string, rigorous bool, fn EstimateFunc) Estimator {
	return funcEstimator{name: name, rigorous: rigorous, fn: fn}
}

// Registry is a name-keyed set of estimators. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	estimators map[string]Estimator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{estimators: make(map[string]Estimator)}
}

// NewDefaultRegistry creates a registry holding the simple, geometric and
// certified estimators.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewEstimator(NameSimple, false, Simple))
	r.Register(NewEstimator(NameGeometric, false, Geometric))
	r.Register(NewEstimator(NameCertified, true, Certified))
	return r
}

// Register adds or replaces an estimator under its name.
func (r *Registry) Register(e Estimator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.estimators[e.Name()] = e
}

// Get returns the estimator registered under name.
func (r *Registry) Get(name string) (Estimator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.estimators[name]
	if !ok {
		return nil, fmt.Errorf("tail estimator '%s' not found", name)
	}
	return e, nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.estimators))
	for name := range r.estimators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
