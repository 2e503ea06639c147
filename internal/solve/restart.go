package solve

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/cwbudde/bayopt/internal/domain"
	"github.com/cwbudde/bayopt/internal/objective"
	"github.com/cwbudde/bayopt/internal/sample"
)

// Restart approximates a global maximum by evaluating the objective on a
// candidate grid in a single vectorized call, then polishing the best few
// candidates with independent bound-constrained local ascents.
type Restart struct {
	restarts int
	gridSize int
	seeds    [][]float64
	sampler  sample.Sampler
	seed     int64
	parallel int
	local    lbfgsParams
}

// Option configures a Restart maximizer.
type Option func(*Restart)

// WithRestarts sets the number of local ascents (default 10).
func WithRestarts(n int) Option {
	return func(r *Restart) { r.restarts = n }
}

// WithGridSize sets the number of candidate points drawn when no explicit
// seeds are supplied (default 10000).
func WithGridSize(n int) Option {
	return func(r *Restart) { r.gridSize = n }
}

// WithSeeds supplies an explicit candidate set; the random grid is skipped.
func WithSeeds(points [][]float64) Option {
	return func(r *Restart) { r.seeds = points }
}

// WithSampler sets the candidate sampler (default uniform).
func WithSampler(s sample.Sampler) Option {
	return func(r *Restart) { r.sampler = s }
}

// WithSeed fixes the RNG seed for candidate sampling. Each Maximize call
// draws from a fresh generator with this seed, so repeated calls on an
// unchanged objective return the same point.
func WithSeed(seed int64) Option {
	return func(r *Restart) { r.seed = seed }
}

// WithParallel sets the number of workers for local ascents. Values above 1
// run restarts concurrently; the selected optimum is identical to the
// sequential result because comparison happens in seed order.
func WithParallel(workers int) Option {
	return func(r *Restart) { r.parallel = workers }
}

// NewRestart creates a restart maximizer with pybo-style defaults.
func NewRestart(opts ...Option) *Restart {
	r := &Restart{
		restarts: 10,
		gridSize: 10000,
		sampler:  sample.Uniform{},
		seed:     1,
		parallel: 1,
		local:    defaultLBFGSParams(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Maximize finds an approximate maximizer of f over dom.
func (r *Restart) Maximize(f objective.Batch, dom domain.Domain) (Result, error) {
	return r.maximize(f, dom, r.seeds)
}

// MaximizeFrom behaves like Maximize but seeds the restarts from the given
// points instead of a random grid.
func (r *Restart) MaximizeFrom(f objective.Batch, dom domain.Domain, seeds [][]float64) (Result, error) {
	if len(seeds) == 0 {
		return Result{}, &DegenerateError{What: "seed points", Value: 0}
	}
	return r.maximize(f, dom, seeds)
}

func (r *Restart) maximize(f objective.Batch, dom domain.Domain, seeds [][]float64) (Result, error) {
	if dom.Dim() == 0 {
		return Result{}, &DegenerateError{What: "domain dimensions", Value: 0}
	}
	if r.restarts < 1 {
		return Result{}, &DegenerateError{What: "restarts", Value: r.restarts}
	}

	if seeds == nil {
		var err error
		seeds, err = r.sampler.Sample(dom, r.gridSize, rand.New(rand.NewSource(r.seed)))
		if err != nil {
			return Result{}, fmt.Errorf("candidate sampling failed: %w", err)
		}
	}
	if len(seeds) == 0 {
		return Result{}, &DegenerateError{What: "candidate points", Value: 0}
	}
	for _, s := range seeds {
		if len(s) != dom.Dim() {
			return Result{}, fmt.Errorf("candidate point has %d dimensions, domain has %d", len(s), dom.Dim())
		}
	}

	// One vectorized evaluation over the whole candidate set.
	values, err := f.Evaluate(seeds)
	if err != nil {
		return Result{}, err
	}
	if len(values) != len(seeds) {
		return Result{}, fmt.Errorf("objective returned %d values for %d points", len(values), len(seeds))
	}

	// Rank candidates by descending value; stable sort keeps ties in
	// candidate order so the tie-break below is deterministic.
	order := make([]int, len(seeds))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})

	k := r.restarts
	if k > len(seeds) {
		k = len(seeds)
	}

	results := make([]Result, k)
	errs := make([]error, k)

	polish := func(i int) {
		point, value, err := ascend(f, dom, seeds[order[i]], r.local)
		if err != nil {
			errs[i] = err
			return
		}
		results[i] = Result{Point: point, Value: value}
	}

	if r.parallel > 1 {
		p := pool.New().WithMaxGoroutines(r.parallel)
		for i := 0; i < k; i++ {
			i := i
			p.Go(func() { polish(i) })
		}
		p.Wait()
	} else {
		for i := 0; i < k; i++ {
			polish(i)
		}
	}

	// Any restart failure aborts the whole maximization; restarts are never
	// silently skipped.
	for _, err := range errs {
		if err != nil {
			return Result{}, err
		}
	}

	// Strict > keeps the first-found optimum on ties.
	best := results[0]
	for _, res := range results[1:] {
		if res.Value > best.Value {
			best = res
		}
	}
	return best, nil
}
