package policy

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/bayopt/internal/acq"
	"github.com/cwbudde/bayopt/internal/domain"
	"github.com/cwbudde/bayopt/internal/gp"
	"github.com/cwbudde/bayopt/internal/objective"
	"github.com/cwbudde/bayopt/internal/solve"
)

// Policy is a sequential Bayesian optimization policy over a box-bounded
// domain. Propose suggests the next evaluation point, Observe feeds the
// result back, and Recommend reports the believed optimum. All methods are
// safe for concurrent use because the surrogate serializes access to its
// state; interleaving Propose and Observe from multiple goroutines is the
// caller's responsibility to sequence meaningfully.
type Policy struct {
	cfg       Config
	model     gp.Surrogate
	criterion acq.Criterion
	solver    solve.Maximizer
}

// New validates the configuration eagerly and assembles the surrogate,
// criterion and maximizer. Every invalid parameter is reported as a
// ConfigError before any state is created.
func New(cfg Config) (*Policy, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	base, err := gp.NewDefault(cfg.Kernel, cfg.Domain, cfg.Noise)
	if err != nil {
		return nil, &ConfigError{Param: "kernel", Value: cfg.Kernel, Reason: err.Error()}
	}

	var model gp.Surrogate = base
	if cfg.Inference == InferenceMarginal {
		model = gp.NewMarginal(base, *cfg.Prior, cfg.Samples, cfg.Seed)
	}

	criterion, err := acq.New(cfg.Criterion, acq.Params{Xi: cfg.Xi, Beta: cfg.Beta, Seed: cfg.Seed})
	if err != nil {
		return nil, &ConfigError{Param: "criterion", Value: cfg.Criterion, Reason: err.Error()}
	}

	solver, err := solve.New(cfg.Solver, solve.Config{
		Restarts: cfg.Restarts,
		GridSize: cfg.GridSize,
		Seed:     cfg.Seed,
		Parallel: cfg.Parallel,
	})
	if err != nil {
		return nil, &ConfigError{Param: "solver", Value: cfg.Solver, Reason: err.Error()}
	}

	slog.Debug("Policy created",
		"dim", cfg.Domain.Dim(),
		"kernel", cfg.Kernel,
		"criterion", cfg.Criterion,
		"solver", cfg.Solver,
		"inference", cfg.Inference.String(),
	)

	return &Policy{
		cfg:       cfg,
		model:     model,
		criterion: criterion,
		solver:    solver,
	}, nil
}

// Domain returns the policy's search space.
func (p *Policy) Domain() domain.Domain { return p.cfg.Domain }

// Model exposes the surrogate for inspection; callers must not Add through
// it directly.
func (p *Policy) Model() gp.Surrogate { return p.model }

// InitialPoint returns a deterministic warm-up point: the center of the
// domain box.
func (p *Policy) InitialPoint() []float64 {
	return p.cfg.Domain.Center()
}

// Propose maximizes the acquisition index over the domain and returns the
// suggested next evaluation point. With an unchanged observation set the
// proposal is deterministic for a given configuration.
func (p *Policy) Propose() ([]float64, error) {
	index := p.criterion.Index(p.model)
	res, err := p.solver.Maximize(index, p.cfg.Domain)
	if err != nil {
		return nil, fmt.Errorf("acquisition maximization failed: %w", err)
	}
	return res.Point, nil
}

// Observe records one evaluated point. The point must match the domain's
// dimensionality and lie inside it.
func (p *Policy) Observe(x []float64, y float64) error {
	if len(x) != p.cfg.Domain.Dim() {
		return &ConfigError{
			Param:  "observation",
			Value:  x,
			Reason: fmt.Sprintf("has %d dimensions, domain has %d", len(x), p.cfg.Domain.Dim()),
		}
	}
	if !p.cfg.Domain.Contains(x) {
		return &ConfigError{Param: "observation", Value: x, Reason: "outside the domain"}
	}
	p.model.Add(x, y)
	return nil
}

// Observations returns the number of recorded observations.
func (p *Policy) Observations() int {
	_, y := p.model.Data()
	return len(y)
}

// Recommend returns the point believed to be optimal: the maximizer of the
// posterior mean, seeded from the observed points so the recommendation
// never drifts away from explored regions. It errors until at least one
// observation has been recorded.
func (p *Policy) Recommend() ([]float64, error) {
	x, _ := p.model.Data()
	if len(x) == 0 {
		return nil, fmt.Errorf("recommend requires at least one observation")
	}

	mean := meanIndex{model: p.model}
	seeded, ok := p.solver.(solve.SeededMaximizer)
	if !ok {
		res, err := p.solver.Maximize(mean, p.cfg.Domain)
		if err != nil {
			return nil, fmt.Errorf("recommendation failed: %w", err)
		}
		return res.Point, nil
	}

	res, err := seeded.MaximizeFrom(mean, p.cfg.Domain, x)
	if err != nil {
		return nil, fmt.Errorf("recommendation failed: %w", err)
	}
	return res.Point, nil
}

// meanIndex adapts the posterior mean to the batch objective convention.
type meanIndex struct {
	model gp.Surrogate
}

func (m meanIndex) Evaluate(points [][]float64) ([]float64, error) {
	post, err := m.model.Posterior(points, false)
	if err != nil {
		return nil, err
	}
	return post.Mean, nil
}

func (m meanIndex) EvaluateWithGrad(points [][]float64) ([]float64, [][]float64, error) {
	post, err := m.model.Posterior(points, true)
	if err != nil {
		return nil, nil, err
	}
	return post.Mean, post.MeanGrad, nil
}

var _ objective.Batch = meanIndex{}
