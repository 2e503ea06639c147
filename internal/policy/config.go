// Package policy implements the sequential Bayesian optimization policy:
// a GP surrogate combined with an acquisition criterion and a global
// maximizer, driving the propose/observe/recommend loop.
package policy

import (
	"fmt"
	"strings"

	"github.com/cwbudde/bayopt/internal/domain"
	"github.com/cwbudde/bayopt/internal/gp"
)

// InferenceMode selects how the GP hyperparameters are handled.
type InferenceMode int

const (
	// InferenceFixed keeps the default hyperparameters fixed.
	InferenceFixed InferenceMode = iota

	// InferenceMarginal averages the posterior over hyperparameter samples
	// drawn with MCMC. Requires a hyperparameter prior.
	InferenceMarginal
)

// String returns the mode's configuration name.
func (m InferenceMode) String() string {
	switch m {
	case InferenceFixed:
		return "fixed"
	case InferenceMarginal:
		return "marginal"
	default:
		return fmt.Sprintf("InferenceMode(%d)", int(m))
	}
}

// ParseInference maps a configuration string onto an inference mode.
func ParseInference(s string) (InferenceMode, error) {
	switch strings.ToLower(s) {
	case "", "fixed":
		return InferenceFixed, nil
	case "marginal", "mcmc":
		return InferenceMarginal, nil
	default:
		return 0, &ConfigError{Param: "inference", Value: s, Reason: "must be fixed or marginal"}
	}
}

// ConfigError reports an invalid policy parameter. It is returned at
// construction time so that a bad configuration never produces a policy.
type ConfigError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid policy config: %s=%v (%s)", e.Param, e.Value, e.Reason)
}

// Config collects everything needed to build a policy. The zero value is
// not usable; Domain is required and the remaining fields have defaults
// applied by New.
type Config struct {
	// Domain is the box-bounded search space. Required.
	Domain domain.Domain

	// Noise is the observation noise standard deviation. Default 1e-3.
	Noise float64

	// Kernel selects the GP covariance: se, matern3 or matern5.
	// Default se.
	Kernel string

	// Solver selects the acquisition maximizer from the solver registry.
	// Default lbfgs.
	Solver string

	// Criterion selects the acquisition index: ei, pi, ucb or thompson.
	// Default ei.
	Criterion string

	// Inference selects fixed or marginalized hyperparameters.
	Inference InferenceMode

	// Samples is the number of hyperparameter draws for marginal
	// inference. Default 10.
	Samples int

	// Prior is the hyperparameter prior. Required for marginal inference,
	// ignored for fixed inference.
	Prior *gp.Prior

	// Xi is the improvement margin for EI and PI.
	Xi float64

	// Beta is the exploration weight for UCB. Default 2.
	Beta float64

	// Seed drives every random choice the policy makes.
	Seed int64

	// Restarts and GridSize tune the acquisition maximizer. Zero means
	// the solver defaults (10 restarts over a 10000-point grid).
	Restarts int
	GridSize int

	// Parallel bounds the goroutines polishing restart seeds. Zero means
	// sequential.
	Parallel int
}

// withDefaults fills unset fields and reports the first invalid one.
func (c Config) withDefaults() (Config, error) {
	if c.Domain.Dim() == 0 {
		return c, &ConfigError{Param: "domain", Value: c.Domain, Reason: "must have at least one dimension"}
	}
	for i := 0; i < c.Domain.Dim(); i++ {
		if c.Domain.Width(i) <= 0 {
			return c, &ConfigError{
				Param:  "domain",
				Value:  fmt.Sprintf("[%g, %g]", c.Domain[i].Lower, c.Domain[i].Upper),
				Reason: fmt.Sprintf("dimension %d is empty", i),
			}
		}
	}

	if c.Noise < 0 {
		return c, &ConfigError{Param: "noise", Value: c.Noise, Reason: "must be non-negative"}
	}
	if c.Noise == 0 {
		c.Noise = 1e-3
	}
	if c.Kernel == "" {
		c.Kernel = "se"
	}
	if c.Solver == "" {
		c.Solver = "lbfgs"
	}
	if c.Criterion == "" {
		c.Criterion = "ei"
	}
	if c.Xi < 0 {
		return c, &ConfigError{Param: "xi", Value: c.Xi, Reason: "must be non-negative"}
	}
	if c.Beta == 0 {
		c.Beta = 2
	}
	if c.Beta < 0 {
		return c, &ConfigError{Param: "beta", Value: c.Beta, Reason: "must be non-negative"}
	}
	if c.Restarts < 0 {
		return c, &ConfigError{Param: "restarts", Value: c.Restarts, Reason: "must be non-negative"}
	}
	if c.GridSize < 0 {
		return c, &ConfigError{Param: "grid_size", Value: c.GridSize, Reason: "must be non-negative"}
	}
	if c.Samples == 0 {
		c.Samples = 10
	}
	if c.Samples < 1 {
		return c, &ConfigError{Param: "samples", Value: c.Samples, Reason: "must be positive"}
	}

	if c.Inference == InferenceMarginal {
		if c.Prior == nil {
			return c, &ConfigError{Param: "prior", Value: nil, Reason: "marginal inference requires a hyperparameter prior"}
		}
		if err := c.Prior.Validate(c.Domain.Dim()); err != nil {
			return c, &ConfigError{Param: "prior", Value: *c.Prior, Reason: err.Error()}
		}
	}

	return c, nil
}
