package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cwbudde/bayopt/internal/bench"
	"github.com/cwbudde/bayopt/internal/gp"
	"github.com/cwbudde/bayopt/internal/policy"
)

// applyConfigDefaults fills unset job parameters.
func applyConfigDefaults(config *JobConfig) {
	if config.Dim <= 0 {
		config.Dim = 2
	}
	if config.Iters <= 0 {
		config.Iters = 50
	}
	if config.Kernel == "" {
		config.Kernel = "se"
	}
	if config.Criterion == "" {
		config.Criterion = "ei"
	}
	if config.Solver == "" {
		config.Solver = "lbfgs"
	}
	if config.Inference == "" {
		config.Inference = "fixed"
	}
}

// buildPolicy assembles the optimization policy and benchmark described by
// a job configuration.
func buildPolicy(config JobConfig) (*policy.Policy, bench.Benchmark, error) {
	bm, err := bench.Lookup(config.Benchmark, config.Dim)
	if err != nil {
		return nil, bench.Benchmark{}, err
	}

	inference, err := policy.ParseInference(config.Inference)
	if err != nil {
		return nil, bench.Benchmark{}, err
	}

	cfg := policy.Config{
		Domain:    bm.Domain,
		Noise:     config.Noise,
		Kernel:    config.Kernel,
		Solver:    config.Solver,
		Criterion: config.Criterion,
		Inference: inference,
		Xi:        config.Xi,
		Beta:      config.Beta,
		Seed:      config.Seed,
		Restarts:  config.Restarts,
		GridSize:  config.GridSize,
		Parallel:  config.Parallel,
	}
	if inference == policy.InferenceMarginal {
		prior := gp.DefaultPrior(bm.Domain)
		cfg.Prior = &prior
	}

	pol, err := policy.New(cfg)
	if err != nil {
		return nil, bench.Benchmark{}, fmt.Errorf("failed to build policy: %w", err)
	}
	return pol, bm, nil
}

// benchmarkNames lists the registered benchmark objectives.
func benchmarkNames() []string {
	return bench.Names()
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
