package policy

import (
	"context"
	"log/slog"

	"github.com/cwbudde/bayopt/internal/objective"
)

// Step describes one completed iteration of the optimization loop.
type Step struct {
	Iteration int
	Point     []float64
	Value     float64
	BestPoint []float64
	BestValue float64
}

// RunResult holds the output of an optimization run
type RunResult struct {
	BestPoint    []float64
	BestValue    float64
	InitialValue float64
	Iterations   int
	Converged    bool
}

// Run drives the full propose/evaluate/observe loop against an objective.
// It starts from the policy's initial point, runs up to maxIters proposals
// and stops early on convergence or context cancellation. The onStep
// callback, when non-nil, observes every completed iteration.
func Run(ctx context.Context, p *Policy, f objective.Batch, maxIters int, conv ConvergenceConfig, onStep func(Step)) (*RunResult, error) {
	slog.Info("Starting optimization run", "dim", p.Domain().Dim(), "max_iters", maxIters)

	tracker := NewConvergenceTracker(conv)

	evaluate := func(x []float64) (float64, error) {
		values, err := f.Evaluate([][]float64{x})
		if err != nil {
			return 0, err
		}
		return values[0], nil
	}

	init := p.InitialPoint()
	initValue, err := evaluate(init)
	if err != nil {
		return nil, err
	}
	if err := p.Observe(init, initValue); err != nil {
		return nil, err
	}

	best := make([]float64, len(init))
	copy(best, init)
	bestValue := initValue
	tracker.Update(initValue)

	result := &RunResult{InitialValue: initValue}

	for iter := 1; iter <= maxIters; iter++ {
		if err := ctx.Err(); err != nil {
			result.BestPoint = best
			result.BestValue = bestValue
			return result, err
		}

		point, err := p.Propose()
		if err != nil {
			return nil, err
		}

		value, err := evaluate(point)
		if err != nil {
			return nil, err
		}

		if err := p.Observe(point, value); err != nil {
			return nil, err
		}

		if value > bestValue {
			bestValue = value
			best = make([]float64, len(point))
			copy(best, point)
		}

		result.Iterations = iter
		if onStep != nil {
			onStep(Step{
				Iteration: iter,
				Point:     point,
				Value:     value,
				BestPoint: best,
				BestValue: bestValue,
			})
		}

		if tracker.Update(value) {
			result.Converged = true
			break
		}
	}

	result.BestPoint = best
	result.BestValue = bestValue

	slog.Info("Optimization run complete",
		"iterations", result.Iterations,
		"initial_value", result.InitialValue,
		"best_value", result.BestValue,
		"converged", result.Converged,
	)
	return result, nil
}
