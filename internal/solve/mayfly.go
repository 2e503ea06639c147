package solve

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/bayopt/internal/domain"
	"github.com/cwbudde/bayopt/internal/objective"
)

// Mayfly wraps the external mayfly swarm optimizer as a gradient-free
// global maximizer. It is useful for acquisition surfaces whose gradients
// are unreliable, at the cost of many more objective evaluations.
type Mayfly struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a mayfly maximizer.
func NewMayfly(maxIters, popSize int, seed int64) *Mayfly {
	return &Mayfly{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Maximize runs the swarm on the negated objective.
func (m *Mayfly) Maximize(f objective.Batch, dom domain.Domain) (Result, error) {
	if dom.Dim() == 0 {
		return Result{}, &DegenerateError{What: "domain dimensions", Value: 0}
	}

	var evalErr error
	eval := func(x []float64) float64 {
		if evalErr != nil {
			return 0
		}
		values, err := f.Evaluate([][]float64{dom.Clamp(x)})
		if err != nil {
			evalErr = err
			return 0
		}
		return -values[0]
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = eval
	config.ProblemSize = dom.Dim()
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize

	// The external library uses scalar bounds; clamp above handles boxes
	// with per-dimension extents.
	config.LowerBound = minLower(dom)
	config.UpperBound = maxUpper(dom)
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if evalErr != nil {
		return Result{}, evalErr
	}
	if err != nil {
		return Result{}, fmt.Errorf("mayfly optimization failed: %w", err)
	}

	point := dom.Clamp(result.GlobalBest.Position)
	values, err := f.Evaluate([][]float64{point})
	if err != nil {
		return Result{}, err
	}
	return Result{Point: point, Value: values[0]}, nil
}

func minLower(dom domain.Domain) float64 {
	lo := dom[0].Lower
	for _, iv := range dom[1:] {
		if iv.Lower < lo {
			lo = iv.Lower
		}
	}
	return lo
}

func maxUpper(dom domain.Domain) float64 {
	up := dom[0].Upper
	for _, iv := range dom[1:] {
		if iv.Upper > up {
			up = iv.Upper
		}
	}
	return up
}
