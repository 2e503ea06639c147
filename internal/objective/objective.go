// Package objective defines the vectorized objective convention shared by
// the global maximizers and the acquisition criteria: a batch of points in,
// a batch of scalar values out, with an explicit second method for callers
// that also need gradients.
package objective

import (
	"fmt"
	"math"
)

// Batch is a scalar function over batches of points. Implementations must
// support evaluating many points in one call; the restart maximizer relies
// on this to amortize its initial grid scan.
type Batch interface {
	// Evaluate returns one scalar value per input point.
	Evaluate(points [][]float64) ([]float64, error)

	// EvaluateWithGrad returns values and, for each point, the gradient of
	// the function at that point.
	EvaluateWithGrad(points [][]float64) ([]float64, [][]float64, error)
}

// EvalError reports a failed evaluation together with the offending point.
type EvalError struct {
	Point []float64
	Err   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("objective evaluation failed at %v: %v", e.Point, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// Func adapts a plain scalar function to the Batch interface. Gradients are
// approximated by central differences, which keeps gradient-free objectives
// (benchmarks, external simulators) usable with the gradient-based solver.
type Func func(x []float64) float64

// Evaluate calls the function once per point.
func (f Func) Evaluate(points [][]float64) ([]float64, error) {
	values := make([]float64, len(points))
	for i, p := range points {
		v := f(p)
		if math.IsNaN(v) {
			return nil, &EvalError{Point: p, Err: fmt.Errorf("function returned NaN")}
		}
		values[i] = v
	}
	return values, nil
}

// EvaluateWithGrad evaluates the function and a central-difference gradient
// at each point.
func (f Func) EvaluateWithGrad(points [][]float64) ([]float64, [][]float64, error) {
	values, err := f.Evaluate(points)
	if err != nil {
		return nil, nil, err
	}

	grads := make([][]float64, len(points))
	for i, p := range points {
		g := make([]float64, len(p))
		xt := make([]float64, len(p))
		copy(xt, p)

		for j := range p {
			h := 1e-6 * math.Max(1, math.Abs(p[j]))
			xt[j] = p[j] + h
			fp := f(xt)
			xt[j] = p[j] - h
			fm := f(xt)
			xt[j] = p[j]

			if math.IsNaN(fp) || math.IsNaN(fm) {
				return nil, nil, &EvalError{Point: p, Err: fmt.Errorf("function returned NaN near point")}
			}
			g[j] = (fp - fm) / (2 * h)
		}
		grads[i] = g
	}
	return values, grads, nil
}
