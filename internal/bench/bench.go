// Package bench provides standard test functions for exercising the
// optimizer. Every function is oriented for maximization, so the classic
// minimization surfaces are negated and the known optimum is the global
// maximum value.
package bench

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cwbudde/bayopt/internal/domain"
	"github.com/cwbudde/bayopt/internal/objective"
)

// Benchmark couples a test function with its search domain and known
// optimum.
type Benchmark struct {
	Name    string
	Domain  domain.Domain
	Optimum float64
	// OptimumPoint is one global maximizer; some benchmarks have several.
	OptimumPoint []float64

	fn func(x []float64) float64
}

// Objective returns the benchmark as a batch objective with finite
// difference gradients.
func (b Benchmark) Objective() objective.Batch {
	return objective.Func(b.fn)
}

// Eval evaluates the benchmark at a single point.
func (b Benchmark) Eval(x []float64) float64 {
	return b.fn(x)
}

// Sphere is the negated sphere function in dim dimensions: maximum 0 at
// the origin.
func Sphere(dim int) Benchmark {
	dom := make([]domain.Interval, dim)
	opt := make([]float64, dim)
	for i := range dom {
		dom[i] = domain.Interval{Lower: -5, Upper: 5}
	}
	return Benchmark{
		Name:         "sphere",
		Domain:       domain.Domain(dom),
		Optimum:      0,
		OptimumPoint: opt,
		fn: func(x []float64) float64 {
			sum := 0.0
			for _, v := range x {
				sum += v * v
			}
			return -sum
		},
	}
}

// Rosenbrock is the negated Rosenbrock valley in dim dimensions: maximum 0
// at the all-ones point.
func Rosenbrock(dim int) Benchmark {
	dom := make([]domain.Interval, dim)
	opt := make([]float64, dim)
	for i := range dom {
		dom[i] = domain.Interval{Lower: -2, Upper: 2}
		opt[i] = 1
	}
	return Benchmark{
		Name:         "rosenbrock",
		Domain:       domain.Domain(dom),
		Optimum:      0,
		OptimumPoint: opt,
		fn: func(x []float64) float64 {
			sum := 0.0
			for i := 0; i+1 < len(x); i++ {
				a := x[i+1] - x[i]*x[i]
				b := 1 - x[i]
				sum += 100*a*a + b*b
			}
			return -sum
		},
	}
}

// Branin is the negated Branin-Hoo function on [-5, 10] x [0, 15]: maximum
// -0.397887 at three points, one of which is (pi, 2.275).
func Branin() Benchmark {
	const (
		a = 1
		b = 5.1 / (4 * math.Pi * math.Pi)
		c = 5 / math.Pi
		r = 6
		s = 10
		t = 1 / (8 * math.Pi)
	)
	return Benchmark{
		Name: "branin",
		Domain: domain.Domain{
			{Lower: -5, Upper: 10},
			{Lower: 0, Upper: 15},
		},
		Optimum:      -0.39788735772973816,
		OptimumPoint: []float64{math.Pi, 2.275},
		fn: func(x []float64) float64 {
			u := x[1] - b*x[0]*x[0] + c*x[0] - r
			return -(a*u*u + s*(1-t)*math.Cos(x[0]) + s)
		},
	}
}

// Eggholder is the negated Eggholder function on [-512, 512]^2: a highly
// multimodal surface with maximum 959.6407 at (512, 404.2319).
func Eggholder() Benchmark {
	return Benchmark{
		Name: "eggholder",
		Domain: domain.Domain{
			{Lower: -512, Upper: 512},
			{Lower: -512, Upper: 512},
		},
		Optimum:      959.6406627106155,
		OptimumPoint: []float64{512, 404.2318058097954},
		fn: func(x []float64) float64 {
			a := x[1] + 47
			return a*math.Sin(math.Sqrt(math.Abs(x[0]/2+a))) +
				x[0]*math.Sin(math.Sqrt(math.Abs(x[0]-a)))
		},
	}
}

// builders maps benchmark names to dimension-aware constructors. The fixed
// dimension benchmarks reject any other dimension.
var builders = map[string]func(dim int) (Benchmark, error){
	"sphere": func(dim int) (Benchmark, error) {
		return Sphere(dim), nil
	},
	"rosenbrock": func(dim int) (Benchmark, error) {
		if dim < 2 {
			return Benchmark{}, fmt.Errorf("rosenbrock needs at least 2 dimensions, got %d", dim)
		}
		return Rosenbrock(dim), nil
	},
	"branin": func(dim int) (Benchmark, error) {
		if dim != 2 {
			return Benchmark{}, fmt.Errorf("branin is 2-dimensional, got %d", dim)
		}
		return Branin(), nil
	},
	"eggholder": func(dim int) (Benchmark, error) {
		if dim != 2 {
			return Benchmark{}, fmt.Errorf("eggholder is 2-dimensional, got %d", dim)
		}
		return Eggholder(), nil
	},
}

// Lookup resolves a benchmark by name and dimension. Names are
// case-insensitive.
func Lookup(name string, dim int) (Benchmark, error) {
	builder, ok := builders[strings.ToLower(name)]
	if !ok {
		return Benchmark{}, fmt.Errorf("unknown benchmark %q (known: %s)",
			name, strings.Join(Names(), ", "))
	}
	if dim < 1 {
		return Benchmark{}, fmt.Errorf("benchmark dimension must be positive, got %d", dim)
	}
	return builder(dim)
}

// Names returns the registered benchmark names, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
