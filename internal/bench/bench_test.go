package bench

import (
	"math"
	"testing"
)

func TestBenchmarks_OptimumValue(t *testing.T) {
	testCases := []Benchmark{
		Sphere(2),
		Sphere(5),
		Rosenbrock(2),
		Rosenbrock(4),
		Branin(),
		Eggholder(),
	}

	for _, b := range testCases {
		t.Run(b.Name, func(t *testing.T) {
			if !b.Domain.Contains(b.OptimumPoint) {
				t.Fatalf("Optimum point must lie in the domain: %v", b.OptimumPoint)
			}

			v := b.Eval(b.OptimumPoint)
			if math.Abs(v-b.Optimum) > 1e-6 {
				t.Errorf("Value at optimum point: expected %g, got %g", b.Optimum, v)
			}
		})
	}
}

func TestBenchmarks_OptimumIsMaximum(t *testing.T) {
	// Nearby perturbations must not beat the stated optimum.
	testCases := []Benchmark{
		Sphere(3),
		Rosenbrock(2),
		Branin(),
	}

	for _, b := range testCases {
		t.Run(b.Name, func(t *testing.T) {
			for _, eps := range []float64{0.01, 0.1} {
				probe := make([]float64, len(b.OptimumPoint))
				copy(probe, b.OptimumPoint)
				probe[0] += eps
				probe = b.Domain.Clamp(probe)

				if v := b.Eval(probe); v > b.Optimum+1e-9 {
					t.Errorf("Perturbed point beats the optimum: %g > %g at %v", v, b.Optimum, probe)
				}
			}
		})
	}
}

func TestSphere_Values(t *testing.T) {
	b := Sphere(2)

	if v := b.Eval([]float64{0, 0}); v != 0 {
		t.Errorf("Expected 0 at origin, got %f", v)
	}
	if v := b.Eval([]float64{1, 2}); v != -5 {
		t.Errorf("Expected -5 at (1, 2), got %f", v)
	}
	if b.Domain.Dim() != 2 {
		t.Errorf("Expected 2 dimensions, got %d", b.Domain.Dim())
	}
}

func TestRosenbrock_Valley(t *testing.T) {
	b := Rosenbrock(2)

	// The valley floor x1 = x0^2 scores much better than off-valley points.
	onValley := b.Eval([]float64{0.5, 0.25})
	offValley := b.Eval([]float64{0.5, 1.5})
	if onValley <= offValley {
		t.Errorf("Valley point (%f) should beat off-valley point (%f)", onValley, offValley)
	}
}

func TestBranin_AllThreeOptima(t *testing.T) {
	b := Branin()

	optima := [][]float64{
		{-math.Pi, 12.275},
		{math.Pi, 2.275},
		{9.42478, 2.475},
	}
	for _, pt := range optima {
		if v := b.Eval(pt); math.Abs(v-b.Optimum) > 1e-4 {
			t.Errorf("Branin at %v: expected %g, got %g", pt, b.Optimum, v)
		}
	}
}

func TestBenchmark_Objective(t *testing.T) {
	b := Sphere(2)

	values, err := b.Objective().Evaluate([][]float64{{0, 0}, {3, 4}})
	if err != nil {
		t.Fatalf("Evaluate should succeed: %v", err)
	}
	if values[0] != 0 || values[1] != -25 {
		t.Errorf("Expected [0, -25], got %v", values)
	}

	_, grads, err := b.Objective().EvaluateWithGrad([][]float64{{1, 2}})
	if err != nil {
		t.Fatalf("EvaluateWithGrad should succeed: %v", err)
	}
	if math.Abs(grads[0][0]+2) > 1e-4 || math.Abs(grads[0][1]+4) > 1e-4 {
		t.Errorf("Expected gradient near (-2, -4), got %v", grads[0])
	}
}

func TestLookup(t *testing.T) {
	b, err := Lookup("sphere", 7)
	if err != nil {
		t.Fatalf("Lookup should succeed: %v", err)
	}
	if b.Domain.Dim() != 7 {
		t.Errorf("Expected 7 dimensions, got %d", b.Domain.Dim())
	}

	if _, err := Lookup("SPHERE", 2); err != nil {
		t.Errorf("Lookup should be case-insensitive: %v", err)
	}
}

func TestLookup_Errors(t *testing.T) {
	testCases := []struct {
		name string
		dim  int
	}{
		{"unknown", 2},
		{"sphere", 0},
		{"rosenbrock", 1},
		{"branin", 3},
		{"eggholder", 1},
	}

	for _, tc := range testCases {
		if _, err := Lookup(tc.name, tc.dim); err == nil {
			t.Errorf("Lookup(%q, %d) should fail", tc.name, tc.dim)
		}
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 4 {
		t.Fatalf("Expected 4 benchmarks, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names should be sorted: %v", names)
		}
	}
}
