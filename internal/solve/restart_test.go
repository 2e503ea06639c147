package solve

import (
	"math"
	"testing"

	"github.com/cwbudde/bayopt/internal/domain"
	"github.com/cwbudde/bayopt/internal/objective"
)

func boxDomain(t *testing.T, lo, hi float64, dim int) domain.Domain {
	t.Helper()
	intervals := make([]domain.Interval, dim)
	for i := range intervals {
		intervals[i] = domain.Interval{Lower: lo, Upper: hi}
	}
	d, err := domain.New(intervals...)
	if err != nil {
		t.Fatalf("Failed to build domain: %v", err)
	}
	return d
}

// negQuadratic has its unique maximum 0 at (1, 2).
var negQuadratic = objective.Func(func(x []float64) float64 {
	dx := x[0] - 1
	dy := x[1] - 2
	return -(dx*dx + dy*dy)
})

func TestRestart_Maximize_Quadratic(t *testing.T) {
	dom := boxDomain(t, -5, 5, 2)
	r := NewRestart(WithSeed(42), WithGridSize(500), WithRestarts(5))

	res, err := r.Maximize(negQuadratic, dom)
	if err != nil {
		t.Fatalf("Maximize should succeed: %v", err)
	}

	if math.Abs(res.Point[0]-1) > 1e-3 || math.Abs(res.Point[1]-2) > 1e-3 {
		t.Errorf("Expected maximizer near (1, 2), got %v", res.Point)
	}
	if math.Abs(res.Value) > 1e-5 {
		t.Errorf("Expected value near 0, got %f", res.Value)
	}
	if !dom.Contains(res.Point) {
		t.Errorf("Result must lie in the domain: %v", res.Point)
	}
}

func TestRestart_Maximize_BoundaryOptimum(t *testing.T) {
	// Maximum of x0 + x1 over the box sits at the upper corner.
	f := objective.Func(func(x []float64) float64 {
		return x[0] + x[1]
	})

	dom := boxDomain(t, -1, 1, 2)
	r := NewRestart(WithSeed(7), WithGridSize(200), WithRestarts(3))

	res, err := r.Maximize(f, dom)
	if err != nil {
		t.Fatalf("Maximize should succeed: %v", err)
	}

	if math.Abs(res.Point[0]-1) > 1e-6 || math.Abs(res.Point[1]-1) > 1e-6 {
		t.Errorf("Expected corner (1, 1), got %v", res.Point)
	}
	if math.Abs(res.Value-2) > 1e-6 {
		t.Errorf("Expected value 2, got %f", res.Value)
	}
}

func TestRestart_Maximize_Deterministic(t *testing.T) {
	dom := boxDomain(t, -5, 5, 2)
	r := NewRestart(WithSeed(42), WithGridSize(300), WithRestarts(4))

	first, err := r.Maximize(negQuadratic, dom)
	if err != nil {
		t.Fatalf("Maximize should succeed: %v", err)
	}
	second, err := r.Maximize(negQuadratic, dom)
	if err != nil {
		t.Fatalf("Maximize should succeed: %v", err)
	}

	for i := range first.Point {
		if first.Point[i] != second.Point[i] {
			t.Errorf("Repeated calls should be identical, coord %d: %f vs %f",
				i, first.Point[i], second.Point[i])
		}
	}
	if first.Value != second.Value {
		t.Errorf("Repeated calls should give identical values: %f vs %f", first.Value, second.Value)
	}
}

func TestRestart_ParallelMatchesSequential(t *testing.T) {
	dom := boxDomain(t, -5, 5, 2)

	seq := NewRestart(WithSeed(11), WithGridSize(400), WithRestarts(6))
	par := NewRestart(WithSeed(11), WithGridSize(400), WithRestarts(6), WithParallel(4))

	a, err := seq.Maximize(negQuadratic, dom)
	if err != nil {
		t.Fatalf("Sequential maximize failed: %v", err)
	}
	b, err := par.Maximize(negQuadratic, dom)
	if err != nil {
		t.Fatalf("Parallel maximize failed: %v", err)
	}

	if a.Value != b.Value {
		t.Errorf("Parallel result should match sequential: %f vs %f", a.Value, b.Value)
	}
	for i := range a.Point {
		if a.Point[i] != b.Point[i] {
			t.Errorf("Parallel point should match sequential, coord %d: %f vs %f",
				i, a.Point[i], b.Point[i])
		}
	}
}

func TestRestart_TieBreakFirstFound(t *testing.T) {
	// Constant surface: every candidate ties. The stable ranking plus the
	// strict comparison must return the first candidate.
	f := objective.Func(func(x []float64) float64 { return 1.0 })

	dom := boxDomain(t, -1, 1, 1)
	seeds := [][]float64{{0.3}, {-0.7}, {0.9}}

	r := NewRestart(WithRestarts(3))
	res, err := r.MaximizeFrom(f, dom, seeds)
	if err != nil {
		t.Fatalf("MaximizeFrom should succeed: %v", err)
	}

	if res.Point[0] != 0.3 {
		t.Errorf("Ties should keep the first candidate, got %v", res.Point)
	}
}

func TestRestart_MaximizeFrom(t *testing.T) {
	dom := boxDomain(t, -5, 5, 2)
	seeds := [][]float64{{0, 0}, {4, 4}, {-3, 1}}

	r := NewRestart(WithRestarts(3))
	res, err := r.MaximizeFrom(negQuadratic, dom, seeds)
	if err != nil {
		t.Fatalf("MaximizeFrom should succeed: %v", err)
	}

	if math.Abs(res.Point[0]-1) > 1e-3 || math.Abs(res.Point[1]-2) > 1e-3 {
		t.Errorf("Expected maximizer near (1, 2), got %v", res.Point)
	}
}

func TestRestart_MaximizeFrom_NoSeeds(t *testing.T) {
	dom := boxDomain(t, -1, 1, 1)

	_, err := NewRestart().MaximizeFrom(negQuadratic, dom, nil)
	if err == nil {
		t.Fatal("MaximizeFrom should reject an empty seed set")
	}
	if _, ok := err.(*DegenerateError); !ok {
		t.Errorf("Expected DegenerateError, got %T", err)
	}
}

func TestRestart_Maximize_WrongSeedDim(t *testing.T) {
	dom := boxDomain(t, -1, 1, 2)
	seeds := [][]float64{{0, 0}, {0.5}}

	if _, err := NewRestart().MaximizeFrom(negQuadratic, dom, seeds); err == nil {
		t.Error("Seeds with wrong dimensionality should be rejected")
	}
}

func TestRestart_Maximize_InvalidRestarts(t *testing.T) {
	dom := boxDomain(t, -1, 1, 1)

	_, err := NewRestart(WithRestarts(0)).Maximize(negQuadratic, dom)
	if err == nil {
		t.Fatal("Zero restarts should be rejected")
	}
	if _, ok := err.(*DegenerateError); !ok {
		t.Errorf("Expected DegenerateError, got %T", err)
	}
}

func TestRestart_Maximize_EvalError(t *testing.T) {
	f := objective.Func(func(x []float64) float64 { return math.NaN() })

	dom := boxDomain(t, -1, 1, 1)
	_, err := NewRestart(WithGridSize(10), WithRestarts(2)).Maximize(f, dom)
	if err == nil {
		t.Error("Evaluation failures should abort the maximization")
	}
}
