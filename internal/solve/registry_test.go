package solve

import (
	"math"
	"strings"
	"testing"
)

func TestNew_KnownSolvers(t *testing.T) {
	for _, name := range []string{"lbfgs", "mayfly", "LBFGS", " lbfgs "} {
		m, err := New(name, Config{Seed: 1})
		if err != nil {
			t.Errorf("New(%q) should succeed: %v", name, err)
		}
		if m == nil {
			t.Errorf("New(%q) returned nil maximizer", name)
		}
	}
}

func TestNew_UnknownSolver(t *testing.T) {
	_, err := New("newton", Config{})
	if err == nil {
		t.Fatal("Unknown solver should fail")
	}
	if !strings.Contains(err.Error(), "lbfgs") {
		t.Errorf("Error should list known solvers, got: %v", err)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) < 2 {
		t.Fatalf("Expected at least 2 solvers, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names should be sorted: %v", names)
		}
	}
}

func TestNew_ZeroConfigKeepsDefaults(t *testing.T) {
	// Zero Restarts/GridSize must not override the built-in defaults.
	m, err := New("lbfgs", Config{Seed: 3})
	if err != nil {
		t.Fatalf("New should succeed: %v", err)
	}

	r, ok := m.(*Restart)
	if !ok {
		t.Fatalf("Expected *Restart, got %T", m)
	}
	if r.restarts != 10 {
		t.Errorf("Expected default 10 restarts, got %d", r.restarts)
	}
	if r.gridSize != 10000 {
		t.Errorf("Expected default grid size 10000, got %d", r.gridSize)
	}
}

func TestMayfly_Maximize_Sphere(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping swarm test in short mode")
	}

	dom := boxDomain(t, -5, 5, 2)
	m := NewMayfly(200, 30, 42)

	res, err := m.Maximize(negQuadratic, dom)
	if err != nil {
		t.Fatalf("Maximize should succeed: %v", err)
	}

	if !dom.Contains(res.Point) {
		t.Errorf("Result must lie in the domain: %v", res.Point)
	}
	// Swarm search is approximate; just require it to get close.
	if math.Abs(res.Point[0]-1) > 0.5 || math.Abs(res.Point[1]-2) > 0.5 {
		t.Errorf("Expected point near (1, 2), got %v", res.Point)
	}
}
