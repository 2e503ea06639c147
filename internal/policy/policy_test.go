package policy

import (
	"math"
	"testing"

	"github.com/cwbudde/bayopt/internal/domain"
	"github.com/cwbudde/bayopt/internal/gp"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dom, err := domain.New(
		domain.Interval{Lower: -5, Upper: 5},
		domain.Interval{Lower: -5, Upper: 5},
	)
	if err != nil {
		t.Fatalf("Failed to build domain: %v", err)
	}
	return Config{
		Domain:   dom,
		Seed:     42,
		GridSize: 300,
		Restarts: 3,
	}
}

func bump(x []float64) float64 {
	dx := x[0] - 1
	dy := x[1] + 2
	return -(dx*dx + dy*dy)
}

func TestNew_Defaults(t *testing.T) {
	p, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New should succeed: %v", err)
	}

	if p.cfg.Kernel != "se" {
		t.Errorf("Expected default kernel se, got %s", p.cfg.Kernel)
	}
	if p.cfg.Criterion != "ei" {
		t.Errorf("Expected default criterion ei, got %s", p.cfg.Criterion)
	}
	if p.cfg.Solver != "lbfgs" {
		t.Errorf("Expected default solver lbfgs, got %s", p.cfg.Solver)
	}
	if p.cfg.Noise != 1e-3 {
		t.Errorf("Expected default noise 1e-3, got %g", p.cfg.Noise)
	}
	if p.cfg.Beta != 2 {
		t.Errorf("Expected default beta 2, got %g", p.cfg.Beta)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty domain", func(c *Config) { c.Domain = nil }},
		{"negative noise", func(c *Config) { c.Noise = -1 }},
		{"unknown kernel", func(c *Config) { c.Kernel = "periodic" }},
		{"unknown criterion", func(c *Config) { c.Criterion = "entropy" }},
		{"unknown solver", func(c *Config) { c.Solver = "newton" }},
		{"negative xi", func(c *Config) { c.Xi = -0.1 }},
		{"negative beta", func(c *Config) { c.Beta = -1 }},
		{"negative restarts", func(c *Config) { c.Restarts = -1 }},
		{"marginal without prior", func(c *Config) { c.Inference = InferenceMarginal }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			tc.mutate(&cfg)

			_, err := New(cfg)
			if err == nil {
				t.Fatal("Expected configuration error")
			}
			if _, ok := err.(*ConfigError); !ok {
				t.Errorf("Expected ConfigError, got %T: %v", err, err)
			}
		})
	}
}

func TestNew_MarginalInference(t *testing.T) {
	cfg := testConfig(t)
	cfg.Inference = InferenceMarginal
	prior := gp.DefaultPrior(cfg.Domain)
	cfg.Prior = &prior
	cfg.Samples = 3

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New should succeed with a prior: %v", err)
	}
	if _, ok := p.Model().(*gp.Marginal); !ok {
		t.Errorf("Expected a marginalized surrogate, got %T", p.Model())
	}
}

func TestPolicy_InitialPoint(t *testing.T) {
	p, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New should succeed: %v", err)
	}

	init := p.InitialPoint()
	center := p.Domain().Center()
	for i := range init {
		if init[i] != center[i] {
			t.Errorf("Initial point should be the domain center, coord %d: %f", i, init[i])
		}
	}
}

func TestPolicy_ProposeInDomain(t *testing.T) {
	p, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New should succeed: %v", err)
	}

	// Cold start and after a few observations.
	for i := 0; i < 3; i++ {
		point, err := p.Propose()
		if err != nil {
			t.Fatalf("Propose should succeed at iteration %d: %v", i, err)
		}
		if !p.Domain().Contains(point) {
			t.Fatalf("Proposal must lie in the domain: %v", point)
		}
		if err := p.Observe(point, bump(point)); err != nil {
			t.Fatalf("Observe should succeed: %v", err)
		}
	}

	if p.Observations() != 3 {
		t.Errorf("Expected 3 observations, got %d", p.Observations())
	}
}

func TestPolicy_ProposeIdempotent(t *testing.T) {
	p, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New should succeed: %v", err)
	}

	if err := p.Observe([]float64{0, 0}, bump([]float64{0, 0})); err != nil {
		t.Fatalf("Observe should succeed: %v", err)
	}

	a, err := p.Propose()
	if err != nil {
		t.Fatalf("Propose should succeed: %v", err)
	}
	b, err := p.Propose()
	if err != nil {
		t.Fatalf("Propose should succeed: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Repeated proposals on unchanged data should match, coord %d: %f vs %f",
				i, a[i], b[i])
		}
	}
}

func TestPolicy_Observe_Invalid(t *testing.T) {
	p, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New should succeed: %v", err)
	}

	if err := p.Observe([]float64{0}, 1); err == nil {
		t.Error("Wrong dimensionality should be rejected")
	}
	if err := p.Observe([]float64{100, 0}, 1); err == nil {
		t.Error("Out-of-domain point should be rejected")
	}
	if p.Observations() != 0 {
		t.Errorf("Rejected observations must not be recorded, got %d", p.Observations())
	}
}

func TestPolicy_Recommend(t *testing.T) {
	p, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New should succeed: %v", err)
	}

	if _, err := p.Recommend(); err == nil {
		t.Error("Recommend should fail with no observations")
	}

	// Observe a grid around the bump's maximum at (1, -2).
	for _, x := range []float64{-1, 0, 1, 2} {
		for _, y := range []float64{-4, -3, -2, -1} {
			pt := []float64{x, y}
			if err := p.Observe(pt, bump(pt)); err != nil {
				t.Fatalf("Observe should succeed: %v", err)
			}
		}
	}

	rec, err := p.Recommend()
	if err != nil {
		t.Fatalf("Recommend should succeed: %v", err)
	}
	if !p.Domain().Contains(rec) {
		t.Fatalf("Recommendation must lie in the domain: %v", rec)
	}
	if math.Abs(rec[0]-1) > 0.5 || math.Abs(rec[1]+2) > 0.5 {
		t.Errorf("Expected recommendation near (1, -2), got %v", rec)
	}
}

func TestParseInference(t *testing.T) {
	testCases := []struct {
		in      string
		want    InferenceMode
		wantErr bool
	}{
		{"", InferenceFixed, false},
		{"fixed", InferenceFixed, false},
		{"FIXED", InferenceFixed, false},
		{"marginal", InferenceMarginal, false},
		{"mcmc", InferenceMarginal, false},
		{"exact", 0, true},
	}

	for _, tc := range testCases {
		got, err := ParseInference(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseInference(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseInference(%q) should succeed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseInference(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInferenceMode_String(t *testing.T) {
	if InferenceFixed.String() != "fixed" {
		t.Errorf("Expected fixed, got %s", InferenceFixed.String())
	}
	if InferenceMarginal.String() != "marginal" {
		t.Errorf("Expected marginal, got %s", InferenceMarginal.String())
	}
}
