package store

import (
	"encoding/json"
	"testing"
	"time"
)

func validConfig() RunConfig {
	return RunConfig{
		Benchmark: "sphere",
		Dim:       2,
		Iters:     100,
		Kernel:    "se",
		Criterion: "ei",
		Solver:    "lbfgs",
		Seed:      42,
	}
}

func validCheckpoint() *Checkpoint {
	return &Checkpoint{
		JobID:        "test-job",
		X:            [][]float64{{0, 0}, {1, 2}},
		Y:            []float64{-1.5, -0.2},
		BestPoint:    []float64{1, 2},
		BestValue:    -0.2,
		InitialValue: -1.5,
		Iteration:    1,
		Timestamp:    time.Now(),
		Config:       validConfig(),
	}
}

func TestCheckpoint_JSONSerialization(t *testing.T) {
	original := validCheckpoint()
	original.Timestamp = time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal checkpoint: %v", err)
	}

	var restored Checkpoint
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal checkpoint: %v", err)
	}

	if restored.JobID != original.JobID {
		t.Errorf("JobID mismatch: expected %s, got %s", original.JobID, restored.JobID)
	}
	if restored.BestValue != original.BestValue {
		t.Errorf("BestValue mismatch: expected %f, got %f", original.BestValue, restored.BestValue)
	}
	if restored.InitialValue != original.InitialValue {
		t.Errorf("InitialValue mismatch: expected %f, got %f", original.InitialValue, restored.InitialValue)
	}
	if !restored.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp mismatch: expected %v, got %v", original.Timestamp, restored.Timestamp)
	}
	if len(restored.X) != len(original.X) {
		t.Fatalf("X length mismatch: expected %d, got %d", len(original.X), len(restored.X))
	}
	for i := range original.X {
		for d := range original.X[i] {
			if restored.X[i][d] != original.X[i][d] {
				t.Errorf("X[%d][%d] mismatch: expected %f, got %f", i, d, original.X[i][d], restored.X[i][d])
			}
		}
	}
	if restored.Config.Benchmark != original.Config.Benchmark {
		t.Errorf("Config.Benchmark mismatch: expected %s, got %s", original.Config.Benchmark, restored.Config.Benchmark)
	}
	if restored.Config.Dim != original.Config.Dim {
		t.Errorf("Config.Dim mismatch: expected %d, got %d", original.Config.Dim, restored.Config.Dim)
	}
}

func TestCheckpoint_Validate_Valid(t *testing.T) {
	if err := validCheckpoint().Validate(); err != nil {
		t.Errorf("Valid checkpoint should not have validation error: %v", err)
	}
}

func TestCheckpoint_Validate_EmptyJobID(t *testing.T) {
	cp := validCheckpoint()
	cp.JobID = ""

	err := cp.Validate()
	if err == nil {
		t.Fatal("Expected validation error for empty JobID")
	}

	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("Expected ValidationError, got %T", err)
	}
}

func TestCheckpoint_Validate_EmptyHistory(t *testing.T) {
	cp := validCheckpoint()
	cp.X = nil
	cp.Y = nil

	if err := cp.Validate(); err == nil {
		t.Fatal("Expected validation error for empty history")
	}
}

func TestCheckpoint_Validate_MismatchedHistory(t *testing.T) {
	cp := validCheckpoint()
	cp.Y = cp.Y[:1]

	if err := cp.Validate(); err == nil {
		t.Fatal("Expected validation error for X/Y length mismatch")
	}
}

func TestCheckpoint_Validate_WrongPointDim(t *testing.T) {
	cp := validCheckpoint()
	cp.X[1] = []float64{1, 2, 3}

	if err := cp.Validate(); err == nil {
		t.Fatal("Expected validation error for point dimension mismatch")
	}
}

func TestCheckpoint_Validate_WrongBestPointDim(t *testing.T) {
	cp := validCheckpoint()
	cp.BestPoint = []float64{1}

	if err := cp.Validate(); err == nil {
		t.Fatal("Expected validation error for best point dimension mismatch")
	}
}

func TestCheckpoint_Validate_NegativeIteration(t *testing.T) {
	cp := validCheckpoint()
	cp.Iteration = -10

	if err := cp.Validate(); err == nil {
		t.Fatal("Expected validation error for negative iteration")
	}
}

func TestCheckpoint_Validate_ZeroTimestamp(t *testing.T) {
	cp := validCheckpoint()
	cp.Timestamp = time.Time{}

	if err := cp.Validate(); err == nil {
		t.Fatal("Expected validation error for zero timestamp")
	}
}

func TestCheckpoint_Validate_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"empty benchmark", func(c *RunConfig) { c.Benchmark = "" }},
		{"zero iters", func(c *RunConfig) { c.Iters = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cp := validCheckpoint()
			tc.mutate(&cp.Config)

			if err := cp.Validate(); err == nil {
				t.Fatalf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestCheckpoint_IsCompatible_Compatible(t *testing.T) {
	cp := validCheckpoint()

	if err := cp.IsCompatible(validConfig()); err != nil {
		t.Errorf("Compatible configs should not return error: %v", err)
	}
}

func TestCheckpoint_IsCompatible_DifferentBenchmark(t *testing.T) {
	cp := validCheckpoint()
	config := validConfig()
	config.Benchmark = "branin"

	err := cp.IsCompatible(config)
	if err == nil {
		t.Fatal("Expected compatibility error for different Benchmark")
	}

	if _, ok := err.(*CompatibilityError); !ok {
		t.Errorf("Expected CompatibilityError, got %T", err)
	}
}

func TestCheckpoint_IsCompatible_DifferentDim(t *testing.T) {
	cp := validCheckpoint()
	config := validConfig()
	config.Dim = 5

	if err := cp.IsCompatible(config); err == nil {
		t.Fatal("Expected compatibility error for different Dim")
	}
}

func TestCheckpoint_IsCompatible_DifferentKernel(t *testing.T) {
	cp := validCheckpoint()
	config := validConfig()
	config.Kernel = "matern5"

	if err := cp.IsCompatible(config); err == nil {
		t.Fatal("Expected compatibility error for different Kernel")
	}
}

func TestCheckpointInfo_FromCheckpoint(t *testing.T) {
	cp := validCheckpoint()

	info := cp.ToInfo()

	if info.JobID != cp.JobID {
		t.Errorf("JobID mismatch: expected %s, got %s", cp.JobID, info.JobID)
	}
	if info.BestValue != cp.BestValue {
		t.Errorf("BestValue mismatch: expected %f, got %f", cp.BestValue, info.BestValue)
	}
	if info.Iteration != cp.Iteration {
		t.Errorf("Iteration mismatch: expected %d, got %d", cp.Iteration, info.Iteration)
	}
	if info.Observations != len(cp.Y) {
		t.Errorf("Observations mismatch: expected %d, got %d", len(cp.Y), info.Observations)
	}
	if !info.Timestamp.Equal(cp.Timestamp) {
		t.Errorf("Timestamp mismatch")
	}
	if info.Benchmark != cp.Config.Benchmark {
		t.Errorf("Benchmark mismatch: expected %s, got %s", cp.Config.Benchmark, info.Benchmark)
	}
	if info.Dim != cp.Config.Dim {
		t.Errorf("Dim mismatch: expected %d, got %d", cp.Config.Dim, info.Dim)
	}
}

func TestNewCheckpoint(t *testing.T) {
	x := [][]float64{{0, 0}, {1, 1}}
	y := []float64{-2, -1}
	bestPoint := []float64{1, 1}

	cp := NewCheckpoint("test-job", x, y, bestPoint, -1, -2, 1, validConfig())

	if cp.JobID != "test-job" {
		t.Errorf("JobID mismatch: got %s", cp.JobID)
	}
	if cp.BestValue != -1 {
		t.Errorf("BestValue mismatch: expected -1, got %f", cp.BestValue)
	}
	if cp.Iteration != 1 {
		t.Errorf("Iteration mismatch: expected 1, got %d", cp.Iteration)
	}
	if cp.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if len(cp.X) != len(x) || len(cp.Y) != len(y) {
		t.Errorf("History length mismatch")
	}
	if err := cp.Validate(); err != nil {
		t.Errorf("NewCheckpoint should produce a valid checkpoint: %v", err)
	}
}
