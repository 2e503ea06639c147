package server

import (
	"context"
	"testing"
	"time"

	"github.com/cwbudde/bayopt/internal/store"
)

func testJobConfig() JobConfig {
	return JobConfig{
		Benchmark: "sphere",
		Dim:       2,
		Iters:     5,
		Kernel:    "se",
		Criterion: "ei",
		Solver:    "lbfgs",
		Seed:      42,
		GridSize:  200,
		Restarts:  2,
	}
}

func TestRunJob_Success(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testJobConfig())

	err := runJob(context.Background(), jm, nil, job.ID, nil)
	if err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Job should be completed, got %s", updated.State)
	}

	if len(updated.BestPoint) != 2 {
		t.Errorf("Expected 2-dimensional best point, got %d", len(updated.BestPoint))
	}

	// The sphere surface is non-positive, so any observation bounds the best
	// value from below.
	if updated.BestValue > 0 {
		t.Errorf("Best sphere value should be <= 0, got %f", updated.BestValue)
	}

	if len(updated.X) == 0 || len(updated.X) != len(updated.Y) {
		t.Errorf("Observation history should be recorded, got %d points and %d values",
			len(updated.X), len(updated.Y))
	}
}

func TestRunJob_InvalidBenchmark(t *testing.T) {
	jm := NewJobManager()
	config := testJobConfig()
	config.Benchmark = "nonexistent"

	job := jm.CreateJob(config)

	err := runJob(context.Background(), jm, nil, job.ID, nil)
	if err == nil {
		t.Error("runJob should fail with unknown benchmark")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}

	if updated.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	jm := NewJobManager()
	config := testJobConfig()
	config.Iters = 1000 // Long-running job
	config.Dim = 4
	config.GridSize = 20000
	config.Restarts = 10

	job := jm.CreateJob(config)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- runJob(ctx, jm, nil, job.ID, nil)
	}()

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	cancel()

	err := <-done
	if err == nil {
		t.Error("runJob should return error when cancelled")
	}

	updated, _ := jm.GetJob(job.ID)
	// State could be running or cancelled depending on timing
	if updated.State != StateRunning && updated.State != StateCancelled {
		t.Errorf("Job should be running or cancelled, got %s", updated.State)
	}
}

func TestRunJob_SavesFinalCheckpoint(t *testing.T) {
	jm := NewJobManager()
	checkpointStore, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	job := jm.CreateJob(testJobConfig())

	if err := runJob(context.Background(), jm, checkpointStore, job.ID, nil); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	cp, err := checkpointStore.LoadCheckpoint(job.ID)
	if err != nil {
		t.Fatalf("Expected final checkpoint: %v", err)
	}
	if err := cp.Validate(); err != nil {
		t.Errorf("Final checkpoint should be valid: %v", err)
	}
	if len(cp.X) == 0 {
		t.Error("Checkpoint should carry the observation history")
	}
}

func TestRunJob_Resume(t *testing.T) {
	jm := NewJobManager()
	checkpointStore, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	config := testJobConfig()
	first := jm.CreateJob(config)
	if err := runJob(context.Background(), jm, checkpointStore, first.ID, nil); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	cp, err := checkpointStore.LoadCheckpoint(first.ID)
	if err != nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}

	// Continue under a fresh job with a larger budget.
	config.Iters = cp.Iteration + 3
	second := jm.CreateJob(config)
	if err := runJob(context.Background(), jm, checkpointStore, second.ID, cp); err != nil {
		t.Fatalf("Resumed run failed: %v", err)
	}

	updated, _ := jm.GetJob(second.ID)
	if updated.State != StateCompleted {
		t.Errorf("Resumed job should complete, got %s", updated.State)
	}
	if len(updated.X) <= len(cp.X) {
		t.Errorf("Resumed job should extend the history: %d -> %d", len(cp.X), len(updated.X))
	}
	if updated.BestValue < cp.BestValue {
		t.Errorf("Resume should never lose the best value: %f -> %f", cp.BestValue, updated.BestValue)
	}
}
