package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/bayopt/internal/policy"
	"github.com/cwbudde/bayopt/internal/store"
)

// runJob executes an optimization run in the background.
// If checkpointStore is not nil and the job has checkpointInterval > 0,
// periodic checkpoints are saved. A non-nil resume checkpoint replays its
// observation history into the fresh policy before the loop starts, so the
// surrogate picks up exactly where the interrupted run left off.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string, resume *store.Checkpoint) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "benchmark", job.Config.Benchmark, "dim", job.Config.Dim)

	pol, bm, err := buildPolicy(job.Config)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	startIter := 0
	if resume != nil {
		if err := replayCheckpoint(pol, resume); err != nil {
			markJobFailed(jm, jobID, fmt.Errorf("failed to replay checkpoint: %w", err))
			return err
		}
		startIter = resume.Iteration
		jm.UpdateJob(jobID, func(j *Job) {
			j.X = append(j.X, resume.X...)
			j.Y = append(j.Y, resume.Y...)
			j.BestPoint = resume.BestPoint
			j.BestValue = resume.BestValue
			j.InitialValue = resume.InitialValue
			j.Iterations = resume.Iteration
		})
		slog.Info("Resumed from checkpoint",
			"job_id", jobID,
			"iteration", resume.Iteration,
			"observations", len(resume.Y),
			"best_value", resume.BestValue,
		)
	}

	// Trace of per-iteration values, appended on resume.
	trace, err := traceWriter(checkpointStore, jobID, resume != nil)
	if err != nil {
		slog.Warn("Trace disabled", "job_id", jobID, "error", err)
	}
	if trace != nil {
		defer trace.Close()
	}

	start := time.Now()

	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	checkpointDone := make(chan struct{})
	if checkpointStore != nil && job.Config.CheckpointInterval > 0 {
		go monitorCheckpoints(ctx, jm, checkpointStore, jobID, checkpointDone)
	} else {
		close(checkpointDone)
	}

	onStep := func(step policy.Step) {
		iter := startIter + step.Iteration
		jm.UpdateJob(jobID, func(j *Job) {
			j.X = append(j.X, step.Point)
			j.Y = append(j.Y, step.Value)
			j.BestPoint = step.BestPoint
			j.BestValue = step.BestValue
			j.Iterations = iter
		})

		if trace != nil {
			trace.Write(store.TraceEntry{
				Iteration: iter,
				Value:     step.Value,
				BestValue: step.BestValue,
				Timestamp: time.Now(),
				Point:     step.Point,
			})
		}

		elapsed := time.Since(start).Seconds()
		var eps float64
		if elapsed > 0 {
			eps = float64(step.Iteration) / elapsed
		}
		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:      jobID,
			State:      StateRunning,
			Iterations: iter,
			BestValue:  step.BestValue,
			EPS:        eps,
			Timestamp:  time.Now(),
		})
	}

	iters := job.Config.Iters - startIter
	if iters < 0 {
		iters = 0
	}

	result, err := policy.Run(ctx, pol, bm.Objective(), iters, policy.DefaultConvergenceConfig(), onStep)
	close(checkpointDone)

	if err != nil {
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID)
			return ctx.Err()
		}
		markJobFailed(jm, jobID, err)
		return err
	}

	elapsed := time.Since(start)

	// The loop's warm-up observation counts toward the history but not the
	// iteration budget.
	endTime := time.Now()
	var finalIters int
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		if result.BestValue > j.BestValue || j.BestPoint == nil {
			j.BestPoint = result.BestPoint
			j.BestValue = result.BestValue
		}
		if resume == nil {
			j.InitialValue = result.InitialValue
		}
		j.Iterations = startIter + result.Iterations
		finalIters = j.Iterations
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	if trace != nil {
		trace.Flush()
	}

	// Final checkpoint so completed runs can be inspected and resumed.
	if checkpointStore != nil {
		if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
			slog.Error("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}

	eps := float64(result.Iterations) / elapsed.Seconds()
	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_value", result.InitialValue,
		"best_value", result.BestValue,
		"converged", result.Converged,
		"evals_per_second", eps,
	)

	job, _ = jm.GetJob(jobID)
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:      jobID,
		State:      StateCompleted,
		Iterations: finalIters,
		BestValue:  job.BestValue,
		EPS:        eps,
		Timestamp:  time.Now(),
	})

	return nil
}

// replayCheckpoint feeds a checkpoint's observation history into a fresh
// policy.
func replayCheckpoint(pol *policy.Policy, cp *store.Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}
	for i, x := range cp.X {
		if err := pol.Observe(x, cp.Y[i]); err != nil {
			return fmt.Errorf("observation %d: %w", i, err)
		}
	}
	return nil
}

// traceWriter opens the per-job trace when the store is filesystem-backed.
func traceWriter(checkpointStore store.Store, jobID string, appendMode bool) (*store.TraceWriter, error) {
	fs, ok := checkpointStore.(*store.FSStore)
	if !ok || fs == nil {
		return nil, nil
	}
	return store.NewTraceWriter(fs.BaseDir(), jobID, appendMode)
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}

// monitorCheckpoints periodically saves checkpoints during optimization
func monitorCheckpoints(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string, done chan struct{}) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}

	interval := time.Duration(job.Config.CheckpointInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
			}
		}
	}
}

// saveCheckpoint saves a checkpoint for the given job
func saveCheckpoint(jm *JobManager, checkpointStore store.Store, jobID string) error {
	var cp *store.Checkpoint
	err := jm.UpdateJob(jobID, func(j *Job) {
		if len(j.X) == 0 {
			return
		}
		x := make([][]float64, len(j.X))
		copy(x, j.X)
		y := make([]float64, len(j.Y))
		copy(y, j.Y)
		cp = store.NewCheckpoint(jobID, x, y, j.BestPoint, j.BestValue, j.InitialValue, j.Iterations, j.Config)
	})
	if err != nil {
		return err
	}
	if cp == nil {
		slog.Debug("Skipping checkpoint, no observations yet", "job_id", jobID)
		return nil
	}

	if err := checkpointStore.SaveCheckpoint(jobID, cp); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Checkpoint saved",
		"job_id", jobID,
		"iteration", cp.Iteration,
		"observations", len(cp.Y),
		"best_value", cp.BestValue,
	)
	return nil
}
