package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/bayopt/internal/store"
)

var (
	resumeDataDir string
	resumeIters   int
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume an optimization run from its checkpoint",
	Long: `Loads the checkpoint for a job, replays its observation history
into a fresh policy and continues optimizing from where the run stopped.
The checkpoint is updated when the continuation finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	resumeCmd.Flags().IntVar(&resumeIters, "iters", 0, "Additional iterations to run (0 = remaining budget)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	cp, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := cp.Validate(); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}
	if err := cp.IsCompatible(cp.Config); err != nil {
		return fmt.Errorf("incompatible checkpoint: %w", err)
	}

	slog.Info("Loaded checkpoint",
		"job_id", jobID,
		"benchmark", cp.Config.Benchmark,
		"iteration", cp.Iteration,
		"observations", len(cp.Y),
		"best_value", cp.BestValue,
	)

	pol, bm, err := buildRunPolicy(cp.Config)
	if err != nil {
		return err
	}

	// Replaying the history rebuilds the surrogate exactly as it was at
	// checkpoint time.
	for i, x := range cp.X {
		if err := pol.Observe(x, cp.Y[i]); err != nil {
			return fmt.Errorf("failed to replay observation %d: %w", i, err)
		}
	}

	iters := resumeIters
	if iters == 0 {
		iters = cp.Config.Iters - cp.Iteration
	}
	if iters <= 0 {
		fmt.Printf("Run %s already used its iteration budget (%d/%d)\n", jobID, cp.Iteration, cp.Config.Iters)
		return nil
	}

	bestPoint := cp.BestPoint
	bestValue := cp.BestValue
	x := cp.X
	y := cp.Y
	lastIter := cp.Iteration

	start := time.Now()
	f := bm.Objective()
	for i := 1; i <= iters; i++ {
		point, err := pol.Propose()
		if err != nil {
			return err
		}
		values, err := f.Evaluate([][]float64{point})
		if err != nil {
			return err
		}
		value := values[0]
		if err := pol.Observe(point, value); err != nil {
			return err
		}

		x = append(x, point)
		y = append(y, value)
		lastIter = cp.Iteration + i
		if value > bestValue {
			bestValue = value
			bestPoint = point
		}
	}
	elapsed := time.Since(start)

	updated := store.NewCheckpoint(jobID, x, y, bestPoint, bestValue, cp.InitialValue, lastIter, cp.Config)
	if err := checkpointStore.SaveCheckpoint(jobID, updated); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	recommended, err := pol.Recommend()
	if err != nil {
		return err
	}

	slog.Info("Resume complete",
		"job_id", jobID,
		"elapsed", elapsed,
		"iteration", lastIter,
		"best_value", bestValue,
	)

	fmt.Printf("Resumed %s for %d iterations\n", jobID, iters)
	fmt.Printf("Best observed: f(%v) = %.6f\n", bestPoint, bestValue)
	fmt.Printf("Recommended:   %v\n", recommended)

	return nil
}
