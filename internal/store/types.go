package store

import (
	"fmt"
	"time"
)

// RunConfig holds configuration for an optimization run (checkpoint copy).
// This avoids import cycles with the server package.
type RunConfig struct {
	Benchmark          string  `json:"benchmark"`
	Dim                int     `json:"dim"`
	Iters              int     `json:"iters"`
	Kernel             string  `json:"kernel,omitempty"`
	Criterion          string  `json:"criterion,omitempty"`
	Solver             string  `json:"solver,omitempty"`
	Inference          string  `json:"inference,omitempty"`
	Noise              float64 `json:"noise,omitempty"`
	Xi                 float64 `json:"xi,omitempty"`
	Beta               float64 `json:"beta,omitempty"`
	Seed               int64   `json:"seed"`
	Restarts           int     `json:"restarts,omitempty"`
	GridSize           int     `json:"gridSize,omitempty"`
	Parallel           int     `json:"parallel,omitempty"`
	CheckpointInterval int     `json:"checkpointInterval,omitempty"` // Checkpoint every N seconds (0 = disabled)
}

// Checkpoint represents a saved optimization state that can be resumed later.
// All fields are serialized to JSON for persistence.
//
// Unlike population-based optimizers, a Bayesian optimization run is fully
// determined by its observation history: replaying X and Y into a fresh
// policy reconstructs the surrogate exactly. The checkpoint therefore saves
// the complete history rather than any internal model state, which keeps the
// format independent of the surrogate implementation.
type Checkpoint struct {
	// JobID is the unique identifier for this optimization run
	JobID string `json:"jobId"`

	// X holds every evaluated point, in observation order
	X [][]float64 `json:"x"`

	// Y holds the observed value for each point in X
	Y []float64 `json:"y"`

	// BestPoint is the point that achieved the highest observed value
	BestPoint []float64 `json:"bestPoint"`

	// BestValue is the value achieved by BestPoint
	BestValue float64 `json:"bestValue"`

	// InitialValue is the value at the warm-up point, for improvement tracking
	InitialValue float64 `json:"initialValue"`

	// Iteration is the iteration count when this checkpoint was created
	Iteration int `json:"iteration"`

	// Timestamp records when this checkpoint was created
	Timestamp time.Time `json:"timestamp"`

	// Config holds the run configuration, needed for validation during resume
	Config RunConfig `json:"config"`
}

// CheckpointInfo contains metadata about a checkpoint without the full
// observation history. Used for listing checkpoints efficiently.
type CheckpointInfo struct {
	// JobID is the unique identifier for this checkpoint
	JobID string `json:"jobId"`

	// BestValue is the best value achieved at the time of checkpointing
	BestValue float64 `json:"bestValue"`

	// Iteration is the iteration count at checkpoint time
	Iteration int `json:"iteration"`

	// Observations is the number of recorded evaluations
	Observations int `json:"observations"`

	// Timestamp records when this checkpoint was created
	Timestamp time.Time `json:"timestamp"`

	// Benchmark is the objective being optimized
	Benchmark string `json:"benchmark"`

	// Dim is the search space dimensionality
	Dim int `json:"dim"`
}

// NewCheckpoint creates a checkpoint from run state.
func NewCheckpoint(jobID string, x [][]float64, y []float64, bestPoint []float64, bestValue, initialValue float64, iteration int, config RunConfig) *Checkpoint {
	return &Checkpoint{
		JobID:        jobID,
		X:            x,
		Y:            y,
		BestPoint:    bestPoint,
		BestValue:    bestValue,
		InitialValue: initialValue,
		Iteration:    iteration,
		Timestamp:    time.Now(),
		Config:       config,
	}
}

// ToInfo converts a full Checkpoint to CheckpointInfo (metadata only).
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:        c.JobID,
		BestValue:    c.BestValue,
		Iteration:    c.Iteration,
		Observations: len(c.Y),
		Timestamp:    c.Timestamp,
		Benchmark:    c.Config.Benchmark,
		Dim:          c.Config.Dim,
	}
}

// Validate checks if the checkpoint has valid data.
// Returns an error if any required field is missing or invalid.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(c.X) == 0 {
		return &ValidationError{Field: "X", Reason: "cannot be empty"}
	}
	if len(c.X) != len(c.Y) {
		return &ValidationError{
			Field:  "Y",
			Reason: fmt.Sprintf("length mismatch: %d points but %d values", len(c.X), len(c.Y)),
		}
	}
	if c.Config.Dim <= 0 {
		return &ValidationError{Field: "Config.Dim", Reason: "must be positive"}
	}
	for i, x := range c.X {
		if len(x) != c.Config.Dim {
			return &ValidationError{
				Field:  "X",
				Reason: fmt.Sprintf("point %d has %d dimensions, expected %d", i, len(x), c.Config.Dim),
			}
		}
	}
	if len(c.BestPoint) != c.Config.Dim {
		return &ValidationError{
			Field:  "BestPoint",
			Reason: fmt.Sprintf("has %d dimensions, expected %d", len(c.BestPoint), c.Config.Dim),
		}
	}
	if c.Iteration < 0 {
		return &ValidationError{Field: "Iteration", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.Benchmark == "" {
		return &ValidationError{Field: "Config.Benchmark", Reason: "cannot be empty"}
	}
	if c.Config.Iters <= 0 {
		return &ValidationError{Field: "Config.Iters", Reason: "must be positive"}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks if this checkpoint can be resumed with the given
// config. The objective, dimensionality and modelling choices must all
// match, otherwise replaying the history would build a different surrogate.
func (c *Checkpoint) IsCompatible(config RunConfig) error {
	if c.Config.Benchmark != config.Benchmark {
		return &CompatibilityError{
			Field:    "Benchmark",
			Expected: c.Config.Benchmark,
			Actual:   config.Benchmark,
		}
	}
	if c.Config.Dim != config.Dim {
		return &CompatibilityError{
			Field:    "Dim",
			Expected: fmt.Sprintf("%d", c.Config.Dim),
			Actual:   fmt.Sprintf("%d", config.Dim),
		}
	}
	if c.Config.Kernel != config.Kernel {
		return &CompatibilityError{
			Field:    "Kernel",
			Expected: c.Config.Kernel,
			Actual:   config.Kernel,
		}
	}
	if c.Config.Criterion != config.Criterion {
		return &CompatibilityError{
			Field:    "Criterion",
			Expected: c.Config.Criterion,
			Actual:   config.Criterion,
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
