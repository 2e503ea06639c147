package policy

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines parameters for detecting optimization convergence
type ConvergenceConfig struct {
	// Enabled controls whether convergence detection is active
	Enabled bool

	// Patience is the number of iterations with no improvement before stopping
	Patience int

	// Threshold is the minimum absolute improvement of the best observed
	// value required to count as progress
	Threshold float64
}

// DefaultConvergenceConfig returns sensible defaults for convergence detection
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  10,
		Threshold: 1e-6,
	}
}

// DisabledConvergenceConfig returns a config with convergence detection disabled
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled: false,
	}
}

// ConvergenceTracker tracks the best observed value and detects when the
// optimization has stalled
type ConvergenceTracker struct {
	config          ConvergenceConfig
	history         []float64
	bestValue       float64
	lastSignificant float64
	staleCount      int
}

// NewConvergenceTracker creates a new convergence tracker with the given config
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		history:         []float64{},
		bestValue:       math.Inf(-1),
		lastSignificant: math.Inf(-1),
	}
}

// Update records a new observed value and returns true if convergence is detected
func (c *ConvergenceTracker) Update(value float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, value)

	if value > c.bestValue {
		c.bestValue = value
	}

	// First value - initialize lastSignificant
	if len(c.history) == 1 {
		c.lastSignificant = value
		return false
	}

	improvement := c.bestValue - c.lastSignificant

	if improvement >= c.config.Threshold {
		c.lastSignificant = c.bestValue
		c.staleCount = 0
		slog.Debug("Improvement detected",
			"value", value,
			"best_value", c.bestValue,
			"improvement", improvement,
		)
	} else {
		c.staleCount++
		slog.Debug("No significant improvement",
			"value", value,
			"best_value", c.bestValue,
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
		)

		if c.staleCount >= c.config.Patience {
			slog.Info("Convergence detected - stopping early",
				"stale_count", c.staleCount,
				"patience", c.config.Patience,
				"best_value", c.bestValue,
			)
			return true
		}
	}

	return false
}

// BestValue returns the best value seen so far
func (c *ConvergenceTracker) BestValue() float64 {
	return c.bestValue
}

// History returns the recorded values in order
func (c *ConvergenceTracker) History() []float64 {
	out := make([]float64, len(c.history))
	copy(out, c.history)
	return out
}
