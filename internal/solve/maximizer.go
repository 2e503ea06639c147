// Package solve provides global maximizers for scalar functions over
// box-bounded domains, plus the registry that maps solver names to
// constructors.
package solve

import (
	"fmt"

	"github.com/cwbudde/bayopt/internal/domain"
	"github.com/cwbudde/bayopt/internal/objective"
)

// Result pairs a maximizer location with its achieved value.
type Result struct {
	Point []float64
	Value float64
}

// Maximizer finds an approximate global maximum of f over dom.
// The returned point always lies within dom; the value is the best found,
// not a guarantee of global optimality.
type Maximizer interface {
	Maximize(f objective.Batch, dom domain.Domain) (Result, error)
}

// SeededMaximizer is implemented by maximizers that can start from caller
// supplied seed points instead of a random grid.
type SeededMaximizer interface {
	Maximizer
	MaximizeFrom(f objective.Batch, dom domain.Domain, seeds [][]float64) (Result, error)
}

// DegenerateError reports an input that makes maximization meaningless.
// It is raised before any objective evaluation.
type DegenerateError struct {
	What  string
	Value int
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("degenerate maximizer input: %s = %d", e.What, e.Value)
}
