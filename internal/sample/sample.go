// Package sample provides point samplers used to seed the global maximizer
// with candidate points from a box-bounded domain.
package sample

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/bayopt/internal/domain"
)

// Sampler produces a batch of points inside a domain. Implementations must
// be deterministic for a given rng state.
type Sampler interface {
	Sample(dom domain.Domain, count int, rng *rand.Rand) ([][]float64, error)
}

// Uniform draws points independently and uniformly from the box.
type Uniform struct{}

// Sample draws count uniform points from dom.
func (Uniform) Sample(dom domain.Domain, count int, rng *rand.Rand) ([][]float64, error) {
	if err := check(dom, count); err != nil {
		return nil, err
	}

	points := make([][]float64, count)
	for i := range points {
		p := make([]float64, dom.Dim())
		for j := range p {
			p[j] = dom[j].Lower + rng.Float64()*dom.Width(j)
		}
		points[i] = p
	}
	return points, nil
}

// LatinHypercube draws a Latin hypercube sample: each dimension is divided
// into count strata and every stratum is hit exactly once, giving better
// space coverage than independent uniform draws.
type LatinHypercube struct{}

// Sample draws a count-point Latin hypercube sample from dom.
func (LatinHypercube) Sample(dom domain.Domain, count int, rng *rand.Rand) ([][]float64, error) {
	if err := check(dom, count); err != nil {
		return nil, err
	}

	points := make([][]float64, count)
	for i := range points {
		points[i] = make([]float64, dom.Dim())
	}

	for j := 0; j < dom.Dim(); j++ {
		perm := rng.Perm(count)
		for i := 0; i < count; i++ {
			u := (float64(perm[i]) + rng.Float64()) / float64(count)
			points[i][j] = dom[j].Lower + u*dom.Width(j)
		}
	}
	return points, nil
}

func check(dom domain.Domain, count int) error {
	if dom.Dim() == 0 {
		return fmt.Errorf("cannot sample from an empty domain")
	}
	if count <= 0 {
		return fmt.Errorf("sample count must be positive, got %d", count)
	}
	return nil
}
