// Package gp implements the Gaussian process surrogate model: kernels,
// exact inference through a Cholesky factorization, and hyperparameter
// marginalization for approximate Bayesian inference.
package gp

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Hyper holds kernel hyperparameters: signal standard deviation and one
// length scale per input dimension.
type Hyper struct {
	SF  float64
	Ell []float64
}

func (h Hyper) clone() Hyper {
	ell := make([]float64, len(h.Ell))
	copy(ell, h.Ell)
	return Hyper{SF: h.SF, Ell: ell}
}

// Kernel is a covariance function between input points.
type Kernel interface {
	// Eval returns k(a, b) under the given hyperparameters.
	Eval(hp Hyper, a, b []float64) float64

	// Grad returns the gradient of k(a, b) with respect to a.
	Grad(hp Hyper, a, b []float64) []float64

	// Name is the registry name of the kernel.
	Name() string
}

// SE is the squared-exponential (RBF) kernel.
type SE struct{}

func (SE) Name() string { return "se" }

func (SE) Eval(hp Hyper, a, b []float64) float64 {
	return hp.SF * hp.SF * math.Exp(-0.5*scaledSqDist(hp, a, b))
}

func (k SE) Grad(hp Hyper, a, b []float64) []float64 {
	v := k.Eval(hp, a, b)
	g := make([]float64, len(a))
	for i := range a {
		g[i] = -v * (a[i] - b[i]) / (hp.Ell[i] * hp.Ell[i])
	}
	return g
}

// Matern3 is the Matern kernel with smoothness 3/2.
type Matern3 struct{}

func (Matern3) Name() string { return "matern3" }

func (Matern3) Eval(hp Hyper, a, b []float64) float64 {
	r := math.Sqrt(scaledSqDist(hp, a, b))
	s := math.Sqrt(3) * r
	return hp.SF * hp.SF * (1 + s) * math.Exp(-s)
}

func (Matern3) Grad(hp Hyper, a, b []float64) []float64 {
	r := math.Sqrt(scaledSqDist(hp, a, b))
	s := math.Sqrt(3) * r
	// dk/dr collapses so that the scaled difference factors out; no
	// singularity at r = 0.
	c := -3 * hp.SF * hp.SF * math.Exp(-s)
	g := make([]float64, len(a))
	for i := range a {
		g[i] = c * (a[i] - b[i]) / (hp.Ell[i] * hp.Ell[i])
	}
	return g
}

// Matern5 is the Matern kernel with smoothness 5/2.
type Matern5 struct{}

func (Matern5) Name() string { return "matern5" }

func (Matern5) Eval(hp Hyper, a, b []float64) float64 {
	r := math.Sqrt(scaledSqDist(hp, a, b))
	s := math.Sqrt(5) * r
	return hp.SF * hp.SF * (1 + s + s*s/3) * math.Exp(-s)
}

func (Matern5) Grad(hp Hyper, a, b []float64) []float64 {
	r := math.Sqrt(scaledSqDist(hp, a, b))
	s := math.Sqrt(5) * r
	c := -(5.0 / 3.0) * hp.SF * hp.SF * (1 + s) * math.Exp(-s)
	g := make([]float64, len(a))
	for i := range a {
		g[i] = c * (a[i] - b[i]) / (hp.Ell[i] * hp.Ell[i])
	}
	return g
}

func scaledSqDist(hp Hyper, a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := (a[i] - b[i]) / hp.Ell[i]
		s += d * d
	}
	return s
}

// kernels maps normalized kernel names to implementations.
var kernels = map[string]Kernel{
	"se":      SE{},
	"matern3": Matern3{},
	"matern5": Matern5{},
}

// LookupKernel resolves a kernel name, case-insensitively. Unknown names
// fail immediately with the list of known kernels.
func LookupKernel(name string) (Kernel, error) {
	k, ok := kernels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown kernel %q (known: %s)", name, strings.Join(KernelNames(), ", "))
	}
	return k, nil
}

// KernelNames returns the registered kernel names, sorted.
func KernelNames() []string {
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
