package domain

import (
	"fmt"
	"math"
)

// Interval is a closed [Lower, Upper] range for a single dimension.
type Interval struct {
	Lower float64
	Upper float64
}

// Domain is a box-bounded search space: one interval per dimension.
// A Domain is immutable once constructed; all points handled by the
// optimizer must lie within it.
type Domain []Interval

// BoundsError reports malformed bounds for a single dimension.
type BoundsError struct {
	Dim   int
	Lower float64
	Upper float64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("invalid bounds for dimension %d: lower %g must be less than upper %g", e.Dim, e.Lower, e.Upper)
}

// New creates a Domain from per-dimension intervals.
// Each interval must satisfy Lower < Upper and both endpoints must be finite.
func New(intervals ...Interval) (Domain, error) {
	if len(intervals) == 0 {
		return nil, fmt.Errorf("domain must have at least one dimension")
	}

	d := make(Domain, len(intervals))
	for i, iv := range intervals {
		if math.IsNaN(iv.Lower) || math.IsNaN(iv.Upper) ||
			math.IsInf(iv.Lower, 0) || math.IsInf(iv.Upper, 0) ||
			iv.Lower >= iv.Upper {
			return nil, &BoundsError{Dim: i, Lower: iv.Lower, Upper: iv.Upper}
		}
		d[i] = iv
	}
	return d, nil
}

// FromBounds creates a Domain from parallel lower/upper slices.
func FromBounds(lower, upper []float64) (Domain, error) {
	if len(lower) != len(upper) {
		return nil, fmt.Errorf("bounds length mismatch: %d lower vs %d upper", len(lower), len(upper))
	}

	intervals := make([]Interval, len(lower))
	for i := range lower {
		intervals[i] = Interval{Lower: lower[i], Upper: upper[i]}
	}
	return New(intervals...)
}

// Dim returns the dimensionality of the domain.
func (d Domain) Dim() int {
	return len(d)
}

// Width returns the extent of dimension i.
func (d Domain) Width(i int) float64 {
	return d[i].Upper - d[i].Lower
}

// Lower returns a copy of the per-dimension lower bounds.
func (d Domain) Lower() []float64 {
	lo := make([]float64, len(d))
	for i, iv := range d {
		lo[i] = iv.Lower
	}
	return lo
}

// Upper returns a copy of the per-dimension upper bounds.
func (d Domain) Upper() []float64 {
	up := make([]float64, len(d))
	for i, iv := range d {
		up[i] = iv.Upper
	}
	return up
}

// Center returns the midpoint of the box.
func (d Domain) Center() []float64 {
	c := make([]float64, len(d))
	for i, iv := range d {
		c[i] = iv.Lower + 0.5*(iv.Upper-iv.Lower)
	}
	return c
}

// Contains reports whether x lies within the box (bounds inclusive).
func (d Domain) Contains(x []float64) bool {
	if len(x) != len(d) {
		return false
	}
	for i, v := range x {
		if v < d[i].Lower || v > d[i].Upper {
			return false
		}
	}
	return true
}

// Clamp returns a copy of x projected onto the box.
func (d Domain) Clamp(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Max(d[i].Lower, math.Min(d[i].Upper, v))
	}
	return out
}
