package gp

import (
	"fmt"

	"github.com/cwbudde/bayopt/internal/domain"
)

// Range is a uniform prior over a single hyperparameter.
type Range struct {
	Min float64
	Max float64
}

func (r Range) contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Prior is a box-uniform prior over the GP hyperparameters: observation
// noise, signal standard deviation and one length scale per dimension.
// Marginalized inference requires one; fixed inference ignores it.
type Prior struct {
	SN  Range
	SF  Range
	Ell []Range
}

// DefaultPrior mirrors pybo's testing prior: sn in [0.01, 1], sf in
// [0.01, 5] and each length scale in [0.01, 2 * width/10].
func DefaultPrior(dom domain.Domain) Prior {
	ell := make([]Range, dom.Dim())
	for i := range ell {
		ell[i] = Range{Min: 0.01, Max: 2 * dom.Width(i) / 10}
	}
	return Prior{
		SN:  Range{Min: 0.01, Max: 1},
		SF:  Range{Min: 0.01, Max: 5},
		Ell: ell,
	}
}

// Validate checks that every range is non-empty and positive.
func (p Prior) Validate(dim int) error {
	ranges := append([]Range{p.SN, p.SF}, p.Ell...)
	for i, r := range ranges {
		if r.Min <= 0 || r.Max <= r.Min {
			return fmt.Errorf("prior range %d is invalid: [%g, %g]", i, r.Min, r.Max)
		}
	}
	if len(p.Ell) != dim {
		return fmt.Errorf("prior has %d length-scale ranges, domain has %d dimensions", len(p.Ell), dim)
	}
	return nil
}

// contains reports whether a hyperparameter assignment lies inside the
// prior's support.
func (p Prior) contains(sn float64, hyp Hyper) bool {
	if !p.SN.contains(sn) || !p.SF.contains(hyp.SF) {
		return false
	}
	for i, ell := range hyp.Ell {
		if !p.Ell[i].contains(ell) {
			return false
		}
	}
	return true
}
