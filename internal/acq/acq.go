// Package acq implements acquisition criteria: scalar indices over the
// surrogate posterior expressing the utility of sampling a point next.
// Every index supports the batch objective convention with gradients, so
// the global maximizer can polish it directly.
package acq

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/bayopt/internal/gp"
	"github.com/cwbudde/bayopt/internal/objective"
)

// Params carries the tunables shared by the criteria.
type Params struct {
	// Xi is the minimum-improvement margin used by EI and PI.
	Xi float64

	// Beta is the exploration weight used by UCB.
	Beta float64

	// Seed drives Thompson sampling. The per-build RNG is derived from
	// Seed plus the observation count, so the index is stable between
	// observations.
	Seed int64
}

// Criterion builds an index function from the surrogate's current state.
// Criteria only read the model; they never mutate it.
type Criterion interface {
	Index(m gp.Surrogate) objective.Batch
}

// bestObserved returns the maximization target: the largest observed value,
// or the prior mean (zero) before any data exists so that cold-start
// proposals remain well defined.
func bestObserved(m gp.Surrogate) float64 {
	_, y := m.Data()
	if len(y) == 0 {
		return 0
	}
	best := y[0]
	for _, v := range y[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

const sigmaFloor = 1e-10

// stdNormal is shared by EI and PI.
var stdNormal = distuv.UnitNormal

// EI is the expected improvement criterion.
type EI struct {
	Xi float64
}

// Index builds the EI surface for the model's current posterior.
func (c EI) Index(m gp.Surrogate) objective.Batch {
	return &eiIndex{model: m, xi: c.Xi, target: bestObserved(m)}
}

type eiIndex struct {
	model  gp.Surrogate
	xi     float64
	target float64
}

func (idx *eiIndex) Evaluate(points [][]float64) ([]float64, error) {
	post, err := idx.model.Posterior(points, false)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(points))
	for i := range points {
		imp := post.Mean[i] - idx.target - idx.xi
		sigma := math.Sqrt(post.Variance[i])
		if sigma <= sigmaFloor {
			values[i] = math.Max(imp, 0)
			continue
		}
		z := imp / sigma
		values[i] = imp*stdNormal.CDF(z) + sigma*stdNormal.Prob(z)
	}
	return values, nil
}

func (idx *eiIndex) EvaluateWithGrad(points [][]float64) ([]float64, [][]float64, error) {
	post, err := idx.model.Posterior(points, true)
	if err != nil {
		return nil, nil, err
	}

	values := make([]float64, len(points))
	grads := make([][]float64, len(points))
	for i, p := range points {
		imp := post.Mean[i] - idx.target - idx.xi
		sigma := math.Sqrt(post.Variance[i])
		g := make([]float64, len(p))

		if sigma <= sigmaFloor {
			values[i] = math.Max(imp, 0)
			if imp > 0 {
				copy(g, post.MeanGrad[i])
			}
			grads[i] = g
			continue
		}

		z := imp / sigma
		cdf := stdNormal.CDF(z)
		pdf := stdNormal.Prob(z)
		values[i] = imp*cdf + sigma*pdf

		// dEI/dmu = CDF(z), dEI/dsigma = PDF(z).
		for d := range p {
			sigmaGrad := post.VarGrad[i][d] / (2 * sigma)
			g[d] = cdf*post.MeanGrad[i][d] + pdf*sigmaGrad
		}
		grads[i] = g
	}
	return values, grads, nil
}

// PI is the probability-of-improvement criterion.
type PI struct {
	Xi float64
}

// Index builds the PI surface for the model's current posterior.
func (c PI) Index(m gp.Surrogate) objective.Batch {
	return &piIndex{model: m, xi: c.Xi, target: bestObserved(m)}
}

type piIndex struct {
	model  gp.Surrogate
	xi     float64
	target float64
}

func (idx *piIndex) Evaluate(points [][]float64) ([]float64, error) {
	post, err := idx.model.Posterior(points, false)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(points))
	for i := range points {
		imp := post.Mean[i] - idx.target - idx.xi
		sigma := math.Sqrt(post.Variance[i])
		if sigma <= sigmaFloor {
			if imp > 0 {
				values[i] = 1
			}
			continue
		}
		values[i] = stdNormal.CDF(imp / sigma)
	}
	return values, nil
}

func (idx *piIndex) EvaluateWithGrad(points [][]float64) ([]float64, [][]float64, error) {
	post, err := idx.model.Posterior(points, true)
	if err != nil {
		return nil, nil, err
	}

	values := make([]float64, len(points))
	grads := make([][]float64, len(points))
	for i, p := range points {
		imp := post.Mean[i] - idx.target - idx.xi
		sigma := math.Sqrt(post.Variance[i])
		g := make([]float64, len(p))

		if sigma <= sigmaFloor {
			if imp > 0 {
				values[i] = 1
			}
			grads[i] = g
			continue
		}

		z := imp / sigma
		values[i] = stdNormal.CDF(z)
		pdf := stdNormal.Prob(z)
		for d := range p {
			sigmaGrad := post.VarGrad[i][d] / (2 * sigma)
			g[d] = pdf * (post.MeanGrad[i][d]*sigma - imp*sigmaGrad) / (sigma * sigma)
		}
		grads[i] = g
	}
	return values, grads, nil
}

// UCB is the upper confidence bound criterion, oriented for maximization:
// mean plus beta times the posterior standard deviation.
type UCB struct {
	Beta float64
}

// Index builds the UCB surface for the model's current posterior.
func (c UCB) Index(m gp.Surrogate) objective.Batch {
	return &ucbIndex{model: m, beta: c.Beta}
}

type ucbIndex struct {
	model gp.Surrogate
	beta  float64
}

func (idx *ucbIndex) Evaluate(points [][]float64) ([]float64, error) {
	post, err := idx.model.Posterior(points, false)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(points))
	for i := range points {
		values[i] = post.Mean[i] + idx.beta*math.Sqrt(post.Variance[i])
	}
	return values, nil
}

func (idx *ucbIndex) EvaluateWithGrad(points [][]float64) ([]float64, [][]float64, error) {
	post, err := idx.model.Posterior(points, true)
	if err != nil {
		return nil, nil, err
	}

	values := make([]float64, len(points))
	grads := make([][]float64, len(points))
	for i, p := range points {
		sigma := math.Sqrt(post.Variance[i])
		values[i] = post.Mean[i] + idx.beta*sigma
		g := make([]float64, len(p))
		for d := range p {
			g[d] = post.MeanGrad[i][d]
			if sigma > sigmaFloor {
				g[d] += idx.beta * post.VarGrad[i][d] / (2 * sigma)
			}
		}
		grads[i] = g
	}
	return values, grads, nil
}

// Thompson approximates posterior sampling with a single random confidence
// coefficient per index build: mean plus w times the standard deviation,
// w ~ N(0, 1). The coefficient is deterministic for a given seed and
// observation count, so proposals repeat until new data arrives.
type Thompson struct {
	Seed int64
}

// Index draws the coefficient and builds the sampled surface.
func (c Thompson) Index(m gp.Surrogate) objective.Batch {
	_, y := m.Data()
	rng := rand.New(rand.NewSource(c.Seed + int64(len(y))))
	return &ucbIndex{model: m, beta: rng.NormFloat64()}
}
