package gp

import (
	"math"
	"math/rand"
	"sync"
)

const (
	marginalBurnIn = 20
	marginalThin   = 5
	proposalStep   = 0.1
)

// Marginal approximates fully Bayesian inference by averaging the GP
// posterior over hyperparameter samples drawn from their posterior with a
// Metropolis random walk in log space. The resulting posterior is a
// mixture: means average directly, variances pick up the spread between
// component means.
type Marginal struct {
	mu      sync.Mutex
	base    *GP
	prior   Prior
	samples int
	rng     *rand.Rand

	// Component GPs, rebuilt lazily after each Add.
	components []*GP
}

// NewMarginal wraps a base GP with hyperparameter marginalization. The
// sample count selects how many posterior hyperparameter draws are
// averaged (pybo uses 10).
func NewMarginal(base *GP, prior Prior, samples int, seed int64) *Marginal {
	if samples < 1 {
		samples = 10
	}
	return &Marginal{
		base:    base,
		prior:   prior,
		samples: samples,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Add appends one observation and invalidates the hyperparameter samples.
func (m *Marginal) Add(x []float64, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.base.Add(x, y)
	m.components = nil
}

// Data returns the observed points and values.
func (m *Marginal) Data() ([][]float64, []float64) {
	return m.base.Data()
}

// Posterior averages the component posteriors. With no observations it
// falls through to the base GP prior.
func (m *Marginal) Posterior(points [][]float64, wantGrad bool) (Posterior, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if x, _ := m.base.Data(); len(x) == 0 {
		return m.base.Posterior(points, wantGrad)
	}

	if m.components == nil {
		if err := m.resample(); err != nil {
			return Posterior{}, err
		}
	}

	posts := make([]Posterior, len(m.components))
	for i, c := range m.components {
		p, err := c.Posterior(points, wantGrad)
		if err != nil {
			return Posterior{}, err
		}
		posts[i] = p
	}
	return mixture(posts, points, wantGrad), nil
}

// resample runs a Metropolis random walk over log-hyperparameters with the
// log marginal likelihood plus the (uniform) log prior as target and keeps
// thinned samples after burn-in.
func (m *Marginal) resample() error {
	dim := len(m.base.hyp.Ell)

	// State: log sn, log sf, log ell_1..d.
	state := make([]float64, 2+dim)
	state[0] = math.Log(clampToRange(m.base.noise, m.prior.SN))
	state[1] = math.Log(clampToRange(m.base.hyp.SF, m.prior.SF))
	for i, ell := range m.base.hyp.Ell {
		state[2+i] = math.Log(clampToRange(ell, m.prior.Ell[i]))
	}

	logp, err := m.logTarget(state)
	if err != nil {
		return err
	}

	var kept []*GP
	proposal := make([]float64, len(state))

	for step := 0; len(kept) < m.samples; step++ {
		for i := range proposal {
			proposal[i] = state[i] + proposalStep*m.rng.NormFloat64()
		}

		sn, hyp := decodeState(proposal)
		if m.prior.contains(sn, hyp) {
			cand, err := m.logTarget(proposal)
			if err != nil {
				return err
			}
			if cand >= logp || m.rng.Float64() < math.Exp(cand-logp) {
				copy(state, proposal)
				logp = cand
			}
		}

		if step >= marginalBurnIn && step%marginalThin == 0 {
			sn, hyp := decodeState(state)
			kept = append(kept, m.base.withHyper(hyp, sn))
		}
	}

	m.components = kept
	return nil
}

// logTarget is the unnormalized log posterior of the hyperparameters: the
// log marginal likelihood (the uniform prior contributes a constant inside
// its support).
func (m *Marginal) logTarget(state []float64) (float64, error) {
	sn, hyp := decodeState(state)
	return m.base.withHyper(hyp, sn).LogMarginal()
}

func decodeState(state []float64) (float64, Hyper) {
	sn := math.Exp(state[0])
	hyp := Hyper{SF: math.Exp(state[1]), Ell: make([]float64, len(state)-2)}
	for i := range hyp.Ell {
		hyp.Ell[i] = math.Exp(state[2+i])
	}
	return sn, hyp
}

func clampToRange(v float64, r Range) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

// mixture combines component posteriors: the mean is the average of the
// component means; the variance is the average second moment minus the
// squared mixture mean.
func mixture(posts []Posterior, points [][]float64, wantGrad bool) Posterior {
	n := len(points)
	k := float64(len(posts))

	out := Posterior{
		Mean:     make([]float64, n),
		Variance: make([]float64, n),
	}
	if wantGrad {
		out.MeanGrad = make([][]float64, n)
		out.VarGrad = make([][]float64, n)
		for i, p := range points {
			out.MeanGrad[i] = make([]float64, len(p))
			out.VarGrad[i] = make([]float64, len(p))
		}
	}

	for i := range points {
		for _, p := range posts {
			out.Mean[i] += p.Mean[i] / k
			out.Variance[i] += (p.Variance[i] + p.Mean[i]*p.Mean[i]) / k
		}
		out.Variance[i] -= out.Mean[i] * out.Mean[i]
		if out.Variance[i] < 1e-12 {
			out.Variance[i] = 1e-12
		}
	}

	if wantGrad {
		for i, pt := range points {
			for _, p := range posts {
				for d := range pt {
					out.MeanGrad[i][d] += p.MeanGrad[i][d] / k
					out.VarGrad[i][d] += (p.VarGrad[i][d] + 2*p.Mean[i]*p.MeanGrad[i][d]) / k
				}
			}
			for d := range pt {
				out.VarGrad[i][d] -= 2 * out.Mean[i] * out.MeanGrad[i][d]
			}
		}
	}
	return out
}
