package gp

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/bayopt/internal/domain"
)

// GP is a zero-mean Gaussian process regressor with Gaussian observation
// noise and exact inference. It is safe for concurrent use: Add takes the
// write lock, Posterior and Data take the read lock.
type GP struct {
	mu    sync.RWMutex
	kern  Kernel
	hyp   Hyper
	noise float64

	x [][]float64
	y []float64

	// Cached Cholesky factorization of K + sn^2 I and the weight vector
	// alpha = (K + sn^2 I)^-1 y. Invalidated by Add.
	chol  *mat.Cholesky
	alpha *mat.VecDense
}

// New creates a GP with explicit kernel and hyperparameters.
func New(kern Kernel, hyp Hyper, noise float64) *GP {
	return &GP{
		kern:  kern,
		hyp:   hyp.clone(),
		noise: noise,
	}
}

// NewDefault creates a GP with pybo-style initial hyperparameters: unit
// signal variance and length scales set to a tenth of each dimension's
// extent.
func NewDefault(kernelName string, dom domain.Domain, noise float64) (*GP, error) {
	kern, err := LookupKernel(kernelName)
	if err != nil {
		return nil, err
	}

	ell := make([]float64, dom.Dim())
	for i := range ell {
		ell[i] = dom.Width(i) / 10
	}
	return New(kern, Hyper{SF: 1, Ell: ell}, noise), nil
}

// Kernel returns the kernel in use.
func (g *GP) Kernel() Kernel { return g.kern }

// Noise returns the observation noise standard deviation.
func (g *GP) Noise() float64 { return g.noise }

// Add appends one observation. The factorization is rebuilt lazily on the
// next posterior query.
func (g *GP) Add(x []float64, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	xc := make([]float64, len(x))
	copy(xc, x)
	g.x = append(g.x, xc)
	g.y = append(g.y, y)
	g.chol = nil
	g.alpha = nil
}

// Data returns copies of the observed points and values in call order.
func (g *GP) Data() ([][]float64, []float64) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	x := make([][]float64, len(g.x))
	for i, xi := range g.x {
		x[i] = make([]float64, len(xi))
		copy(x[i], xi)
	}
	y := make([]float64, len(g.y))
	copy(y, g.y)
	return x, y
}

// Posterior computes the posterior mean and variance at each query point.
// With no observations the posterior is the prior: zero mean, sf^2 + sn^2
// variance and zero gradients.
func (g *GP) Posterior(points [][]float64, wantGrad bool) (Posterior, error) {
	// Write lock: the first query after Add rebuilds the cached
	// factorization.
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.posteriorLocked(points, wantGrad)
}

func (g *GP) posteriorLocked(points [][]float64, wantGrad bool) (Posterior, error) {
	n := len(g.x)
	post := Posterior{
		Mean:     make([]float64, len(points)),
		Variance: make([]float64, len(points)),
	}
	if wantGrad {
		post.MeanGrad = make([][]float64, len(points))
		post.VarGrad = make([][]float64, len(points))
	}

	if n == 0 {
		priorVar := g.hyp.SF*g.hyp.SF + g.noise*g.noise
		for i, p := range points {
			post.Variance[i] = priorVar
			if wantGrad {
				post.MeanGrad[i] = make([]float64, len(p))
				post.VarGrad[i] = make([]float64, len(p))
			}
		}
		return post, nil
	}

	if err := g.factorizeLocked(); err != nil {
		return Posterior{}, err
	}

	k := mat.NewVecDense(n, nil)
	v := mat.NewVecDense(n, nil)

	for i, p := range points {
		for j, xj := range g.x {
			k.SetVec(j, g.kern.Eval(g.hyp, p, xj))
		}

		mean := mat.Dot(k, g.alpha)

		// v = (K + sn^2 I)^-1 k(p, X)
		if err := g.chol.SolveVecTo(v, k); err != nil {
			return Posterior{}, fmt.Errorf("posterior solve failed: %w", err)
		}

		variance := g.kern.Eval(g.hyp, p, p) - mat.Dot(k, v)
		if variance < 1e-12 {
			variance = 1e-12
		}

		post.Mean[i] = mean
		post.Variance[i] = variance

		if wantGrad {
			meanGrad := make([]float64, len(p))
			varGrad := make([]float64, len(p))
			for j, xj := range g.x {
				kg := g.kern.Grad(g.hyp, p, xj)
				aj := g.alpha.AtVec(j)
				vj := v.AtVec(j)
				for d := range p {
					meanGrad[d] += aj * kg[d]
					varGrad[d] -= 2 * vj * kg[d]
				}
			}
			post.MeanGrad[i] = meanGrad
			post.VarGrad[i] = varGrad
		}
	}
	return post, nil
}

// LogMarginal returns the log marginal likelihood of the observed data
// under the current hyperparameters. Used by the marginalized surrogate to
// weight hyperparameter samples.
func (g *GP) LogMarginal() (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.x)
	if n == 0 {
		return 0, nil
	}
	if err := g.factorizeLocked(); err != nil {
		return 0, err
	}

	yv := mat.NewVecDense(n, nil)
	for i, yi := range g.y {
		yv.SetVec(i, yi)
	}

	fit := mat.Dot(yv, g.alpha)
	logDet := g.chol.LogDet()
	return -0.5*fit - 0.5*logDet - 0.5*float64(n)*math.Log(2*math.Pi), nil
}

// factorizeLocked rebuilds the Cholesky factorization and alpha if stale.
// Callers must hold the write lock.
func (g *GP) factorizeLocked() error {
	if g.chol != nil {
		return nil
	}

	n := len(g.x)
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := g.kern.Eval(g.hyp, g.x[i], g.x[j])
			if i == j {
				v += g.noise * g.noise
			}
			cov.SetSym(i, j, v)
		}
	}

	// Escalating jitter guards against nearly-duplicate observations making
	// the covariance numerically singular.
	var chol mat.Cholesky
	jitter := 0.0
	for {
		work := mat.NewSymDense(n, nil)
		work.CopySym(cov)
		if jitter > 0 {
			for i := 0; i < n; i++ {
				work.SetSym(i, i, work.At(i, i)+jitter)
			}
		}
		if chol.Factorize(work) {
			break
		}
		if jitter == 0 {
			jitter = 1e-10
		} else {
			jitter *= 100
		}
		if jitter > 1e-4 {
			return fmt.Errorf("covariance matrix is not positive definite for %d observations", n)
		}
	}

	yv := mat.NewVecDense(n, nil)
	for i, yi := range g.y {
		yv.SetVec(i, yi)
	}
	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, yv); err != nil {
		return fmt.Errorf("weight solve failed: %w", err)
	}

	g.chol = &chol
	g.alpha = alpha
	return nil
}

// withHyper returns a GP sharing this model's data but using different
// hyperparameters and noise. The data slices are shared read-only.
func (g *GP) withHyper(hyp Hyper, noise float64) *GP {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return &GP{
		kern:  g.kern,
		hyp:   hyp.clone(),
		noise: noise,
		x:     g.x,
		y:     g.y,
	}
}
