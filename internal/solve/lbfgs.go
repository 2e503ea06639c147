package solve

import (
	"fmt"
	"math"

	"github.com/cwbudde/bayopt/internal/domain"
	"github.com/cwbudde/bayopt/internal/objective"
)

// lbfgsParams bounds the work done by a single local ascent.
type lbfgsParams struct {
	maxIters int
	memory   int
	gradTol  float64
}

func defaultLBFGSParams() lbfgsParams {
	return lbfgsParams{
		maxIters: 100,
		memory:   10,
		gradTol:  1e-6,
	}
}

// ascend runs a bound-constrained local ascent of f from x0, framed as
// limited-memory BFGS descent on the negated objective with projection onto
// the box. It terminates at a stationary point or when the iteration budget
// is exhausted, whichever comes first, and returns the best point reached.
func ascend(f objective.Batch, dom domain.Domain, x0 []float64, p lbfgsParams) ([]float64, float64, error) {
	n := dom.Dim()
	x := dom.Clamp(x0)

	// Minimize g(x) = -f(x).
	fx, gx, err := evalNeg(f, x)
	if err != nil {
		return nil, 0, err
	}

	// L-BFGS curvature pairs, most recent last.
	var sHist, yHist [][]float64
	var rhoHist []float64

	for iter := 0; iter < p.maxIters; iter++ {
		if projGradNorm(dom, x, gx) < p.gradTol {
			break
		}

		dir := lbfgsDirection(gx, sHist, yHist, rhoHist)

		// Backtracking line search with projection onto the box. The Armijo
		// decrease is measured against the actual (projected) step.
		const (
			c1        = 1e-4
			shrink    = 0.5
			maxievals = 30
		)
		alpha := 1.0
		var xNew []float64
		var fNew float64
		var gNew []float64
		accepted := false

		for k := 0; k < maxievals; k++ {
			cand := make([]float64, n)
			for i := range cand {
				cand[i] = x[i] + alpha*dir[i]
			}
			cand = dom.Clamp(cand)

			step := 0.0
			for i := range cand {
				step += gx[i] * (cand[i] - x[i])
			}
			if step >= 0 {
				// Projected step is not a descent direction; fall back to
				// steepest descent once, then give up on this iterate.
				break
			}

			fc, gc, err := evalNeg(f, cand)
			if err != nil {
				return nil, 0, err
			}
			if fc <= fx+c1*step {
				xNew, fNew, gNew = cand, fc, gc
				accepted = true
				break
			}
			alpha *= shrink
		}

		if !accepted {
			if !isSteepest(dir, gx) {
				// Restart from steepest descent; stale curvature pairs can
				// produce poor directions near the boundary.
				sHist, yHist, rhoHist = nil, nil, nil
				continue
			}
			break
		}

		s := make([]float64, n)
		yv := make([]float64, n)
		sy := 0.0
		for i := range s {
			s[i] = xNew[i] - x[i]
			yv[i] = gNew[i] - gx[i]
			sy += s[i] * yv[i]
		}
		if sy > 1e-10 {
			sHist = append(sHist, s)
			yHist = append(yHist, yv)
			rhoHist = append(rhoHist, 1/sy)
			if len(sHist) > p.memory {
				sHist = sHist[1:]
				yHist = yHist[1:]
				rhoHist = rhoHist[1:]
			}
		}

		x, fx, gx = xNew, fNew, gNew
	}

	return x, -fx, nil
}

// evalNeg evaluates the negated objective and gradient at a single point.
func evalNeg(f objective.Batch, x []float64) (float64, []float64, error) {
	values, grads, err := f.EvaluateWithGrad([][]float64{x})
	if err != nil {
		return 0, nil, err
	}
	v := values[0]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, nil, &objective.EvalError{Point: x, Err: fmt.Errorf("non-finite objective value %g", v)}
	}

	g := make([]float64, len(x))
	for i, gi := range grads[0] {
		g[i] = -gi
	}
	return -v, g, nil
}

// projGradNorm measures stationarity for the box-constrained minimization:
// interior components count fully, components pinned at a bound count only
// if a feasible direction would still decrease the function.
func projGradNorm(dom domain.Domain, x, g []float64) float64 {
	norm := 0.0
	for i := range x {
		gi := g[i]
		switch {
		case x[i] <= dom[i].Lower:
			gi = math.Min(gi, 0)
		case x[i] >= dom[i].Upper:
			gi = math.Max(gi, 0)
		}
		norm = math.Max(norm, math.Abs(gi))
	}
	return norm
}

// lbfgsDirection computes the two-loop recursion search direction. With no
// stored curvature pairs it reduces to steepest descent.
func lbfgsDirection(g []float64, sHist, yHist [][]float64, rhoHist []float64) []float64 {
	n := len(g)
	q := make([]float64, n)
	for i := range q {
		q[i] = g[i]
	}

	m := len(sHist)
	alpha := make([]float64, m)
	for k := m - 1; k >= 0; k-- {
		a := rhoHist[k] * dot(sHist[k], q)
		alpha[k] = a
		for i := range q {
			q[i] -= a * yHist[k][i]
		}
	}

	// Initial Hessian scaling gamma = s'y / y'y from the latest pair.
	if m > 0 {
		last := m - 1
		yy := dot(yHist[last], yHist[last])
		if yy > 0 {
			gamma := dot(sHist[last], yHist[last]) / yy
			for i := range q {
				q[i] *= gamma
			}
		}
	}

	for k := 0; k < m; k++ {
		b := rhoHist[k] * dot(yHist[k], q)
		for i := range q {
			q[i] += (alpha[k] - b) * sHist[k][i]
		}
	}

	for i := range q {
		q[i] = -q[i]
	}
	return q
}

func isSteepest(dir, g []float64) bool {
	for i := range dir {
		if dir[i] != -g[i] {
			return false
		}
	}
	return true
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
