package gp

// Posterior holds the posterior statistics of a surrogate at a batch of
// points. MeanGrad and VarGrad are populated only when gradients were
// requested.
type Posterior struct {
	Mean     []float64
	Variance []float64
	MeanGrad [][]float64
	VarGrad  [][]float64
}

// Surrogate is the narrow view of the probabilistic model exposed to the
// rest of the system. Only the optimization policy may call Add; the
// maximizer and the acquisition criteria read through Posterior and Data.
type Surrogate interface {
	// Add appends one observation. Observations accumulate monotonically
	// and are never removed or reordered.
	Add(x []float64, y float64)

	// Posterior returns mean and variance (and, when wantGrad is set, their
	// gradients) at each query point.
	Posterior(points [][]float64, wantGrad bool) (Posterior, error)

	// Data returns copies of the observed points and values, in
	// observation order.
	Data() ([][]float64, []float64)
}
