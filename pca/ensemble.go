package pca

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
)

var ErrNoFiniteDraws = errors.New("pca: no finite posterior draws")

// Ensemble summarizes mass function curves drawn from the posterior of the
// principal component weights.
type Ensemble struct {
	Mean      []float64  // Mean curve of the finite draws.
	RelStd    []float64  // Standard deviation of draw/Mean, per bin.
	Draws     *mat.Dense // Finite draws [Kept, nBins]; nil unless requested.
	Kept      int
	Discarded int
}

// Ensemble draws n weight vectors from N(mean, cov), reconstructs their
// curves and summarizes those without NaN or Inf values. Non-finite draws
// are dropped silently; if none survive, ErrNoFiniteDraws is returned.
func (b *Basis) Ensemble(mean []float64, cov mat.Symmetric, n int, keep bool, src rand.Source) (*Ensemble, error) {
	if len(mean) != b.Components() || cov.SymmetricDim() != len(mean) {
		return nil, fmt.Errorf("%w: %d components, mean of length %d, covariance of size %d",
			ErrShape, b.Components(), len(mean), cov.SymmetricDim())
	}
	if n <= 0 {
		return nil, fmt.Errorf("pca: draw count must be positive, got %d", n)
	}
	sample, err := newSampler(mean, cov, src)
	if err != nil {
		return nil, err
	}

	curves := make([][]float64, 0, n)
	w := make([]float64, len(mean))
	discarded := 0
	for i := 0; i < n; i++ {
		sample(w)
		c := b.Curve(w)
		if !allFinite(c) {
			discarded++
			continue
		}
		curves = append(curves, c)
	}
	if len(curves) == 0 {
		return nil, fmt.Errorf("%w: all %d draws discarded", ErrNoFiniteDraws, n)
	}

	nBins := b.Bins()
	e := &Ensemble{
		Mean:      make([]float64, nBins),
		RelStd:    make([]float64, nBins),
		Kept:      len(curves),
		Discarded: discarded,
	}
	col := make([]float64, len(curves))
	for j := 0; j < nBins; j++ {
		for i, c := range curves {
			col[i] = c[j]
		}
		e.Mean[j] = stat.Mean(col, nil)
		// std(draws / mean) over the draws (population std, like numpy).
		for i := range col {
			col[i] /= e.Mean[j]
		}
		_, e.RelStd[j] = stat.PopMeanStdDev(col, nil)
	}
	if keep {
		e.Draws = mat.NewDense(len(curves), nBins, nil)
		for i, c := range curves {
			e.Draws.SetRow(i, c)
		}
	}
	return e, nil
}

// newSampler returns a function filling dst with one draw of N(mean, cov).
// Covariances that are only positive semi-definite are sampled through
// their eigen-decomposition, with negative eigenvalues clipped to zero.
func newSampler(mean []float64, cov mat.Symmetric, src rand.Source) (func(dst []float64), error) {
	if normal, ok := distmv.NewNormal(mean, cov, src); ok {
		return func(dst []float64) {
			normal.Rand(dst)
		}, nil
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, fmt.Errorf("pca: eigen-decomposition of posterior covariance failed")
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	// L = V * diag(sqrt(max(lambda, 0)))
	vals := eig.Values(nil)
	for k, v := range vals {
		vals[k] = math.Sqrt(math.Max(v, 0))
	}
	var l mat.Dense
	l.Mul(&vecs, mat.NewDiagDense(len(vals), vals))

	rnd := rand.New(src)
	z := mat.NewVecDense(len(mean), nil)
	return func(dst []float64) {
		for k := 0; k < z.Len(); k++ {
			z.SetVec(k, rnd.NormFloat64())
		}
		// x = mean + dot(L, z)
		x := mat.NewVecDense(len(dst), dst)
		x.MulVec(&l, z)
		for k := range dst {
			dst[k] += mean[k]
		}
	}, nil
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
