package pca

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrShape = errors.New("pca: shape mismatch")

// Basis reconstructs a log mass function curve from standardized principal
// component weights.
type Basis struct {
	mean      []float64  // Mean log curve [nBins].
	transform *mat.Dense // Principal components [nPC, nBins].
	wMean     []float64  // Weight de-standardization mean [nPC].
	wStd      []float64  // Weight de-standardization std [nPC].
}

// New builds a basis from a stacked array whose row 0 is the mean curve and
// whose remaining rows are the principal components.
func New(meanTransform mat.Matrix, wMean, wStd []float64) (*Basis, error) {
	r, c := meanTransform.Dims()
	if r < 2 {
		return nil, fmt.Errorf("%w: need a mean row and at least one component, got %d rows", ErrShape, r)
	}
	nPC := r - 1
	if len(wMean) != nPC || len(wStd) != nPC {
		return nil, fmt.Errorf("%w: %d components but %d means and %d stds", ErrShape, nPC, len(wMean), len(wStd))
	}
	full := mat.DenseCopyOf(meanTransform)
	return &Basis{
		mean:      mat.Row(nil, 0, full),
		transform: full.Slice(1, r, 0, c).(*mat.Dense),
		wMean:     append([]float64(nil), wMean...),
		wStd:      append([]float64(nil), wStd...),
	}, nil
}

// Number of principal components.
func (b *Basis) Components() int {
	return len(b.wMean)
}

// Number of mass bins of the reconstructed curve.
func (b *Basis) Bins() int {
	return len(b.mean)
}

// LogCurve returns log(dn/dlnM) for standardized weights w.
func (b *Basis) LogCurve(w []float64) []float64 {
	if len(w) != b.Components() {
		panic(ErrShape)
	}
	// pc = w * std + mean
	pc := make([]float64, len(w))
	floats.MulTo(pc, w, b.wStd)
	floats.Add(pc, b.wMean)

	// log_hmf = dot(pc, transform) + mean_curve
	out := mat.NewVecDense(b.Bins(), nil)
	out.MulVec(b.transform.T(), mat.NewVecDense(len(pc), pc))
	res := out.RawVector().Data
	floats.Add(res, b.mean)
	return res
}

// Curve returns dn/dlnM for standardized weights w.
func (b *Basis) Curve(w []float64) []float64 {
	out := b.LogCurve(w)
	for i, v := range out {
		out[i] = math.Exp(v)
	}
	return out
}
