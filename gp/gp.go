package gp

import (
	"errors"
	"fmt"
	"math"

	"github.com/SebastianBocquet/MiraTitanHMFemulator/kern"
	"github.com/SebastianBocquet/MiraTitanHMFemulator/utils"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

var ErrDimensionMismatch = errors.New("dimension mismatch")
var ErrDegenerateCovariance = errors.New("covariance matrix is not positive definite")

// Regressor is a multi-output kriging model with independent output
// channels and a joint data-noise covariance. All fields are written once
// in New, so Predict may be called concurrently.
type Regressor struct {
	kernel *kern.Block
	x      *mat.Dense // Design points [nData, nDim].
	prec   []float64  // Precision of each output channel.
	nData  int
	nDim   int
	nOut   int

	matU   blas64.Triangular // Cholesky factor of the joint covariance.
	vecK   blas64.Vector     // Kriging basis.
	lnlike float64
}

// New sets up the joint covariance matrix over the design points and
// pre-computes its Cholesky decomposition.
//
//	x:    design points [nData, nDim]
//	y:    design values [nData, nOut]
//	covN: covariance of y, flattened column by column [nOut*nData, nOut*nData]
//	prec: precision of each output [nOut]
//	rho:  correlation lengths [nOut, nDim]
func New(x, y mat.Matrix, covN mat.Symmetric, prec []float64, rho mat.Matrix) (*Regressor, error) {
	nData, nDim := x.Dims()
	nY, nOut := y.Dims()
	if nData != nY {
		return nil, fmt.Errorf("%w: %d design points but %d design values", ErrDimensionMismatch, nData, nY)
	}
	if len(prec) != nOut {
		return nil, fmt.Errorf("%w: %d precisions for %d outputs", ErrDimensionMismatch, len(prec), nOut)
	}
	if covN.SymmetricDim() != nOut*nData {
		return nil, fmt.Errorf("%w: data covariance is %d x %d, want %d x %d", ErrDimensionMismatch,
			covN.SymmetricDim(), covN.SymmetricDim(), nOut*nData, nOut*nData)
	}
	if r, c := rho.Dims(); r != nOut || c != nDim {
		return nil, fmt.Errorf("%w: correlation lengths are %d x %d, want %d x %d", ErrDimensionMismatch,
			r, c, nOut, nDim)
	}

	parts := make([]kern.Kernel, nOut)
	for i := range parts {
		if !(prec[i] > 0) {
			return nil, fmt.Errorf("%w: precision %d is %v", ErrDegenerateCovariance, i, prec[i])
		}
		k, err := kern.NewRho(mat.Row(nil, i, rho))
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		parts[i] = kern.NewScaled(k, 1/prec[i])
	}
	r := &Regressor{
		kernel: kern.NewBlock(parts...),
		x:      mat.DenseCopyOf(x),
		prec:   append([]float64(nil), prec...),
		nData:  nData,
		nDim:   nDim,
		nOut:   nOut,
	}

	n := nOut * nData
	// C = block_diag(K_i(x, x) / prec_i) + cov_n
	c := r.kernel.Gram(r.x)
	c.Add(c, covN)
	raw := c.RawMatrix()

	// U = cholesky(C) (upper triangular)
	matU, ok := lapack64.Potrf(blas64.Symmetric{
		N:      n,
		Stride: raw.Stride,
		Data:   raw.Data,
		Uplo:   blas.Upper,
	})
	if !ok {
		return nil, ErrDegenerateCovariance
	}
	r.matU = matU

	// krig = C \ y_flat
	yFlat := utils.FlattenColumns(y).RawVector().Data
	krig := blas64.General{
		Rows:   n,
		Cols:   1,
		Stride: 1,
		Data:   append([]float64(nil), yFlat...),
	}
	lapack64.Potrs(r.matU, krig)
	r.vecK = blas64.Vector{N: n, Inc: 1, Data: krig.Data}

	// lnlike = -0.5 * dot(y_flat, krig) - 0.5 * log(det(C))
	chi2 := blas64.Dot(blas64.Vector{N: n, Inc: 1, Data: yFlat}, r.vecK)
	lnDet := 0.0
	for i := 0; i < n; i++ {
		lnDet += 2 * math.Log(r.matU.Data[i*r.matU.Stride+i])
	}
	r.lnlike = -0.5*chi2 - 0.5*lnDet
	return r, nil
}

func (r *Regressor) Dims() (nData, nDim, nOut int) {
	return r.nData, r.nDim, r.nOut
}

// Marginal log-likelihood of the design values, up to a constant.
func (r *Regressor) LogLikelihood() float64 {
	return r.lnlike
}

// Predict returns the posterior mean [nOut] and covariance [nOut, nOut] of
// the outputs at xNew.
func (r *Regressor) Predict(xNew []float64) (mean []float64, cov *mat.SymDense, err error) {
	if len(xNew) != r.nDim {
		return nil, nil, fmt.Errorf("%w: evaluation point has length %d, want %d", ErrDimensionMismatch, len(xNew), r.nDim)
	}
	n := r.nOut * r.nData
	m := r.nOut

	// Correlation with design input [nOut, nOut*nData], scaled by 1/prec.
	matR := r.kernel.Cross(xNew, r.x).RawMatrix()

	// mean = dot(corr_xnew_x, krig)
	mean = make([]float64, m)
	blas64.Gemv(blas.NoTrans, 1.0, matR, r.vecK, 0.0, blas64.Vector{N: m, Inc: 1, Data: mean})

	// v = C \ corr_xnew_x.T
	v := blas64.General{
		Rows:   n,
		Cols:   m,
		Stride: m,
		Data:   make([]float64, n*m),
	}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			v.Data[j*v.Stride+i] = matR.Data[i*matR.Stride+j]
		}
	}
	lapack64.Potrs(r.matU, v)

	// covmat = diag(1 / prec) - dot(corr_xnew_x, v)
	gen := blas64.General{
		Rows:   m,
		Cols:   m,
		Stride: m,
		Data:   make([]float64, m*m),
	}
	for i := 0; i < m; i++ {
		gen.Data[i*gen.Stride+i] = 1 / r.prec[i]
	}
	blas64.Gemm(blas.NoTrans, blas.NoTrans, -1.0, matR, v, 1.0, gen)

	cov = mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			cov.SetSym(i, j, 0.5*(gen.Data[i*gen.Stride+j]+gen.Data[j*gen.Stride+i]))
		}
	}
	return mean, cov, nil
}
