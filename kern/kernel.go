package kern

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var ErrInvalidLengthScale = errors.New("correlation length scale must lie in (0, 1]")

type Kernel interface {
	// Dimension of the input space.
	Dim() int

	// Correlation between two input points :math:`k(\mathbf{a}, \mathbf{b})`.
	Corr(a, b []float64) float64
}

// Gram matrix of the rows of x against themselves.
func Gram(k Kernel, x mat.Matrix) *mat.SymDense {
	n, _ := x.Dims()
	rows := rowsOf(x)
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, k.Corr(rows[i], rows[j]))
		}
	}
	return out
}

// Correlation of a single point with every row of x.
func Row(k Kernel, a []float64, x mat.Matrix) []float64 {
	rows := rowsOf(x)
	out := make([]float64, len(rows))
	for j, b := range rows {
		out[j] = k.Corr(a, b)
	}
	return out
}

func rowsOf(x mat.Matrix) [][]float64 {
	n, _ := x.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	return rows
}
