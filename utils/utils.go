package utils

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Concatenate multiple vectors.
func ConcatVecs(size int, vecs ...mat.Vector) *mat.VecDense {
	out := mat.NewVecDense(size, nil)
	offset := 0
	for _, vec := range vecs {
		slice := out.SliceVec(offset, offset+vec.Len()).(*mat.VecDense)
		slice.CopyVec(vec)
		offset += vec.Len()
	}
	return out
}

// Stack the columns of a matrix into one vector, column after column
// (Fortran order).
func FlattenColumns(m mat.Matrix) *mat.VecDense {
	r, c := m.Dims()
	cols := make([]mat.Vector, c)
	for j := 0; j < c; j++ {
		cols[j] = mat.NewVecDense(r, mat.Col(nil, j, m))
	}
	return ConcatVecs(r*c, cols...)
}

// Make a block diagonal matrix.
func BlockDiag(size int, mats ...mat.Matrix) *mat.Dense {
	out := mat.NewDense(size, size, nil)
	offset := 0
	var r, c int
	for _, matrix := range mats {
		r, c = matrix.Dims()
		slice := out.Slice(offset, offset+r, offset, offset+c)
		slice.(*mat.Dense).Copy(matrix)
		offset += r
	}
	return out
}

// Linspace returns n evenly spaced points on [l, u]. The last point is
// exactly u, as with numpy.linspace.
func Linspace(l, u float64, n int) []float64 {
	out := make([]float64, n)
	if n < 2 {
		if n == 1 {
			out[0] = l
		}
		return out
	}
	floats.Span(out, l, u)
	out[n-1] = u
	return out
}

// Logspace returns n points evenly spaced in log10 between 10^l and 10^u.
func Logspace(l, u float64, n int) []float64 {
	out := Linspace(l, u, n)
	for i, v := range out {
		out[i] = math.Pow(10, v)
	}
	return out
}
