package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBlockDiag(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(1, 1, []float64{5})
	out := BlockDiag(3, a, b)
	want := mat.NewDense(3, 3, []float64{
		1, 2, 0,
		3, 4, 0,
		0, 0, 5,
	})
	assert.True(t, mat.Equal(want, out))
}

func TestFlattenColumns(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	out := FlattenColumns(m)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, out.RawVector().Data)
}

func TestConcatVecs(t *testing.T) {
	a := mat.NewVecDense(2, []float64{1, 2})
	b := mat.NewVecDense(1, []float64{3})
	assert.Equal(t, []float64{1, 2, 3}, ConcatVecs(3, a, b).RawVector().Data)
}

func TestLinspace(t *testing.T) {
	xs := Linspace(13, 16, 3001)
	require.Len(t, xs, 3001)
	assert.Equal(t, 13.0, xs[0])
	assert.Equal(t, 16.0, xs[3000])
	assert.InDelta(t, 14.5, xs[1500], 1e-12)

	assert.Equal(t, []float64{2}, Linspace(2, 5, 1))
	assert.Empty(t, Linspace(2, 5, 0))
}

func TestLogspace(t *testing.T) {
	ms := Logspace(13, 16, 31)
	require.Len(t, ms, 31)
	assert.InEpsilon(t, 1e13, ms[0], 1e-12)
	assert.InEpsilon(t, 1e16, ms[30], 1e-12)
	assert.InEpsilon(t, 1e14, ms[10], 1e-12)
}
