package grid

import (
	"math"
	"testing"

	"github.com/SebastianBocquet/MiraTitanHMFemulator/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logf is linear in z and log10 M, so bilinear interpolation is exact.
func logf(z, lm float64) float64 {
	return 10 + 3*z - 2*lm
}

func linearNodes(withErrors bool) []Node {
	nodes := make([]Node, NumRedshifts)
	for i, z := range Redshifts() {
		nodes[i] = Node{Z: z, LogHMF: make([]float64, NumMassBins)}
		for j, lm := range Log10M() {
			nodes[i].LogHMF[j] = logf(z, lm)
		}
		if withErrors {
			nodes[i].RelErr = make([]float64, NumMassBins)
			for j := range nodes[i].RelErr {
				nodes[i].RelErr[j] = 0.01 * float64(i+1)
			}
		}
	}
	return nodes
}

func TestConstants(t *testing.T) {
	assert.Equal(t, 8, NumRedshifts)
	zs := Redshifts()
	zs[0] = 99
	assert.Equal(t, 2.02, Redshifts()[0])

	axis := Log10M()
	require.Len(t, axis, NumMassBins)
	assert.Equal(t, Log10MMin, axis[0])
	assert.Equal(t, Log10MMax, axis[NumMassBins-1])
}

func TestCheckDomain(t *testing.T) {
	assert.NoError(t, CheckDomain([]float64{0, 1, 2.02}, []float64{1e13, 1e14, 1e16}))

	tests := []struct {
		name string
		z, m []float64
		axis string
	}{
		{"z below", []float64{-0.01}, []float64{1e14}, "z"},
		{"z above", []float64{2.03}, []float64{1e14}, "z"},
		{"z NaN", []float64{math.NaN()}, []float64{1e14}, "z"},
		{"m below", []float64{0.5}, []float64{9.9e12}, "m"},
		{"m above", []float64{0.5}, []float64{1.01e16}, "m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDomain(tt.z, tt.m)
			require.ErrorIs(t, err, ErrDomain)
			var de *DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.axis, de.Axis)
		})
	}
}

func TestValuesBilinearExact(t *testing.T) {
	g, err := New(linearNodes(false))
	require.NoError(t, err)

	z := []float64{0, 0.05, 0.3, 1.3467, 2.02}
	m := utils.Logspace(13, 16, 31)
	vals := g.Values(z, m)
	for i, zi := range z {
		for j, mj := range m {
			assert.InEpsilon(t, math.Exp(logf(zi, math.Log10(mj))), vals.At(i, j), 1e-9)
		}
	}

	errs := g.Errors(z, m)
	for i := range z {
		for j := range m {
			assert.Equal(t, 0.0, errs.At(i, j))
		}
	}
}

func TestTruncatedNodeNeverWins(t *testing.T) {
	nodes := linearNodes(false)
	// z = 2.02 covers only the first 1001 bins (log10 M <= 14).
	for i := range nodes {
		if nodes[i].Z == 2.02 {
			nodes[i].LogHMF = nodes[i].LogHMF[:1001]
		}
	}
	g, err := New(nodes)
	require.NoError(t, err)

	vals := g.Values([]float64{2.02, 1.8, 1.61}, []float64{1e13, 1e15})
	assert.InEpsilon(t, math.Exp(logf(2.02, 13)), vals.At(0, 0), 1e-9)
	assert.Equal(t, 0.0, vals.At(0, 1))
	assert.Equal(t, 0.0, vals.At(1, 1))
	assert.InEpsilon(t, math.Exp(logf(1.61, 15)), vals.At(2, 1), 1e-9)
}

func TestErrorsAtNodes(t *testing.T) {
	g, err := New(linearNodes(true))
	require.NoError(t, err)

	m := []float64{1e13, 3e14, 1e16}
	errs := g.Errors(Redshifts(), m)
	for i := range Redshifts() {
		for j := range m {
			assert.InDelta(t, 0.01*float64(i+1), errs.At(i, j), 1e-12)
		}
	}
}

func TestErrorsQuadrature(t *testing.T) {
	g, err := New(linearNodes(true))
	require.NoError(t, err)

	// Between 1.61 (err 0.02) and 1.01 (err 0.03), nearest first.
	z := 1.5
	wa := (1.01 - z) / (1.01 - 1.61)
	wb := (z - 1.61) / (1.01 - 1.61)
	want := math.Sqrt(math.Pow(0.02*wa, 2) + math.Pow(0.03*wb, 2))
	errs := g.Errors([]float64{z}, []float64{1e14})
	assert.InDelta(t, want, errs.At(0, 0), 1e-12)
}

// z = 0.11 is closer to 0.0 than to 0.242, so the pair (0.101, 0.0) is used
// and the weights extrapolate. This is the known edge case of the
// nearest-two rule.
func TestErrorsNearestPairExtrapolates(t *testing.T) {
	g, err := New(linearNodes(true))
	require.NoError(t, err)

	z := 0.11
	za, zb := 0.101, 0.0
	ea, eb := 0.07, 0.08
	wa := (zb - z) / (zb - za)
	wb := (z - za) / (zb - za)
	assert.Greater(t, wa, 1.0)
	assert.Less(t, wb, 0.0)
	want := math.Sqrt(math.Pow(ea*wa, 2) + math.Pow(eb*wb, 2))

	errs := g.Errors([]float64{z}, []float64{1e14})
	assert.InDelta(t, want, errs.At(0, 0), 1e-12)
}

func TestNewRejectsBadNodes(t *testing.T) {
	_, err := New(linearNodes(false)[:1])
	assert.Error(t, err)

	nodes := linearNodes(false)
	nodes[3].LogHMF = make([]float64, NumMassBins+1)
	_, err = New(nodes)
	assert.Error(t, err)

	nodes = linearNodes(true)
	nodes[2].RelErr = nil
	_, err = New(nodes)
	assert.Error(t, err)

	nodes = linearNodes(false)
	nodes[1].Z = nodes[0].Z
	_, err = New(nodes)
	assert.Error(t, err)
}

func TestBilinearHoldsEdges(t *testing.T) {
	b, err := NewBilinear([]float64{0, 1}, []float64{0, 1}, [][]float64{{0, 1}, {2, 3}})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, b.Predict(0.5, 0.5), 1e-15)
	assert.InDelta(t, 0.0, b.Predict(-1, 0), 1e-15)
	assert.InDelta(t, 3.0, b.Predict(2, 1), 1e-15)
}
