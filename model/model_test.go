package model_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SebastianBocquet/MiraTitanHMFemulator/model"
	"github.com/SebastianBocquet/MiraTitanHMFemulator/model/modeltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSyntheticValidates(t *testing.T) {
	a := modeltest.Synthetic(1)
	require.NoError(t, a.Validate())
	require.Len(t, a.Redshifts, 8)

	rs := a.Redshifts[0]
	assert.Equal(t, 2.02, rs.Z)
	assert.Equal(t, modeltest.NumComponents, rs.Components())
	assert.Equal(t, []float64{1, 2, 4}, rs.Precisions())
	l := rs.LengthScales(modeltest.NumDim)
	r, c := l.Dims()
	assert.Equal(t, modeltest.NumComponents, r)
	assert.Equal(t, modeltest.NumDim, c)
	assert.Equal(t, 0.4, l.At(0, 0))
	assert.InDelta(t, 0.45+0.02*7, l.At(1, 7), 1e-15)

	_, bins := rs.PCA.Dims()
	assert.Equal(t, modeltest.Bins[0], bins)
}

func TestSyntheticDeterministic(t *testing.T) {
	a, b := modeltest.Synthetic(5), modeltest.Synthetic(5)
	assert.True(t, mat.Equal(a.Design, b.Design))
	assert.False(t, mat.Equal(a.Design, modeltest.Synthetic(6).Design))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *model.Artifacts)
	}{
		{"no design", func(a *model.Artifacts) { a.Design = nil }},
		{"no redshifts", func(a *model.Artifacts) { a.Redshifts = nil }},
		{"pca rows", func(a *model.Artifacts) { a.Redshifts[2].PCA = mat.NewDense(2, 10, nil) }},
		{"gp std", func(a *model.Artifacts) { a.Redshifts[0].GPStd = []float64{1} }},
		{"hyper", func(a *model.Artifacts) { a.Redshifts[1].Hyper = a.Redshifts[1].Hyper[:5] }},
		{"cov", func(a *model.Artifacts) { a.Redshifts[3].CovN = mat.NewSymDense(3, nil) }},
		{"fac", func(a *model.Artifacts) { a.Redshifts[4].Fac = 0 }},
		{"outputs", func(a *model.Artifacts) { a.Redshifts[5].Outputs = mat.NewDense(3, 3, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := modeltest.Synthetic(1)
			tt.mutate(a)
			assert.ErrorIs(t, a.Validate(), model.ErrInvalidArtifacts)
			_, err := model.Static{Artifacts: a}.Load()
			assert.ErrorIs(t, err, model.ErrInvalidArtifacts)
		})
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	a := modeltest.Synthetic(2)
	// Trim the tables to keep the manifest small.
	for i := range a.Redshifts {
		a.Redshifts[i].PCA = mat.DenseCopyOf(a.Redshifts[i].PCA.Slice(0, 4, 0, 20))
	}

	var buf bytes.Buffer
	require.NoError(t, model.Encode(&buf, a))

	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	b, err := model.File{Path: path}.Load()
	require.NoError(t, err)

	assert.True(t, mat.Equal(a.Design, b.Design))
	require.Len(t, b.Redshifts, len(a.Redshifts))
	for i := range a.Redshifts {
		ra, rb := a.Redshifts[i], b.Redshifts[i]
		assert.Equal(t, ra.Z, rb.Z)
		assert.Equal(t, ra.Fac, rb.Fac)
		assert.Equal(t, ra.Hyper, rb.Hyper)
		assert.Equal(t, ra.GPMean, rb.GPMean)
		assert.Equal(t, ra.GPStd, rb.GPStd)
		assert.True(t, mat.Equal(ra.PCA, rb.PCA))
		assert.True(t, mat.Equal(ra.Outputs, rb.Outputs))
		assert.True(t, mat.Equal(ra.CovN, rb.CovN))
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "design: [[0.5]]\nbogus: 1\n"},
		{"ragged", "design: [[0.5, 0.1], [0.2]]\n"},
		{"empty", "design: []\n"},
		{"asymmetric", `design: [[0.5]]
redshifts:
  - z: 0
    pca: [[1, 2], [0.1, 0.2]]
    gp_mean: [0]
    gp_std: [1]
    fac: 1
    hyper: [1, 0.5]
    outputs: [[0.3]]
    cov_n: [[1, 2], [3, 4]]
`},
		{"not yaml", "design: [[\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Decode(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, model.ErrInvalidArtifacts)
		})
	}

	_, err := model.File{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
