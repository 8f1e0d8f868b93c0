package model

import (
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// manifest is the YAML layout of an artifact set.
type manifest struct {
	Design    [][]float64        `yaml:"design"`
	Redshifts []redshiftManifest `yaml:"redshifts"`
}

type redshiftManifest struct {
	Z       float64     `yaml:"z"`
	PCA     [][]float64 `yaml:"pca"`
	GPMean  []float64   `yaml:"gp_mean"`
	GPStd   []float64   `yaml:"gp_std"`
	Fac     float64     `yaml:"fac"`
	Hyper   []float64   `yaml:"hyper"`
	Outputs [][]float64 `yaml:"outputs"`
	CovN    [][]float64 `yaml:"cov_n"`
}

// File is a Repository reading a YAML manifest from disk.
type File struct {
	Path string
}

func (f File) Load() (*Artifacts, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	a, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return a, nil
}

// Decode reads and validates a YAML manifest.
func Decode(r io.Reader) (*Artifacts, error) {
	var m manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifacts, err)
	}

	design, err := dense("design", m.Design)
	if err != nil {
		return nil, err
	}
	a := &Artifacts{
		Design:    design,
		Redshifts: make([]Redshift, len(m.Redshifts)),
	}
	for i, rm := range m.Redshifts {
		rs := &a.Redshifts[i]
		rs.Z, rs.GPMean, rs.GPStd, rs.Fac, rs.Hyper = rm.Z, rm.GPMean, rm.GPStd, rm.Fac, rm.Hyper
		if rs.PCA, err = dense(fmt.Sprintf("redshifts[%d].pca", i), rm.PCA); err != nil {
			return nil, err
		}
		if rs.Outputs, err = dense(fmt.Sprintf("redshifts[%d].outputs", i), rm.Outputs); err != nil {
			return nil, err
		}
		covN, err := dense(fmt.Sprintf("redshifts[%d].cov_n", i), rm.CovN)
		if err != nil {
			return nil, err
		}
		if rs.CovN, err = symmetric(fmt.Sprintf("redshifts[%d].cov_n", i), covN); err != nil {
			return nil, err
		}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Encode writes artifacts as a YAML manifest readable by Decode.
func Encode(w io.Writer, a *Artifacts) error {
	m := manifest{
		Design:    rows(a.Design),
		Redshifts: make([]redshiftManifest, len(a.Redshifts)),
	}
	for i, rs := range a.Redshifts {
		m.Redshifts[i] = redshiftManifest{
			Z:       rs.Z,
			PCA:     rows(rs.PCA),
			GPMean:  rs.GPMean,
			GPStd:   rs.GPStd,
			Fac:     rs.Fac,
			Hyper:   rs.Hyper,
			Outputs: rows(rs.Outputs),
			CovN:    rows(rs.CovN),
		}
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&m)
}

func dense(field string, data [][]float64) (*mat.Dense, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidArtifacts, field)
	}
	c := len(data[0])
	out := mat.NewDense(len(data), c, nil)
	for i, row := range data {
		if len(row) != c {
			return nil, fmt.Errorf("%w: %s row %d has %d values, want %d", ErrInvalidArtifacts, field, i, len(row), c)
		}
		out.SetRow(i, row)
	}
	return out, nil
}

func symmetric(field string, m *mat.Dense) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: %s is %d x %d, not square", ErrInvalidArtifacts, field, r, c)
	}
	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			if m.At(i, j) != m.At(j, i) {
				return nil, fmt.Errorf("%w: %s is not symmetric at (%d, %d)", ErrInvalidArtifacts, field, i, j)
			}
			out.SetSym(i, j, m.At(i, j))
		}
	}
	return out, nil
}

func rows(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}
