// Package model describes the offline-trained tables the emulator is built
// from and the repositories that supply them.
package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrInvalidArtifacts = errors.New("invalid model artifacts")

// Repository supplies a complete artifact set.
type Repository interface {
	Load() (*Artifacts, error)
}

// Artifacts are the trained tables for every redshift. They are read-only
// once handed to the emulator.
type Artifacts struct {
	Design    *mat.Dense // Normalized design points [nData, nDim], shared by all redshifts.
	Redshifts []Redshift // In emulator redshift order.
}

// Redshift holds the tables of one redshift model.
type Redshift struct {
	Z       float64
	PCA     *mat.Dense    // Row 0 is the mean log curve, rows 1.. the components [nPC+1, nBins].
	GPMean  []float64     // Weight de-standardization mean [nPC].
	GPStd   []float64     // Weight de-standardization std [nPC].
	Fac     float64       // Posterior covariance calibration factor.
	Hyper   []float64     // Precisions [nPC] then row-major length scales [nPC*nDim].
	Outputs *mat.Dense    // Standardized design values [nData, nPC].
	CovN    *mat.SymDense // Covariance of the design values [nPC*nData, nPC*nData].
}

// Components is the number of principal components.
func (r *Redshift) Components() int {
	if r.Outputs == nil {
		return 0
	}
	_, c := r.Outputs.Dims()
	return c
}

// Precisions returns the GP precision of every output.
func (r *Redshift) Precisions() []float64 {
	return append([]float64(nil), r.Hyper[:r.Components()]...)
}

// LengthScales returns the correlation lengths [nPC, nDim].
func (r *Redshift) LengthScales(nDim int) *mat.Dense {
	nPC := r.Components()
	return mat.NewDense(nPC, nDim, append([]float64(nil), r.Hyper[nPC:]...))
}

// Validate checks that every table has a shape consistent with the design.
func (a *Artifacts) Validate() error {
	if a == nil || a.Design == nil {
		return fmt.Errorf("%w: no design points", ErrInvalidArtifacts)
	}
	nData, nDim := a.Design.Dims()
	if len(a.Redshifts) == 0 {
		return fmt.Errorf("%w: no redshift models", ErrInvalidArtifacts)
	}
	for i := range a.Redshifts {
		if err := a.Redshifts[i].validate(nData, nDim); err != nil {
			return fmt.Errorf("%w: redshift %d (z = %g): %v", ErrInvalidArtifacts, i, a.Redshifts[i].Z, err)
		}
	}
	return nil
}

func (r *Redshift) validate(nData, nDim int) error {
	if r.PCA == nil || r.Outputs == nil || r.CovN == nil {
		return errors.New("missing table")
	}
	rows, nPC := r.Outputs.Dims()
	if rows != nData {
		return fmt.Errorf("%d design values for %d design points", rows, nData)
	}
	if pr, _ := r.PCA.Dims(); pr != nPC+1 {
		return fmt.Errorf("PCA table has %d rows, want %d", pr, nPC+1)
	}
	if len(r.GPMean) != nPC || len(r.GPStd) != nPC {
		return fmt.Errorf("%d GP means and %d GP stds for %d components", len(r.GPMean), len(r.GPStd), nPC)
	}
	if len(r.Hyper) != nPC+nPC*nDim {
		return fmt.Errorf("%d hyperparameters, want %d", len(r.Hyper), nPC+nPC*nDim)
	}
	if n := r.CovN.SymmetricDim(); n != nPC*nData {
		return fmt.Errorf("data covariance is %d x %d, want %d x %d", n, n, nPC*nData, nPC*nData)
	}
	if !(r.Fac > 0) {
		return fmt.Errorf("calibration factor %v must be positive", r.Fac)
	}
	return nil
}

// Static is a Repository over artifacts already in memory.
type Static struct {
	Artifacts *Artifacts
}

func (s Static) Load() (*Artifacts, error) {
	if err := s.Artifacts.Validate(); err != nil {
		return nil, err
	}
	return s.Artifacts, nil
}
