// Package emu predicts the halo mass function for a cosmology by combining
// one GP and PCA model per trained redshift.
package emu

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/SebastianBocquet/MiraTitanHMFemulator/cosmo"
	"github.com/SebastianBocquet/MiraTitanHMFemulator/gp"
	"github.com/SebastianBocquet/MiraTitanHMFemulator/grid"
	"github.com/SebastianBocquet/MiraTitanHMFemulator/logging"
	"github.com/SebastianBocquet/MiraTitanHMFemulator/model"
	"github.com/SebastianBocquet/MiraTitanHMFemulator/pca"
	"github.com/go-logr/logr"
	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/mat"
)

var ErrEmptyQuery = errors.New("emu: no redshifts or masses requested")

type redshiftModel struct {
	z     float64
	gp    *gp.Regressor
	basis *pca.Basis
	fac   float64
}

// posterior of the standardized PCA weights at one redshift. Shared through
// the cache, so never modified.
type posterior struct {
	mean []float64
	cov  *mat.SymDense
}

// Emulator is safe for concurrent use.
type Emulator struct {
	models  [grid.NumRedshifts]redshiftModel
	log     logr.Logger
	workers int
	seed    uint64
	draws   int
	metrics *Metrics
	cache   *lru.Cache[cosmo.Vector, []posterior] // nil when disabled.
}

// RedshiftOutput is the prediction of one redshift model on its own part of
// the mass axis.
type RedshiftOutput struct {
	Redshift float64
	Log10M   []float64
	HMF      []float64 // dn/dlnM at the posterior mean weights.
	LogHMF   []float64 // log(HMF), computed without going through exp.

	// Monte Carlo summary; nil unless draws were requested.
	HMFMean   []float64
	HMFStd    []float64  // Relative standard deviation.
	Draws     *mat.Dense // Finite draws; nil unless requested.
	Discarded int        // Non-finite draws dropped.
}

// New loads the artifacts from repo and factorizes every redshift's
// correlation matrix. It fails if any of them is not positive definite.
func New(repo model.Repository, opts ...Option) (*Emulator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 || o.draws < 1 || o.cacheSize < 0 {
		return nil, fmt.Errorf("%w: workers %d, draws %d, cache size %d", ErrInvalidConfig, o.workers, o.draws, o.cacheSize)
	}

	a, err := repo.Load()
	if err != nil {
		return nil, err
	}
	if len(a.Redshifts) != grid.NumRedshifts {
		return nil, fmt.Errorf("%w: %d redshift models, want %d", model.ErrInvalidArtifacts, len(a.Redshifts), grid.NumRedshifts)
	}
	if _, nDim := a.Design.Dims(); nDim != cosmo.NumParams {
		return nil, fmt.Errorf("%w: design has %d parameters, want %d", model.ErrInvalidArtifacts, nDim, cosmo.NumParams)
	}
	zs := grid.Redshifts()
	for i, rs := range a.Redshifts {
		if rs.Z != zs[i] {
			return nil, fmt.Errorf("%w: redshift model %d is at z = %g, want %g", model.ErrInvalidArtifacts, i, rs.Z, zs[i])
		}
		if _, nBins := rs.PCA.Dims(); nBins > grid.NumMassBins {
			return nil, fmt.Errorf("%w: redshift %g has %d mass bins, at most %d allowed", model.ErrInvalidArtifacts, rs.Z, nBins, grid.NumMassBins)
		}
	}

	e := &Emulator{
		log:     o.log,
		workers: o.workers,
		seed:    o.seed,
		draws:   o.draws,
		metrics: NewMetrics(),
	}
	if o.registerer != nil {
		if err := e.metrics.Register(o.registerer); err != nil {
			return nil, err
		}
	}
	if o.cacheSize > 0 {
		if e.cache, err = lru.New[cosmo.Vector, []posterior](o.cacheSize); err != nil {
			return nil, err
		}
	}

	err = forEach(grid.NumRedshifts, e.workers, func(i int) error {
		rs := &a.Redshifts[i]
		reg, err := gp.New(a.Design, rs.Outputs, rs.CovN, rs.Precisions(), rs.LengthScales(cosmo.NumParams))
		if err != nil {
			return fmt.Errorf("redshift %g: %w", rs.Z, err)
		}
		basis, err := pca.New(rs.PCA, rs.GPMean, rs.GPStd)
		if err != nil {
			return fmt.Errorf("redshift %g: %w", rs.Z, err)
		}
		e.models[i] = redshiftModel{z: rs.Z, gp: reg, basis: basis, fac: rs.Fac}
		e.log.V(logging.TRACE).Info("built redshift model", "z", rs.Z,
			"components", basis.Components(), "bins", basis.Bins(), "lnlike", reg.LogLikelihood())
		return nil
	})
	if err != nil {
		return nil, err
	}
	nData, _ := a.Design.Dims()
	e.log.V(logging.DEBUG).Info("emulator ready", "designPoints", nData, "workers", e.workers, "cache", o.cacheSize)
	return e, nil
}

// ValidateParams reports whether p is a complete cosmology inside the
// trained bounds.
func (e *Emulator) ValidateParams(p cosmo.Params) bool {
	return cosmo.Validate(p)
}

// Metrics returns the emulator's metrics.
func (e *Emulator) Metrics() *Metrics {
	return e.metrics
}

// PredictRaw returns the prediction of every redshift model, highest
// redshift first. With nDraw > 0 the GP posterior is also sampled nDraw
// times per redshift; returnDraws keeps the finite draws.
func (e *Emulator) PredictRaw(p cosmo.Params, nDraw int, returnDraws bool) ([]RedshiftOutput, error) {
	start := time.Now()
	out, err := e.predictRaw(p, nDraw, returnDraws)
	if err != nil {
		return nil, err
	}
	e.metrics.observe("predict_raw", time.Since(start).Seconds())
	return out, nil
}

func (e *Emulator) predictRaw(p cosmo.Params, nDraw int, returnDraws bool) ([]RedshiftOutput, error) {
	v, err := cosmo.Normalize(p)
	if err != nil {
		return nil, err
	}
	posts, cached := e.lookup(v)
	if !cached {
		posts = make([]posterior, grid.NumRedshifts)
	}

	log10M := grid.Log10M()
	out := make([]RedshiftOutput, grid.NumRedshifts)
	err = forEach(grid.NumRedshifts, e.workers, func(i int) error {
		m := &e.models[i]
		if !cached {
			mean, cov, err := m.gp.Predict(v[:])
			if err != nil {
				return err
			}
			posts[i] = posterior{mean: mean, cov: cov}
		}
		post := posts[i]

		r := RedshiftOutput{
			Redshift: m.z,
			Log10M:   append([]float64(nil), log10M[:m.basis.Bins()]...),
			LogHMF:   m.basis.LogCurve(post.mean),
		}
		r.HMF = m.basis.Curve(post.mean)

		if nDraw > 0 {
			cov := mat.NewSymDense(len(post.mean), nil)
			cov.ScaleSym(m.fac, post.cov)
			src := rand.NewPCG(e.seed, uint64(i))
			ens, err := m.basis.Ensemble(post.mean, cov, nDraw, returnDraws, src)
			if err != nil {
				return fmt.Errorf("redshift %g: %w", m.z, err)
			}
			r.HMFMean, r.HMFStd, r.Draws, r.Discarded = ens.Mean, ens.RelStd, ens.Draws, ens.Discarded
			e.metrics.discarded(m.z, ens.Discarded)
			if ens.Discarded > 0 {
				e.log.V(logging.DEBUG).Info("discarded non-finite draws", "z", m.z, "discarded", ens.Discarded, "kept", ens.Kept)
			}
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !cached && e.cache != nil {
		e.cache.Add(v, posts)
	}
	e.log.V(logging.TRACE).Info("predicted redshift models", "params", v, "draws", nDraw, "cached", cached)
	return out, nil
}

func (e *Emulator) lookup(v cosmo.Vector) ([]posterior, bool) {
	if e.cache == nil {
		return nil, false
	}
	return e.cache.Get(v)
}

// Predict returns dn/dlnM and its relative error at every (z[i], m[j]),
// both shaped [len(z), len(m)]. The domain is checked before any model is
// evaluated. Without getErrors no draws are made and relErr is all zero;
// with it, nDraw <= 0 uses the emulator's default draw count.
// An empty z or m fails with ErrEmptyQuery instead of returning empty
// matrices, since a mat.Dense cannot have a zero dimension.
func (e *Emulator) Predict(p cosmo.Params, z, m []float64, getErrors bool, nDraw int) (values, relErr *mat.Dense, err error) {
	start := time.Now()
	if err := grid.CheckDomain(z, m); err != nil {
		return nil, nil, err
	}
	if len(z) == 0 || len(m) == 0 {
		return nil, nil, ErrEmptyQuery
	}
	switch {
	case !getErrors:
		nDraw = 0
	case nDraw <= 0:
		nDraw = e.draws
	}

	raw, err := e.predictRaw(p, nDraw, false)
	if err != nil {
		return nil, nil, err
	}
	nodes := make([]grid.Node, len(raw))
	for i, r := range raw {
		nodes[i] = grid.Node{Z: r.Redshift, LogHMF: r.LogHMF}
		if getErrors {
			nodes[i].RelErr = r.HMFStd
		}
	}
	g, err := grid.New(nodes)
	if err != nil {
		return nil, nil, err
	}
	values = g.Values(z, m)
	relErr = g.Errors(z, m)
	e.metrics.observe("predict", time.Since(start).Seconds())
	return values, relErr, nil
}
