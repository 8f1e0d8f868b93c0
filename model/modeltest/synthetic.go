// Package modeltest builds small, well-conditioned artifact sets for tests.
package modeltest

import (
	"math"
	"math/rand/v2"

	"github.com/SebastianBocquet/MiraTitanHMFemulator/model"
	"github.com/SebastianBocquet/MiraTitanHMFemulator/utils"
	"gonum.org/v1/gonum/mat"
)

const (
	NumDesign     = 24
	NumDim        = 8
	NumComponents = 3
	Nugget        = 1e-4
)

var redshifts = []float64{2.02, 1.61, 1.01, 0.656, 0.434, 0.242, 0.101, 0.0}

// Bins is the number of mass bins of each redshift model; high redshifts
// stop at lower masses.
var Bins = []int{1801, 2001, 2201, 2401, 2601, 2801, 2901, 3001}

// Synthetic returns a deterministic artifact set over the emulator's
// redshifts. The design values are smooth functions of the design points,
// so the GP predictions vary smoothly with cosmology.
func Synthetic(seed uint64) *model.Artifacts {
	rnd := rand.New(rand.NewPCG(seed, 0))
	design := mat.NewDense(NumDesign, NumDim, nil)
	for i := 0; i < NumDesign; i++ {
		for k := 0; k < NumDim; k++ {
			design.Set(i, k, rnd.Float64())
		}
	}
	log10M := utils.Linspace(13, 16, 3001)

	a := &model.Artifacts{
		Design:    design,
		Redshifts: make([]model.Redshift, len(redshifts)),
	}
	for zi, z := range redshifts {
		outputs := mat.NewDense(NumDesign, NumComponents, nil)
		for i := 0; i < NumDesign; i++ {
			x := design.RawRowView(i)
			outputs.Set(i, 0, (1+0.1*z)*(x[0]+x[1]+x[2]+x[3]-2))
			outputs.Set(i, 1, math.Sin(2*x[4])-x[7])
			outputs.Set(i, 2, x[5]*x[6]-0.25+0.05*z)
		}

		hyper := []float64{1, 2, 4}
		for k := 0; k < NumComponents; k++ {
			for d := 0; d < NumDim; d++ {
				hyper = append(hyper, 0.4+0.05*float64(k)+0.02*float64(d))
			}
		}

		n := NumComponents * NumDesign
		covN := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			covN.SetSym(i, i, Nugget)
		}

		nBins := Bins[zi]
		pca := mat.NewDense(NumComponents+1, nBins, nil)
		for j := 0; j < nBins; j++ {
			dm := log10M[j] - 13
			pca.Set(0, j, -10-2.5*dm-0.8*(1+z)*dm*dm)
			for k := 0; k < NumComponents; k++ {
				pca.Set(k+1, j, 0.05*math.Cos(math.Pi*float64(k+1)*dm/3))
			}
		}

		a.Redshifts[zi] = model.Redshift{
			Z:       z,
			PCA:     pca,
			GPMean:  []float64{0.1, -0.05, 0},
			GPStd:   []float64{0.5, 0.3, 0.2},
			Fac:     1 + 0.1*float64(zi),
			Hyper:   hyper,
			Outputs: outputs,
			CovN:    covN,
		}
	}
	return a
}
