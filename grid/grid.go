package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/SebastianBocquet/MiraTitanHMFemulator/utils"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

const (
	NumMassBins = 3001
	Log10MMin   = 13.0
	Log10MMax   = 16.0
	MMin        = 1e13
	MMax        = 1e16
	ZMin        = 0.0
	ZMax        = 2.02

	// Log-space fill for mass bins a redshift does not cover. exp(LogFloor)
	// is zero and any interpolation touching it is pulled far below every
	// real value.
	LogFloor = -1e100
)

// Redshifts of the trained models, in model order.
var redshifts = [...]float64{2.02, 1.61, 1.01, 0.656, 0.434, 0.242, 0.101, 0.0}

const NumRedshifts = len(redshifts)

var log10M = utils.Linspace(Log10MMin, Log10MMax, NumMassBins)

func Redshifts() []float64 {
	return append([]float64(nil), redshifts[:]...)
}

// Log10M returns the common log10(M [Msun/h]) axis.
func Log10M() []float64 {
	return append([]float64(nil), log10M...)
}

var ErrDomain = errors.New("outside the emulator domain")

type DomainError struct {
	Axis  string
	Value float64
	Lo    float64
	Hi    float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s = %g is outside [%g, %g]", e.Axis, e.Value, e.Lo, e.Hi)
}

func (e *DomainError) Unwrap() error {
	return ErrDomain
}

// CheckDomain returns a *DomainError for the first redshift or mass outside
// the supported closed intervals.
func CheckDomain(z, m []float64) error {
	for _, v := range z {
		if !(v >= ZMin && v <= ZMax) {
			return &DomainError{Axis: "z", Value: v, Lo: ZMin, Hi: ZMax}
		}
	}
	for _, v := range m {
		if !(v >= MMin && v <= MMax) {
			return &DomainError{Axis: "m", Value: v, Lo: MMin, Hi: MMax}
		}
	}
	return nil
}

// Node is the output of one redshift model on a prefix of the mass axis.
type Node struct {
	Z      float64
	LogHMF []float64
	RelErr []float64 // Optional; nil when no errors were computed.
}

// Grid interpolates mass function values and relative errors over
// (redshift, log10 M).
type Grid struct {
	zs     []float64 // Ascending node redshifts.
	values *Bilinear
	errors *Bilinear // nil without errors.
}

func New(nodes []Node) (*Grid, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf("grid: need at least two redshift nodes, got %d", len(nodes))
	}
	sorted := append([]Node(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Z < sorted[j].Z })

	withErrors := sorted[0].RelErr != nil
	zs := make([]float64, len(sorted))
	logs := make([][]float64, len(sorted))
	var errs [][]float64
	if withErrors {
		errs = make([][]float64, len(sorted))
	}
	for i, n := range sorted {
		if len(n.LogHMF) == 0 || len(n.LogHMF) > NumMassBins {
			return nil, fmt.Errorf("grid: redshift %g has %d mass bins, want 1 to %d", n.Z, len(n.LogHMF), NumMassBins)
		}
		if (n.RelErr != nil) != withErrors || (withErrors && len(n.RelErr) != len(n.LogHMF)) {
			return nil, fmt.Errorf("grid: redshift %g has inconsistent errors", n.Z)
		}
		zs[i] = n.Z
		logs[i] = pad(n.LogHMF, LogFloor)
		if withErrors {
			errs[i] = pad(n.RelErr, 0)
		}
	}

	g := &Grid{zs: zs}
	var err error
	if g.values, err = NewBilinear(zs, log10M, logs); err != nil {
		return nil, err
	}
	if withErrors {
		if g.errors, err = NewBilinear(zs, log10M, errs); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func pad(v []float64, fill float64) []float64 {
	out := make([]float64, NumMassBins)
	n := copy(out, v)
	for i := n; i < NumMassBins; i++ {
		out[i] = fill
	}
	return out
}

// Values returns dn/dlnM at every (z[i], m[j]), shaped [len(z), len(m)].
// Callers check the domain first.
func (g *Grid) Values(z, m []float64) *mat.Dense {
	out := mat.NewDense(len(z), len(m), nil)
	lm := log10Clamped(m)
	for i, zi := range z {
		for j, x := range lm {
			out.Set(i, j, math.Exp(g.values.Predict(zi, x)))
		}
	}
	return out
}

// Errors returns the relative error at every (z[i], m[j]). The errors of
// the two redshift nodes closest to z are combined in quadrature, each
// weighted by its linear interpolation weight. The same two nodes are used
// even when z does not lie between them.
func (g *Grid) Errors(z, m []float64) *mat.Dense {
	out := mat.NewDense(len(z), len(m), nil)
	if g.errors == nil {
		return out
	}
	lm := log10Clamped(m)
	for i, zi := range z {
		a, b := g.neighbours(zi)
		za, zb := g.zs[a], g.zs[b]
		wa := (zb - zi) / (zb - za)
		wb := (zi - za) / (zb - za)
		for j, x := range lm {
			ea := g.errors.Predict(za, x) * wa
			eb := g.errors.Predict(zb, x) * wb
			out.Set(i, j, math.Sqrt(ea*ea+eb*eb))
		}
	}
	return out
}

// neighbours returns the indices of the two nodes closest to z, ties going
// to the lower redshift.
func (g *Grid) neighbours(z float64) (int, int) {
	idx := make([]int, len(g.zs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return math.Abs(g.zs[idx[i]]-z) < math.Abs(g.zs[idx[j]]-z)
	})
	return idx[0], idx[1]
}

func log10Clamped(m []float64) []float64 {
	out := make([]float64, len(m))
	for i, v := range m {
		out[i] = math.Min(math.Max(math.Log10(v), Log10MMin), Log10MMax)
	}
	return out
}

// Bilinear is a piecewise bilinear interpolant on a rectilinear grid:
// piecewise linear along x within each row, linear in z between the two
// bracketing rows. Outside the grid it holds the edge values.
type Bilinear struct {
	zs   []float64
	rows []interp.PiecewiseLinear
}

// NewBilinear fits values[i][j] = f(zs[i], xs[j]). Both axes must be
// strictly increasing.
func NewBilinear(zs, xs []float64, values [][]float64) (*Bilinear, error) {
	if len(values) != len(zs) {
		return nil, fmt.Errorf("grid: %d rows for %d redshifts", len(values), len(zs))
	}
	for i := 1; i < len(zs); i++ {
		if !(zs[i] > zs[i-1]) {
			return nil, fmt.Errorf("grid: redshifts not strictly increasing at %g", zs[i])
		}
	}
	b := &Bilinear{
		zs:   append([]float64(nil), zs...),
		rows: make([]interp.PiecewiseLinear, len(zs)),
	}
	for i, row := range values {
		if err := b.rows[i].Fit(xs, row); err != nil {
			return nil, fmt.Errorf("grid: redshift %g: %w", zs[i], err)
		}
	}
	return b, nil
}

func (b *Bilinear) Predict(z, x float64) float64 {
	i := sort.SearchFloat64s(b.zs, z)
	switch {
	case i == len(b.zs):
		return b.rows[i-1].Predict(x)
	case b.zs[i] == z || i == 0:
		return b.rows[i].Predict(x)
	}
	t := (z - b.zs[i-1]) / (b.zs[i] - b.zs[i-1])
	v0 := b.rows[i-1].Predict(x)
	v1 := b.rows[i].Predict(x)
	return v0 + t*(v1-v0)
}
