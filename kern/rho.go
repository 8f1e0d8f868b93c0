package kern

import (
	"math"
)

var (
	rho *Rho
	_   Kernel = rho // Check that Rho respects the Kernel interface.
)

// Rho is the anisotropic power correlation
//
//	k(a, b) = prod_k rho_k^(4 (a_k - b_k)^2)
//
// over inputs normalized to the unit cube. Each rho_k is the correlation
// between two points at distance 1/2 along axis k.
type Rho struct {
	logRho []float64
}

func NewRho(rho []float64) (*Rho, error) {
	logRho := make([]float64, len(rho))
	for i, r := range rho {
		if !(r > 0 && r <= 1) {
			return nil, ErrInvalidLengthScale
		}
		logRho[i] = math.Log(r)
	}
	return &Rho{
		logRho: logRho,
	}, nil
}

func (k *Rho) Dim() int {
	return len(k.logRho)
}

func (k *Rho) Corr(a, b []float64) float64 {
	// prod(rho**(4 * (a - b)**2)) == exp(sum(4 * (a - b)**2 * log(rho)))
	s := 0.0
	for i, lr := range k.logRho {
		d := a[i] - b[i]
		s += 4 * d * d * lr
	}
	return math.Exp(s)
}
