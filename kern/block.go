package kern

import (
	"github.com/SebastianBocquet/MiraTitanHMFemulator/utils"
	"gonum.org/v1/gonum/mat"
)

// Block stacks independent output channels. Channel i owns the i-th
// diagonal block of the joint covariance; channels never correlate.
type Block struct {
	parts []Kernel
}

func NewBlock(parts ...Kernel) *Block {
	return &Block{
		parts: append([]Kernel(nil), parts...),
	}
}

// Number of output channels.
func (k *Block) Len() int {
	return len(k.parts)
}

// Input dimension shared by all channels.
func (k *Block) Dim() int {
	if len(k.parts) == 0 {
		return 0
	}
	return k.parts[0].Dim()
}

// Joint covariance of the design points x over all channels, of size
// Len()*n x Len()*n.
func (k *Block) Gram(x mat.Matrix) *mat.Dense {
	n, _ := x.Dims()
	mats := make([]mat.Matrix, len(k.parts))
	for i, part := range k.parts {
		mats[i] = Gram(part, x)
	}
	return utils.BlockDiag(len(k.parts)*n, mats...)
}

// Cross-covariance between a new point and the design points x. Row i holds
// channel i's correlations in columns [i*n, (i+1)*n) and zeros elsewhere.
func (k *Block) Cross(a []float64, x mat.Matrix) *mat.Dense {
	n, _ := x.Dims()
	out := mat.NewDense(len(k.parts), len(k.parts)*n, nil)
	for i, part := range k.parts {
		out.SetRow(i, zeroPad(Row(part, a, x), i*n, len(k.parts)*n))
	}
	return out
}

func zeroPad(v []float64, offset, size int) []float64 {
	out := make([]float64, size)
	copy(out[offset:], v)
	return out
}
