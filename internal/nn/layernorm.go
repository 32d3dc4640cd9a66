package nn

import (
	"github.com/stanza-ml/stanza/internal/tensor"
)

// LayerNorm normalizes over the last dimension:
//
//	y = gamma * (x - mean(x)) / sqrt(var(x) + eps) + beta
//
// Mean and variance are computed per position over the feature dimension.
// The variance is the biased (population) estimate.
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model]
	Beta    *Parameter[B] // learnable shift [d_model]
	Epsilon float32
	backend B
}

// NewLayerNorm creates a LayerNorm over the given feature size.
// Gamma starts at ones, beta at zeros.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return &LayerNorm[B]{
		Gamma:   NewParameter("gamma", Ones(tensor.Shape{normalizedShape}, backend)),
		Beta:    NewParameter("beta", Zeros(tensor.Shape{normalizedShape}, backend)),
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward normalizes x along its last dimension. Shape is preserved.
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	mean := x.MeanDim(-1, true)
	xCentered := x.Sub(mean)

	variance := xCentered.Mul(xCentered).MeanDim(-1, true)
	invStd := variance.AddScalar(float64(l.Epsilon)).Rsqrt()

	xNorm := xCentered.Mul(invStd)

	// gamma and beta are [d_model]; unsqueeze to the input rank so the
	// broadcast (and its gradient reduction) lines up dimension by dimension.
	gamma := l.Gamma.Tensor()
	beta := l.Beta.Tensor()
	for i := 0; i < len(x.Shape())-1; i++ {
		gamma = gamma.Unsqueeze(0)
		beta = beta.Unsqueeze(0)
	}

	return xNorm.Mul(gamma).Add(beta)
}

// Parameters returns gamma and beta.
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}
