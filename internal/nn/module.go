// Package nn implements the neural network modules of the encoder stack:
// linear projections, layer normalization, attention, positional encoding
// and the sequence predictor that ties them together.
//
// Modules are generic over the tensor backend, so the same model code runs
// on a plain CPU backend for inference and on an autodiff-wrapped backend
// for training.
package nn

import (
	"github.com/stanza-ml/stanza/internal/tensor"
)

// Module is the base interface for network components.
type Module[B tensor.Backend] interface {
	// Forward computes the module output for the given input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters, including those of
	// nested modules. Modules without parameters return an empty slice.
	Parameters() []*Parameter[B]
}
