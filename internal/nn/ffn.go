package nn

import (
	"fmt"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// FeedForward is the position-wise feed-forward network of an encoder
// block: Linear -> ReLU -> Dropout -> Linear. It expands to hiddenDim and
// projects back to modelDim, applied independently at every position.
type FeedForward[B tensor.Backend] struct {
	W1      *Linear[B] // [hidden_dim, model_dim]
	W2      *Linear[B] // [model_dim, hidden_dim]
	Drop    *Dropout[B]
	backend B
}

// NewFeedForward creates a feed-forward network with the given expansion.
func NewFeedForward[B tensor.Backend](modelDim, hiddenDim int, dropout float32, backend B) *FeedForward[B] {
	return &FeedForward[B]{
		W1:      NewLinear[B](modelDim, hiddenDim, backend),
		W2:      NewLinear[B](hiddenDim, modelDim, backend),
		Drop:    NewDropout(dropout, backend),
		backend: backend,
	}
}

// SetTraining toggles dropout.
func (f *FeedForward[B]) SetTraining(training bool) {
	f.Drop.SetTraining(training)
}

// Forward applies the network position-wise.
// Input: [batch, seq, model_dim]. Shape is preserved.
func (f *FeedForward[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("FeedForward.Forward: expected 3D input [batch, seq, dim], got %v", shape))
	}

	batch, seq, dim := shape[0], shape[1], shape[2]

	// Linear works on 2D, so flatten batch and sequence around it.
	h := f.W1.Forward(x.Reshape(batch*seq, dim))
	h = h.ReLU()
	h = f.Drop.Forward(h)
	out := f.W2.Forward(h)

	return out.Reshape(batch, seq, dim)
}

// Parameters returns the parameters of both projections.
func (f *FeedForward[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 4)
	params = append(params, f.W1.Parameters()...)
	params = append(params, f.W2.Parameters()...)
	return params
}
