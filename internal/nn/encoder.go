package nn

import (
	"fmt"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// EncoderBlock is one post-norm transformer encoder layer:
//
//	x = LayerNorm(x + Dropout(MultiHeadAttention(x)))
//	x = LayerNorm(x + Dropout(FeedForward(x)))
//
// Normalization happens after each residual connection, following the
// original encoder formulation.
type EncoderBlock[B tensor.Backend] struct {
	Attention *MultiHeadAttention[B]
	FFN       *FeedForward[B]
	Norm1     *LayerNorm[B]
	Norm2     *LayerNorm[B]
	Drop      *Dropout[B]
	backend   B
}

// NewEncoderBlock creates an encoder layer.
// modelDim must be divisible by numHeads.
func NewEncoderBlock[B tensor.Backend](modelDim, numHeads, ffDim int, dropout float32, backend B) *EncoderBlock[B] {
	return &EncoderBlock[B]{
		Attention: NewMultiHeadAttention[B](modelDim, numHeads, backend),
		FFN:       NewFeedForward[B](modelDim, ffDim, dropout, backend),
		Norm1:     NewLayerNorm[B](modelDim, 1e-5, backend),
		Norm2:     NewLayerNorm[B](modelDim, 1e-5, backend),
		Drop:      NewDropout(dropout, backend),
		backend:   backend,
	}
}

// SetTraining toggles dropout in the block and its feed-forward network.
func (e *EncoderBlock[B]) SetTraining(training bool) {
	e.Drop.SetTraining(training)
	e.FFN.SetTraining(training)
}

// Forward runs the block over x [batch, seq, model_dim] with an optional
// additive attention mask. Shape is preserved.
func (e *EncoderBlock[B]) Forward(
	x *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	out, _ := e.ForwardWithWeights(x, mask)
	return out
}

// ForwardWithWeights is Forward plus the block's attention weights
// [batch, heads, seq, seq].
func (e *EncoderBlock[B]) ForwardWithWeights(
	x *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	attnOut, weights := e.Attention.ForwardWithWeights(x, mask)
	x = e.Norm1.Forward(x.Add(e.Drop.Forward(attnOut)))

	ffnOut := e.FFN.Forward(x)
	x = e.Norm2.Forward(x.Add(e.Drop.Forward(ffnOut)))

	return x, weights
}

// Parameters returns all trainable parameters of the block.
func (e *EncoderBlock[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 12)
	params = append(params, e.Attention.Parameters()...)
	params = append(params, e.FFN.Parameters()...)
	params = append(params, e.Norm1.Parameters()...)
	params = append(params, e.Norm2.Parameters()...)
	return params
}

// Encoder stacks encoder blocks and applies them in sequence.
type Encoder[B tensor.Backend] struct {
	Blocks  []*EncoderBlock[B]
	backend B
}

// NewEncoder creates a stack of numLayers encoder blocks.
func NewEncoder[B tensor.Backend](numLayers, modelDim, numHeads, ffDim int, dropout float32, backend B) *Encoder[B] {
	if numLayers <= 0 {
		panic(fmt.Sprintf("Encoder: num_layers must be positive, got %d", numLayers))
	}

	blocks := make([]*EncoderBlock[B], numLayers)
	for i := range blocks {
		blocks[i] = NewEncoderBlock[B](modelDim, numHeads, ffDim, dropout, backend)
	}
	return &Encoder[B]{Blocks: blocks, backend: backend}
}

// SetTraining toggles dropout in every block.
func (e *Encoder[B]) SetTraining(training bool) {
	for _, block := range e.Blocks {
		block.SetTraining(training)
	}
}

// Forward runs all blocks over x [batch, seq, model_dim].
func (e *Encoder[B]) Forward(
	x *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	for _, block := range e.Blocks {
		x = block.Forward(x, mask)
	}
	return x
}

// ForwardWithAttention runs all blocks and collects each layer's
// attention weights, one [batch, heads, seq, seq] tensor per block.
func (e *Encoder[B]) ForwardWithAttention(
	x *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], []*tensor.Tensor[float32, B]) {
	weights := make([]*tensor.Tensor[float32, B], 0, len(e.Blocks))
	for _, block := range e.Blocks {
		var w *tensor.Tensor[float32, B]
		x, w = block.ForwardWithWeights(x, mask)
		weights = append(weights, w)
	}
	return x, weights
}

// Parameters returns the parameters of every block.
func (e *Encoder[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, block := range e.Blocks {
		params = append(params, block.Parameters()...)
	}
	return params
}
