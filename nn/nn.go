// Copyright 2026 Stanza ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/stanza-ml/stanza/internal/nn"
	"github.com/stanza-ml/stanza/internal/tensor"
)

// Module defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected layer computing y = x @ Wᵀ + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(64, 32, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// LayerNorm normalizes over the feature dimension with learned scale and
// shift.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a LayerNorm over the given feature size.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm[B](normalizedShape, epsilon, backend)
}

// Dropout zeroes activations with probability P during training, scaling
// survivors by 1/(1-P).
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a Dropout module with the given drop probability.
func NewDropout[B tensor.Backend](p float32, backend B) *Dropout[B] {
	return nn.NewDropout[B](p, backend)
}

// SetDropoutSeed seeds the dropout mask generator, making training runs
// reproducible.
func SetDropoutSeed(seed int64) {
	nn.SetDropoutSeed(seed)
}

// Attention

// ScaledDotProductAttention computes attention over 4D
// [batch, heads, seq, head_dim] tensors, returning the attended values
// and the attention weights. Pass scale 0 to use 1/sqrt(head_dim).
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
	scale float32,
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	return nn.ScaledDotProductAttention(query, key, value, mask, scale)
}

// CausalMask returns an additive [1, 1, seqLen, seqLen] mask hiding
// future positions.
func CausalMask[B tensor.Backend](seqLen int, backend B) *tensor.Tensor[float32, B] {
	return nn.CausalMask(seqLen, backend)
}

// PaddingMask returns an additive [batch, 1, 1, seqLen] mask hiding key
// positions at or beyond each sequence's length.
func PaddingMask[B tensor.Backend](lengths []int, seqLen int, backend B) *tensor.Tensor[float32, B] {
	return nn.PaddingMask(lengths, seqLen, backend)
}

// MultiHeadAttention runs scaled dot-product attention over several
// heads with a fused Q/K/V projection.
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// NewMultiHeadAttention creates a multi-head attention module.
// embedDim must be divisible by numHeads.
func NewMultiHeadAttention[B tensor.Backend](embedDim, numHeads int, backend B) *MultiHeadAttention[B] {
	return nn.NewMultiHeadAttention[B](embedDim, numHeads, backend)
}

// Encoder

// SinusoidalPositionalEncoding adds fixed sinusoidal position
// information to embeddings.
type SinusoidalPositionalEncoding[B tensor.Backend] = nn.SinusoidalPositionalEncoding[B]

// NewSinusoidalPositionalEncoding precomputes encodings for positions up
// to maxLen.
func NewSinusoidalPositionalEncoding[B tensor.Backend](maxLen, dim int, backend B) *SinusoidalPositionalEncoding[B] {
	return nn.NewSinusoidalPositionalEncoding[B](maxLen, dim, backend)
}

// FeedForward is the position-wise Linear -> ReLU -> Dropout -> Linear
// network of an encoder block.
type FeedForward[B tensor.Backend] = nn.FeedForward[B]

// NewFeedForward creates a feed-forward network with the given expansion.
func NewFeedForward[B tensor.Backend](modelDim, hiddenDim int, dropout float32, backend B) *FeedForward[B] {
	return nn.NewFeedForward[B](modelDim, hiddenDim, dropout, backend)
}

// EncoderBlock is one post-norm transformer encoder layer.
type EncoderBlock[B tensor.Backend] = nn.EncoderBlock[B]

// NewEncoderBlock creates an encoder layer.
func NewEncoderBlock[B tensor.Backend](modelDim, numHeads, ffDim int, dropout float32, backend B) *EncoderBlock[B] {
	return nn.NewEncoderBlock[B](modelDim, numHeads, ffDim, dropout, backend)
}

// Encoder stacks encoder blocks and applies them in sequence.
type Encoder[B tensor.Backend] = nn.Encoder[B]

// NewEncoder creates a stack of numLayers encoder blocks.
func NewEncoder[B tensor.Backend](numLayers, modelDim, numHeads, ffDim int, dropout float32, backend B) *Encoder[B] {
	return nn.NewEncoder[B](numLayers, modelDim, numHeads, ffDim, dropout, backend)
}

// Model

// PredictorConfig holds the hyperparameters of a SequencePredictor.
type PredictorConfig = nn.PredictorConfig

// SequencePredictor maps an input sequence to per-position class logits.
type SequencePredictor[B tensor.Backend] = nn.SequencePredictor[B]

// NewSequencePredictor builds a predictor from the configuration.
//
// Example:
//
//	model, err := nn.NewSequencePredictor(nn.PredictorConfig{
//	    InputDim:   10,
//	    ModelDim:   64,
//	    NumHeads:   4,
//	    FFDim:      128,
//	    NumLayers:  2,
//	    NumClasses: 10,
//	    MaxLen:     32,
//	}, backend)
func NewSequencePredictor[B tensor.Backend](cfg PredictorConfig, backend B) (*SequencePredictor[B], error) {
	return nn.NewSequencePredictor[B](cfg, backend)
}

// Loss and metrics

// CrossEntropyLoss computes mean softmax cross-entropy over class
// predictions.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss[B](backend)
}

// Accuracy returns the fraction of rows whose argmax matches the target.
func Accuracy[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) float32 {
	return nn.Accuracy(logits, targets)
}

// Initialization

// Xavier creates a tensor with Xavier-uniform initialization.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Zeros creates a zero-initialized parameter tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a one-initialized parameter tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}
