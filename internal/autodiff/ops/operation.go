// Package ops defines the differentiable operations recorded on the
// gradient tape. Each operation captures its inputs and output during the
// forward pass and knows how to turn an output gradient into input
// gradients during the backward pass.
package ops

import "github.com/stanza-ml/stanza/internal/tensor"

// Operation is a node in the recorded computation graph.
type Operation interface {
	// Backward computes gradients for the inputs given the output gradient.
	// The returned slice is aligned with Inputs().
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor this operation produced.
	Output() *tensor.RawTensor
}

// MultiOutputOperation is an operation with several outputs, such as Chunk.
// The tape collects gradients for all outputs before calling BackwardMulti.
type MultiOutputOperation interface {
	Operation

	// Outputs returns every output tensor of this operation.
	Outputs() []*tensor.RawTensor

	// BackwardMulti computes input gradients from the gradients of all
	// outputs. Used instead of Backward for multi-output operations.
	BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}
