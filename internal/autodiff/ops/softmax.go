package ops

import (
	"fmt"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// SoftmaxOp records softmax along an arbitrary dimension.
//
// The Jacobian of softmax contracts to a per-slice formula:
//
//	dL/dx_j = s_j * (dL/ds_j - Σ_i dL/ds_i * s_i)
//
// where s is the cached softmax output and the sum runs over the softmax
// dimension. Attention weights are softmaxed along the last axis of a 4D
// score tensor, so the backward pass walks slices at any rank.
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewSoftmaxOp creates a new SoftmaxOp. dim must already be non-negative.
func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{input: input, output: output, dim: dim}
}

func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()

	inputGrad, err := tensor.NewRaw(shape, op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("softmax backward: %v", err))
	}

	s := op.output.AsFloat32()
	g := outputGrad.AsFloat32()
	dst := inputGrad.AsFloat32()

	dimSize := shape[op.dim]
	outer := 1
	for d := 0; d < op.dim; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := op.dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			var dot float32
			for k := 0; k < dimSize; k++ {
				idx := base + k*inner
				dot += g[idx] * s[idx]
			}
			for k := 0; k < dimSize; k++ {
				idx := base + k*inner
				dst[idx] = s[idx] * (g[idx] - dot)
			}
		}
	}

	return []*tensor.RawTensor{inputGrad}
}

func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.output }
