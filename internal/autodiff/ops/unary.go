package ops

import (
	"fmt"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// ReLUOp records output = max(0, x).
// The gradient passes where the input was positive and is zero elsewhere.
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inputGrad, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("relu backward: %v", err))
	}

	x := op.input.AsFloat32()
	g := outputGrad.AsFloat32()
	dst := inputGrad.AsFloat32()
	for i := range dst {
		if x[i] > 0 {
			dst[i] = g[i]
		}
	}
	return []*tensor.RawTensor{inputGrad}
}

func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ReLUOp) Output() *tensor.RawTensor  { return op.output }

// RsqrtOp records output = x^(-1/2).
//
// d(x^-1/2)/dx = -1/2 * x^(-3/2) = -0.5 * y³ where y is the cached output.
type RsqrtOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewRsqrtOp creates a new RsqrtOp.
func NewRsqrtOp(input, output *tensor.RawTensor) *RsqrtOp {
	return &RsqrtOp{input: input, output: output}
}

func (op *RsqrtOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inputGrad, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("rsqrt backward: %v", err))
	}

	y := op.output.AsFloat32()
	g := outputGrad.AsFloat32()
	dst := inputGrad.AsFloat32()
	for i := range dst {
		dst[i] = -0.5 * y[i] * y[i] * y[i] * g[i]
	}
	return []*tensor.RawTensor{inputGrad}
}

func (op *RsqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *RsqrtOp) Output() *tensor.RawTensor  { return op.output }
