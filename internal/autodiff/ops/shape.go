package ops

import "github.com/stanza-ml/stanza/internal/tensor"

// ReshapeOp records a reshape. The gradient is the output gradient viewed
// under the input's original shape.
//
// Recording reshapes matters: the backend returns a new RawTensor header,
// and without the op on the tape a gradient computed for the view would
// never reach the original parameter.
type ReshapeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{input: input, output: output}
}

func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}

func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ReshapeOp) Output() *tensor.RawTensor  { return op.output }

// TransposeOp records an axis permutation. The gradient is transposed by
// the inverse permutation.
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

// NewTransposeOp creates a new TransposeOp. axes must be the resolved
// permutation used in the forward pass.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{input: input, output: output, axes: axes}
}

func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

func (op *TransposeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *TransposeOp) Output() *tensor.RawTensor  { return op.output }

// UnsqueezeOp records an inserted size-1 dimension. The gradient is the
// output gradient reshaped back to the input shape.
type UnsqueezeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewUnsqueezeOp creates a new UnsqueezeOp.
func NewUnsqueezeOp(input, output *tensor.RawTensor) *UnsqueezeOp {
	return &UnsqueezeOp{input: input, output: output}
}

func (op *UnsqueezeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}

func (op *UnsqueezeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *UnsqueezeOp) Output() *tensor.RawTensor  { return op.output }
