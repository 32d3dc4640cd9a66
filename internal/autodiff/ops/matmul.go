package ops

import "github.com/stanza-ml/stanza/internal/tensor"

// MatMulOp records output = a @ b for 2D matrices.
//
// Backward:
//
//	dL/dA = dL/dC @ Bᵀ
//	dL/dB = Aᵀ @ dL/dC
type MatMulOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]

	gradA := backend.MatMul(outputGrad, backend.Transpose(b, 1, 0))
	gradB := backend.MatMul(backend.Transpose(a, 1, 0), outputGrad)

	return []*tensor.RawTensor{gradA, gradB}
}

func (op *MatMulOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MatMulOp) Output() *tensor.RawTensor  { return op.output }

// BatchMatMulOp records output = a @ b over the trailing two dimensions.
// The same matmul gradient formulas apply per batch element, with the
// transpose swapping only the last two axes.
type BatchMatMulOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewBatchMatMulOp creates a new BatchMatMulOp.
func NewBatchMatMulOp(a, b, output *tensor.RawTensor) *BatchMatMulOp {
	return &BatchMatMulOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

func (op *BatchMatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	axes := lastTwoSwapped(len(a.Shape()))

	gradA := backend.BatchMatMul(outputGrad, backend.Transpose(b, axes...))
	gradB := backend.BatchMatMul(backend.Transpose(a, axes...), outputGrad)

	return []*tensor.RawTensor{gradA, gradB}
}

func (op *BatchMatMulOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *BatchMatMulOp) Output() *tensor.RawTensor  { return op.output }
