package ops

import (
	"fmt"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// SumDimOp records a sum over one dimension.
// The gradient broadcasts the output gradient back over the reduced axis.
type SumDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp. dim must already be non-negative.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{spreadAlongDim(outputGrad, op.input.Shape(), op.dim, 1.0)}
}

func (op *SumDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SumDimOp) Output() *tensor.RawTensor  { return op.output }

// MeanDimOp records a mean over one dimension.
// Each input element receives outputGrad / dimSize.
type MeanDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewMeanDimOp creates a new MeanDimOp. dim must already be non-negative.
func NewMeanDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	scale := 1.0 / float32(op.input.Shape()[op.dim])
	return []*tensor.RawTensor{spreadAlongDim(outputGrad, op.input.Shape(), op.dim, scale)}
}

func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *MeanDimOp) Output() *tensor.RawTensor  { return op.output }

// spreadAlongDim expands a reduced gradient back to the input shape,
// replicating each value dimSize times along dim and scaling.
// Works whether or not the forward pass kept the reduced dimension.
func spreadAlongDim(grad *tensor.RawTensor, inShape tensor.Shape, dim int, scale float32) *tensor.RawTensor {
	result, err := tensor.NewRaw(inShape, grad.DType(), grad.Device())
	if err != nil {
		panic(fmt.Sprintf("reduce backward: %v", err))
	}

	dimSize := inShape[dim]
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= inShape[d]
	}
	inner := 1
	for d := dim + 1; d < len(inShape); d++ {
		inner *= inShape[d]
	}

	src := grad.AsFloat32()
	dst := result.AsFloat32()
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			v := src[o*inner+in] * scale
			base := o*dimSize*inner + in
			for k := 0; k < dimSize; k++ {
				dst[base+k*inner] = v
			}
		}
	}
	return result
}
