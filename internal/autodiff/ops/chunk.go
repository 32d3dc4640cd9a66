package ops

import "github.com/stanza-ml/stanza/internal/tensor"

// ChunkOp records splitting a tensor into n equal parts along a dimension.
// The backward pass concatenates the output gradients back together, so it
// needs gradients for every chunk and implements MultiOutputOperation.
type ChunkOp struct {
	input   *tensor.RawTensor
	n       int
	dim     int
	outputs []*tensor.RawTensor
}

// NewChunkOp creates a new ChunkOp. dim must already be non-negative.
func NewChunkOp(input *tensor.RawTensor, n, dim int, outputs []*tensor.RawTensor) *ChunkOp {
	return &ChunkOp{input: input, n: n, dim: dim, outputs: outputs}
}

func (op *ChunkOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the first chunk. The tape dispatches on
// MultiOutputOperation before ever using this for gradient lookup.
func (op *ChunkOp) Output() *tensor.RawTensor { return op.outputs[0] }

// Outputs returns all chunks.
func (op *ChunkOp) Outputs() []*tensor.RawTensor { return op.outputs }

func (op *ChunkOp) Backward(_ *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	panic("ChunkOp: use BackwardMulti, chunk has multiple outputs")
}

// BackwardMulti concatenates the chunk gradients along the split dimension.
func (op *ChunkOp) BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if len(outputGrads) != op.n {
		panic("ChunkOp: expected one gradient per chunk")
	}
	return []*tensor.RawTensor{backend.Cat(outputGrads, op.dim)}
}

// CatOp records concatenation along a dimension. The backward pass splits
// the output gradient back into per-input slices.
type CatOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewCatOp creates a new CatOp. dim must already be non-negative.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	return &CatOp{inputs: inputs, output: output, dim: dim}
}

func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// Inputs may have unequal sizes along dim, so Chunk only covers the
	// uniform case. Slice the gradient manually.
	grads := make([]*tensor.RawTensor, len(op.inputs))

	uniform := true
	first := op.inputs[0].Shape()[op.dim]
	for _, in := range op.inputs {
		if in.Shape()[op.dim] != first {
			uniform = false
			break
		}
	}
	if uniform {
		copy(grads, backend.Chunk(outputGrad, len(op.inputs), op.dim))
		return grads
	}

	offset := 0
	for i, in := range op.inputs {
		size := in.Shape()[op.dim]
		grads[i] = sliceAlongDim(outputGrad, op.dim, offset, size)
		offset += size
	}
	return grads
}

func (op *CatOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *CatOp) Output() *tensor.RawTensor  { return op.output }

// sliceAlongDim copies out elements [start, start+size) along dim.
func sliceAlongDim(t *tensor.RawTensor, dim, start, size int) *tensor.RawTensor {
	shape := t.Shape()
	outShape := shape.Clone()
	outShape[dim] = size

	result, err := tensor.NewRaw(outShape, t.DType(), t.Device())
	if err != nil {
		panic(err)
	}

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	elemSize := t.DType().Size()
	src := t.Data()
	dst := result.Data()
	srcRow := shape[dim] * inner * elemSize
	dstRow := size * inner * elemSize
	offset := start * inner * elemSize

	for o := 0; o < outer; o++ {
		copy(dst[o*dstRow:], src[o*srcRow+offset:o*srcRow+offset+dstRow])
	}
	return result
}
