package ops

import (
	"fmt"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// reduceBroadcast reduces a gradient to the given target shape by summing
// over the dimensions that were broadcast during the forward pass.
// Broadcasting follows NumPy rules, so shapes align from the right.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// Leading dimensions absent from the target are summed away first.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = sumAlongDim(result, 0)
		result = backend.Reshape(result, result.Shape()[1:])
	}

	// Then sum over dimensions the target holds at size 1.
	for d := 0; d < len(targetShape); d++ {
		if targetShape[d] == 1 && result.Shape()[d] > 1 {
			result = sumAlongDim(result, d)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// sumAlongDim sums a tensor over one dimension, keeping it as size 1.
func sumAlongDim(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumAlongDim: invalid dimension %d for shape %v", dim, shape))
	}

	outShape := shape.Clone()
	outShape[dim] = 1

	result, err := tensor.NewRaw(outShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("sumAlongDim: failed to create result: %v", err))
	}

	dimSize := shape[dim]
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	src := t.AsFloat32()
	dst := result.AsFloat32()
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			var sum float32
			base := o*dimSize*inner + in
			for k := 0; k < dimSize; k++ {
				sum += src[base+k*inner]
			}
			dst[o*inner+in] = sum
		}
	}
	return result
}

// zerosLike allocates a zero gradient with the same shape and dtype as t.
func zerosLike(t *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("zerosLike: failed to create tensor: %v", err))
	}
	return result
}

// lastTwoSwapped builds the transpose axes that swap the trailing two
// dimensions, leaving the batch dimensions in place.
func lastTwoSwapped(ndim int) []int {
	axes := make([]int, ndim)
	for i := 0; i < ndim-2; i++ {
		axes[i] = i
	}
	axes[ndim-2] = ndim - 1
	axes[ndim-1] = ndim - 2
	return axes
}
