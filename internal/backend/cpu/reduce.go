package cpu

import (
	"fmt"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// SumDim sums over the given dimension. With keepDim the reduced dimension
// stays as size 1, otherwise it is removed.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sumdim", x, dim, keepDim, 1.0)
}

// MeanDim averages over the given dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	nd := len(x.Shape())
	d := dim
	if d < 0 {
		d += nd
	}
	if d < 0 || d >= nd {
		panic(fmt.Sprintf("meandim: dim %d out of range for %dD tensor", dim, nd))
	}
	return cpu.reduceDim("meandim", x, dim, keepDim, 1.0/float32(x.Shape()[d]))
}

func (cpu *CPUBackend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim bool, scale float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", name, x.DType()))
	}

	nd := len(x.Shape())
	if dim < 0 {
		dim += nd
	}
	if dim < 0 || dim >= nd {
		panic(fmt.Sprintf("%s: dim %d out of range for %dD tensor", name, dim, nd))
	}

	dimSize := x.Shape()[dim]
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= x.Shape()[d]
	}
	inner := 1
	for d := dim + 1; d < nd; d++ {
		inner *= x.Shape()[d]
	}

	var outShape tensor.Shape
	if keepDim {
		outShape = x.Shape().Clone()
		outShape[dim] = 1
	} else {
		outShape = make(tensor.Shape, 0, nd-1)
		for d := 0; d < nd; d++ {
			if d != dim {
				outShape = append(outShape, x.Shape()[d])
			}
		}
		if len(outShape) == 0 {
			outShape = tensor.Shape{1}
		}
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			var sum float32
			base := o*dimSize*inner + in
			for k := 0; k < dimSize; k++ {
				sum += src[base+k*inner]
			}
			dst[o*inner+in] = sum * scale
		}
	}
	return result
}
