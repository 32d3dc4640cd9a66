package cpu

import (
	"fmt"
	"math"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// Softmax applies the softmax function along the given dimension, with the
// usual max-subtraction trick for numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s (only float32 supported)", x.DType()))
	}

	nd := len(x.Shape())
	if dim < 0 {
		dim += nd
	}
	if dim < 0 || dim >= nd {
		panic(fmt.Sprintf("softmax: dim %d out of range for %dD tensor", dim, nd))
	}

	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: failed to create result tensor: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()

	dimSize := x.Shape()[dim]
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= x.Shape()[d]
	}
	inner := 1
	for d := dim + 1; d < nd; d++ {
		inner *= x.Shape()[d]
	}

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			maxVal := float32(math.Inf(-1))
			for k := 0; k < dimSize; k++ {
				if v := src[base+k*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum float32
			for k := 0; k < dimSize; k++ {
				e := float32(math.Exp(float64(src[base+k*inner] - maxVal)))
				dst[base+k*inner] = e
				sum += e
			}

			inv := 1.0 / sum
			for k := 0; k < dimSize; k++ {
				dst[base+k*inner] *= inv
			}
		}
	}
	return result
}

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("relu", x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Rsqrt computes the element-wise reciprocal square root.
func (cpu *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("rsqrt", x, func(v float32) float32 {
		return float32(1.0 / math.Sqrt(float64(v)))
	})
}
