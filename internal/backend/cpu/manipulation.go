package cpu

import (
	"fmt"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// Reshape returns a view of x with a new shape. Element count must match.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if x.NumElements() != shape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %s (%d elements) to %s (%d elements)",
			x.Shape(), x.NumElements(), shape, shape.NumElements()))
	}
	return x.WithShape(shape)
}

// Transpose permutes the axes of x. With no axes given, reverses them.
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	nd := len(x.Shape())
	if len(axes) == 0 {
		axes = make([]int, nd)
		for i := range axes {
			axes[i] = nd - 1 - i
		}
	}
	if len(axes) != nd {
		panic(fmt.Sprintf("transpose: got %d axes for %dD tensor", len(axes), nd))
	}

	seen := make([]bool, nd)
	for _, ax := range axes {
		if ax < 0 || ax >= nd || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes %v for shape %s", axes, x.Shape()))
		}
		seen[ax] = true
	}

	inShape := x.Shape()
	outShape := make(tensor.Shape, nd)
	for i, ax := range axes {
		outShape[i] = inShape[ax]
	}

	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: failed to create result tensor: %v", err))
	}

	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("transpose: unsupported dtype %s (only float32 supported)", x.DType()))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()

	inStrides := inShape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	n := x.NumElements()
	for i := 0; i < n; i++ {
		srcIdx := 0
		rem := i
		for d := 0; d < nd; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += coord * inStrides[axes[d]]
		}
		dst[i] = src[srcIdx]
	}
	return result
}

// Unsqueeze inserts a dimension of size 1 at the given position.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	nd := len(x.Shape())
	if dim < 0 {
		dim += nd + 1
	}
	if dim < 0 || dim > nd {
		panic(fmt.Sprintf("unsqueeze: dim %d out of range for %dD tensor", dim, nd))
	}

	newShape := make(tensor.Shape, 0, nd+1)
	newShape = append(newShape, x.Shape()[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, x.Shape()[dim:]...)
	return x.WithShape(newShape)
}

// Cat concatenates tensors along the given dimension. All inputs must share
// dtype and every dimension except dim.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: empty tensor list")
	}

	first := tensors[0]
	nd := len(first.Shape())
	if dim < 0 {
		dim += nd
	}
	if dim < 0 || dim >= nd {
		panic(fmt.Sprintf("cat: dim %d out of range for %dD tensors", dim, nd))
	}

	catSize := 0
	for _, t := range tensors {
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: dtype mismatch: %s vs %s", first.DType(), t.DType()))
		}
		if len(t.Shape()) != nd {
			panic(fmt.Sprintf("cat: rank mismatch: %s vs %s", first.Shape(), t.Shape()))
		}
		for d := 0; d < nd; d++ {
			if d != dim && t.Shape()[d] != first.Shape()[d] {
				panic(fmt.Sprintf("cat: shape mismatch on dim %d: %s vs %s", d, first.Shape(), t.Shape()))
			}
		}
		catSize += t.Shape()[dim]
	}

	outShape := first.Shape().Clone()
	outShape[dim] = catSize

	result, err := tensor.NewRaw(outShape, first.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cat: failed to create result tensor: %v", err))
	}

	// outer = product of dims before dim, inner = product after, in elements.
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= outShape[d]
	}
	inner := 1
	for d := dim + 1; d < nd; d++ {
		inner *= outShape[d]
	}

	elemSize := first.DType().Size()
	dst := result.Data()
	rowBytes := catSize * inner * elemSize

	offset := 0
	for _, t := range tensors {
		src := t.Data()
		tRowBytes := t.Shape()[dim] * inner * elemSize
		for o := 0; o < outer; o++ {
			copy(dst[o*rowBytes+offset:], src[o*tRowBytes:(o+1)*tRowBytes])
		}
		offset += tRowBytes
	}
	return result
}

// Chunk splits x into n equal parts along the given dimension.
// The dimension size must be divisible by n.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	nd := len(x.Shape())
	if dim < 0 {
		dim += nd
	}
	if dim < 0 || dim >= nd {
		panic(fmt.Sprintf("chunk: dim %d out of range for %dD tensor", dim, nd))
	}
	if n <= 0 {
		panic(fmt.Sprintf("chunk: invalid chunk count %d", n))
	}
	if x.Shape()[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d of size %d not divisible by %d", dim, x.Shape()[dim], n))
	}

	chunkSize := x.Shape()[dim] / n
	outShape := x.Shape().Clone()
	outShape[dim] = chunkSize

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= x.Shape()[d]
	}
	inner := 1
	for d := dim + 1; d < nd; d++ {
		inner *= x.Shape()[d]
	}

	elemSize := x.DType().Size()
	src := x.Data()
	srcRowBytes := x.Shape()[dim] * inner * elemSize
	chunkRowBytes := chunkSize * inner * elemSize

	results := make([]*tensor.RawTensor, n)
	for c := 0; c < n; c++ {
		out, err := tensor.NewRaw(outShape.Clone(), x.DType(), cpu.device)
		if err != nil {
			panic(fmt.Sprintf("chunk: failed to create result tensor: %v", err))
		}
		dst := out.Data()
		for o := 0; o < outer; o++ {
			start := o*srcRowBytes + c*chunkRowBytes
			copy(dst[o*chunkRowBytes:], src[start:start+chunkRowBytes])
		}
		results[c] = out
	}
	return results
}
