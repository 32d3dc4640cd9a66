package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/stanza-ml/stanza/internal/parallel"
	"github.com/stanza-ml/stanza/internal/tensor"
)

// MatMul performs 2D matrix multiplication via gonum BLAS (sgemm).
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("matmul: unsupported dtypes %s, %s (only float32 supported)", a.DType(), b.DType()))
	}
	if len(a.Shape()) != 2 || len(b.Shape()) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %s and %s", a.Shape(), b.Shape()))
	}

	m, k := a.Shape()[0], a.Shape()[1]
	k2, n := b.Shape()[0], b.Shape()[1]
	if k != k2 {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch: %s x %s", a.Shape(), b.Shape()))
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	gemm(m, n, k, a.AsFloat32(), b.AsFloat32(), result.AsFloat32())
	return result
}

// BatchMatMul multiplies the trailing two dimensions of 3D or 4D tensors,
// iterating over the leading batch dimensions. Batch shapes must match.
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("batchmatmul: unsupported dtypes %s, %s (only float32 supported)", a.DType(), b.DType()))
	}

	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) < 3 || len(aShape) > 4 || len(aShape) != len(bShape) {
		panic(fmt.Sprintf("batchmatmul: expected matching 3D or 4D tensors, got %s and %s", aShape, bShape))
	}

	nd := len(aShape)
	batch := 1
	for d := 0; d < nd-2; d++ {
		if aShape[d] != bShape[d] {
			panic(fmt.Sprintf("batchmatmul: batch dimensions mismatch: %s x %s", aShape, bShape))
		}
		batch *= aShape[d]
	}

	m, k := aShape[nd-2], aShape[nd-1]
	k2, n := bShape[nd-2], bShape[nd-1]
	if k != k2 {
		panic(fmt.Sprintf("batchmatmul: inner dimensions mismatch: %s x %s", aShape, bShape))
	}

	outShape := aShape.Clone()
	outShape[nd-1] = n

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("batchmatmul: failed to create result tensor: %v", err))
	}

	srcA := a.AsFloat32()
	srcB := b.AsFloat32()
	dst := result.AsFloat32()

	// Each batch element writes a disjoint slice of dst.
	parallel.For(batch, func(i int) {
		gemm(m, n, k,
			srcA[i*m*k:(i+1)*m*k],
			srcB[i*k*n:(i+1)*k*n],
			dst[i*m*n:(i+1)*m*n])
	}, cpu.parallel)
	return result
}

// gemm computes C = A @ B for row-major float32 matrices.
func gemm(m, n, k int, a, b, c []float32) {
	blas32.Implementation().Sgemm(blas.NoTrans, blas.NoTrans,
		m, n, k,
		1.0, a, k,
		b, n,
		0.0, c, n)
}
