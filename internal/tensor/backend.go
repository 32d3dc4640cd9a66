package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations; the tensor
// package itself never computes anything.
//
// Implementations:
//   - CPU: pure Go with gonum BLAS for matrix products
//   - Autodiff: decorator adding gradient-tape recording to any backend
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations (element-wise with a scalar)
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Matrix operations
	// MatMul: 2D (M, K) @ (K, N) -> (M, N)
	MatMul(a, b *RawTensor) *RawTensor
	// BatchMatMul: 3D [B, M, K] @ [B, K, N] -> [B, M, N]
	// or 4D [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor

	// Activation and math operations
	Softmax(x *RawTensor, dim int) *RawTensor // numerically stable softmax along dim
	ReLU(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor // reciprocal square root

	// Reduction operations
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Manipulation operations
	Cat(tensors []*RawTensor, dim int) *RawTensor // concatenate along dimension
	Chunk(x *RawTensor, n, dim int) []*RawTensor  // split into n equal parts

	// Metadata
	Name() string
	Device() Device
}
