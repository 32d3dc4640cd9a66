package nn

import (
	"fmt"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// MultiHeadAttention implements multi-head attention with a combined
// query/key/value projection:
//
//	qkv = x @ Wqkvᵀ + b          [batch, seq, 3*embed_dim]
//	q, k, v = chunk(qkv, 3)      each [batch, seq, embed_dim]
//	head_i = SDPA(split(q), split(k), split(v))
//	MHA(x) = Concat(head_1..head_h) @ Woᵀ
//
// The single fused projection produces Q, K and V in one matmul; the
// chunk keeps the three paths differentiable back to the shared weight.
type MultiHeadAttention[B tensor.Backend] struct {
	WQKV     *Linear[B] // fused projection [3*embed_dim, embed_dim]
	WO       *Linear[B] // output projection [embed_dim, embed_dim]
	NumHeads int
	HeadDim  int
	EmbedDim int
	backend  B
}

// NewMultiHeadAttention creates a multi-head attention module.
// embedDim must be divisible by numHeads.
func NewMultiHeadAttention[B tensor.Backend](
	embedDim, numHeads int,
	backend B,
) *MultiHeadAttention[B] {
	if numHeads <= 0 {
		panic(fmt.Sprintf("MultiHeadAttention: num_heads must be positive, got %d", numHeads))
	}
	if embedDim%numHeads != 0 {
		panic(fmt.Sprintf("MultiHeadAttention: embed_dim (%d) must be divisible by num_heads (%d)", embedDim, numHeads))
	}

	return &MultiHeadAttention[B]{
		WQKV:     NewLinear[B](embedDim, 3*embedDim, backend),
		WO:       NewLinear[B](embedDim, embedDim, backend),
		NumHeads: numHeads,
		HeadDim:  embedDim / numHeads,
		EmbedDim: embedDim,
		backend:  backend,
	}
}

// Forward computes self-attention over x [batch, seq, embed_dim].
// mask is additive and broadcastable to [batch, heads, seq, seq], or nil.
// Returns [batch, seq, embed_dim].
func (m *MultiHeadAttention[B]) Forward(
	x *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	output, _ := m.ForwardWithWeights(x, mask)
	return output
}

// ForwardWithWeights is Forward plus the per-head attention weights
// [batch, heads, seq, seq], for inspection or visualization.
func (m *MultiHeadAttention[B]) ForwardWithWeights(
	x *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("MultiHeadAttention.Forward: expected 3D input [batch, seq, embed_dim], got %v", shape))
	}
	if shape[2] != m.EmbedDim {
		panic(fmt.Sprintf("MultiHeadAttention.Forward: expected embed_dim %d, got %d", m.EmbedDim, shape[2]))
	}

	batch, seq := shape[0], shape[1]

	// Fused projection, then split into the three roles.
	qkv := m.WQKV.Forward(x.Reshape(batch*seq, m.EmbedDim))
	parts := qkv.Chunk(3, 1)
	q, k, v := parts[0], parts[1], parts[2]

	// [batch*seq, embed] -> [batch, heads, seq, head_dim]
	q = q.Reshape(batch, seq, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)
	k = k.Reshape(batch, seq, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)
	v = v.Reshape(batch, seq, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)

	attnOut, weights := ScaledDotProductAttention(q, k, v, mask, 0)

	// Merge heads back: [batch, seq, embed_dim]
	attnOut = attnOut.Transpose(0, 2, 1, 3).Reshape(batch*seq, m.EmbedDim)
	output := m.WO.Forward(attnOut).Reshape(batch, seq, m.EmbedDim)

	return output, weights
}

// Parameters returns the fused projection and output projection parameters.
func (m *MultiHeadAttention[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 4)
	params = append(params, m.WQKV.Parameters()...)
	params = append(params, m.WO.Parameters()...)
	return params
}
