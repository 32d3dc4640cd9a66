package nn

import (
	"fmt"
	"math"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// ScaledDotProductAttention computes the attention core:
//
//	Attention(Q, K, V) = softmax(QKᵀ * scale + mask) @ V
//
// Shapes:
//   - query: [batch, heads, seq_q, head_dim]
//   - key:   [batch, heads, seq_k, head_dim]
//   - value: [batch, heads, seq_k, head_dim]
//   - mask:  additive, broadcastable to [batch, heads, seq_q, seq_k], or nil
//
// scale is the multiplier applied to the raw scores; pass 0 to use the
// standard 1/sqrt(head_dim).
//
// Returns the attended values [batch, heads, seq_q, head_dim] and the
// attention weights [batch, heads, seq_q, seq_k]. Each weight row is a
// probability distribution over key positions.
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
	scale float32,
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	validateAttentionInputs(query, key, value)

	if scale == 0 {
		scale = float32(1.0 / math.Sqrt(float64(query.Shape()[3])))
	}

	// QKᵀ over the trailing two dims: [batch, heads, seq_q, seq_k]
	kT := key.Transpose(0, 1, 3, 2)
	scores := query.BatchMatMul(kT).MulScalar(float64(scale))

	if mask != nil {
		scores = scores.Add(mask)
	}

	weights := scores.Softmax(-1)
	output := weights.BatchMatMul(value)

	return output, weights
}

func validateAttentionInputs[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
) {
	if len(query.Shape()) != 4 {
		panic("ScaledDotProductAttention: query must be 4D [batch, heads, seq_q, head_dim]")
	}
	if len(key.Shape()) != 4 {
		panic("ScaledDotProductAttention: key must be 4D [batch, heads, seq_k, head_dim]")
	}
	if len(value.Shape()) != 4 {
		panic("ScaledDotProductAttention: value must be 4D [batch, heads, seq_k, head_dim]")
	}
	if query.Shape()[3] != key.Shape()[3] {
		panic("ScaledDotProductAttention: query and key must have same head_dim")
	}
	if key.Shape()[2] != value.Shape()[2] {
		panic("ScaledDotProductAttention: key and value must have same seq length")
	}
}

// CausalMask builds an additive mask blocking attention to future
// positions. The upper triangle holds -inf, everything else 0.
//
// Shape: [1, 1, seqLen, seqLen], broadcastable over batch and heads.
func CausalMask[B tensor.Backend](seqLen int, backend B) *tensor.Tensor[float32, B] {
	mask := tensor.Zeros[float32](tensor.Shape{1, 1, seqLen, seqLen}, backend)

	negInf := float32(math.Inf(-1))
	data := mask.Data()
	for i := 0; i < seqLen; i++ {
		for j := i + 1; j < seqLen; j++ {
			data[i*seqLen+j] = negInf
		}
	}

	return mask
}

// PaddingMask builds an additive mask hiding padded key positions.
// lengths[b] gives the valid length of sequence b; positions at or beyond
// it receive -inf for every query.
//
// Shape: [batch, 1, 1, seqLen], broadcastable over heads and queries.
func PaddingMask[B tensor.Backend](lengths []int, seqLen int, backend B) *tensor.Tensor[float32, B] {
	batch := len(lengths)
	mask := tensor.Zeros[float32](tensor.Shape{batch, 1, 1, seqLen}, backend)

	negInf := float32(math.Inf(-1))
	data := mask.Data()
	for b, n := range lengths {
		if n < 0 || n > seqLen {
			panic(fmt.Sprintf("PaddingMask: length %d out of range for seqLen %d", n, seqLen))
		}
		for j := n; j < seqLen; j++ {
			data[b*seqLen+j] = negInf
		}
	}

	return mask
}
