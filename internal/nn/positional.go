package nn

import (
	"fmt"
	"math"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// SinusoidalPositionalEncoding adds fixed sinusoidal position information
// to token embeddings, as in "Attention is All You Need":
//
//	PE(pos, 2i)   = sin(pos / 10000^(2i/d))
//	PE(pos, 2i+1) = cos(pos / 10000^(2i/d))
//
// The table is precomputed once for positions [0, maxLen). The encodings
// are deterministic and carry no trainable parameters; for any fixed
// offset k, PE(pos+k) is a linear function of PE(pos), which lets
// attention learn relative positions.
type SinusoidalPositionalEncoding[B tensor.Backend] struct {
	Encoding *tensor.Tensor[float32, B] // [max_len, dim] precomputed table
	MaxLen   int
	Dim      int
	backend  B
}

// NewSinusoidalPositionalEncoding precomputes encodings for positions up
// to maxLen.
func NewSinusoidalPositionalEncoding[B tensor.Backend](maxLen, dim int, backend B) *SinusoidalPositionalEncoding[B] {
	if maxLen <= 0 {
		panic(fmt.Sprintf("SinusoidalPositionalEncoding: maxLen must be positive, got %d", maxLen))
	}
	if dim <= 0 {
		panic(fmt.Sprintf("SinusoidalPositionalEncoding: dim must be positive, got %d", dim))
	}

	encodings := make([]float32, maxLen*dim)
	for pos := 0; pos < maxLen; pos++ {
		for i := 0; i < dim; i++ {
			angle := float64(pos) / math.Pow(10000.0, float64(2*(i/2))/float64(dim))

			idx := pos*dim + i
			if i%2 == 0 {
				encodings[idx] = float32(math.Sin(angle))
			} else {
				encodings[idx] = float32(math.Cos(angle))
			}
		}
	}

	encoding, err := tensor.FromSlice[float32, B](encodings, tensor.Shape{maxLen, dim}, backend)
	if err != nil {
		panic(fmt.Sprintf("failed to create encoding tensor: %v", err))
	}

	return &SinusoidalPositionalEncoding[B]{
		Encoding: encoding,
		MaxLen:   maxLen,
		Dim:      dim,
		backend:  backend,
	}
}

// Forward adds positional encodings to x [batch, seq, dim] and returns a
// tensor of the same shape. Panics if seq exceeds MaxLen or the feature
// dimension does not match.
func (s *SinusoidalPositionalEncoding[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("SinusoidalPositionalEncoding: expected 3D input [batch, seq, dim], got %v", shape))
	}
	if shape[2] != s.Dim {
		panic(fmt.Sprintf("SinusoidalPositionalEncoding: dim mismatch: input %d, encoding %d", shape[2], s.Dim))
	}

	return x.Add(s.Encodings(shape[1]))
}

// Encodings returns the table for the first seqLen positions, shaped
// [1, seqLen, dim] for broadcasting over the batch.
func (s *SinusoidalPositionalEncoding[B]) Encodings(seqLen int) *tensor.Tensor[float32, B] {
	if seqLen > s.MaxLen {
		panic(fmt.Sprintf("SinusoidalPositionalEncoding: seqLen %d exceeds MaxLen %d", seqLen, s.MaxLen))
	}

	encData := s.Encoding.Data()
	seqData := make([]float32, seqLen*s.Dim)
	copy(seqData, encData[:seqLen*s.Dim])

	seqEnc, err := tensor.FromSlice[float32, B](seqData, tensor.Shape{1, seqLen, s.Dim}, s.backend)
	if err != nil {
		panic(fmt.Sprintf("failed to create sequence encoding: %v", err))
	}
	return seqEnc
}

// Parameters returns an empty slice; the encodings are fixed.
func (s *SinusoidalPositionalEncoding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}
