package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(fmt.Sprintf("zeros: %v", err))
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	fillOnes(t.raw)
	return t
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float32 tensor with values drawn from N(0, 1).
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	if t.DType() != Float32 {
		panic("randn: only float32 tensors supported")
	}
	data := t.raw.AsFloat32()
	for i := range data {
		data[i] = float32(rand.NormFloat64()) //nolint:gosec // initialization randomness, not security-critical
	}
	return t
}

func fillOnes(r *RawTensor) {
	switch r.DType() {
	case Float32:
		data := r.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case Int32:
		data := r.AsInt32()
		for i := range data {
			data[i] = 1
		}
	case Bool:
		data := r.AsBool()
		for i := range data {
			data[i] = true
		}
	}
}
