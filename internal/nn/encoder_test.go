package nn

import (
	"math"
	"testing"

	"github.com/stanza-ml/stanza/internal/tensor"
)

func TestEncoderBlockPreservesShape(t *testing.T) {
	backend := newBackend()

	block := NewEncoderBlock[Backend](16, 4, 32, 0, backend)
	x := randTensor(tensor.Shape{2, 5, 16}, backend)

	output := block.Forward(x, nil)

	if !shapeEqual(output.Shape(), tensor.Shape{2, 5, 16}) {
		t.Errorf("output shape = %v, want [2 5 16]", output.Shape())
	}
}

func TestEncoderBlockOutputNormalized(t *testing.T) {
	backend := newBackend()
	dim := 16

	block := NewEncoderBlock[Backend](dim, 4, 32, 0, backend)
	x := randTensor(tensor.Shape{2, 4, dim}, backend)

	// Post-norm: the block output is the second LayerNorm's output, so
	// every feature row is normalized.
	output := block.Forward(x, nil).Data()
	for row := 0; row < len(output)/dim; row++ {
		slice := output[row*dim : (row+1)*dim]
		var mean float64
		for _, v := range slice {
			mean += float64(v)
		}
		mean /= float64(dim)
		if math.Abs(mean) > 1e-3 {
			t.Errorf("row %d: mean = %v, want ~0 after post-norm", row, mean)
		}
	}
}

func TestEncoderBlockWeightShape(t *testing.T) {
	backend := newBackend()

	block := NewEncoderBlock[Backend](8, 2, 16, 0, backend)
	x := randTensor(tensor.Shape{3, 6, 8}, backend)

	_, weights := block.ForwardWithWeights(x, nil)

	if !shapeEqual(weights.Shape(), tensor.Shape{3, 2, 6, 6}) {
		t.Errorf("weights shape = %v, want [3 2 6 6]", weights.Shape())
	}
}

func TestEncoderStackedLayers(t *testing.T) {
	backend := newBackend()

	enc := NewEncoder[Backend](3, 16, 4, 32, 0, backend)
	x := randTensor(tensor.Shape{2, 5, 16}, backend)

	output := enc.Forward(x, nil)

	if !shapeEqual(output.Shape(), tensor.Shape{2, 5, 16}) {
		t.Errorf("output shape = %v, want [2 5 16]", output.Shape())
	}
	if len(enc.Blocks) != 3 {
		t.Errorf("got %d blocks, want 3", len(enc.Blocks))
	}
}

func TestEncoderForwardWithAttention(t *testing.T) {
	backend := newBackend()

	enc := NewEncoder[Backend](2, 8, 2, 16, 0, backend)
	x := randTensor(tensor.Shape{1, 4, 8}, backend)

	output, weights := enc.ForwardWithAttention(x, nil)

	if !shapeEqual(output.Shape(), tensor.Shape{1, 4, 8}) {
		t.Errorf("output shape = %v, want [1 4 8]", output.Shape())
	}
	if len(weights) != 2 {
		t.Fatalf("got %d weight tensors, want one per block", len(weights))
	}
	for i, w := range weights {
		if !shapeEqual(w.Shape(), tensor.Shape{1, 2, 4, 4}) {
			t.Errorf("block %d weights shape = %v, want [1 2 4 4]", i, w.Shape())
		}
	}
}

func TestEncoderParameterCount(t *testing.T) {
	backend := newBackend()

	enc := NewEncoder[Backend](2, 8, 2, 16, 0, backend)

	// Per block: WQKV w+b, WO w+b, FFN W1 w+b, W2 w+b, two LayerNorms
	// gamma+beta each = 12.
	params := enc.Parameters()
	if len(params) != 24 {
		t.Errorf("got %d parameters, want 24", len(params))
	}
}

func TestEncoderRejectsZeroLayers(t *testing.T) {
	backend := newBackend()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for zero layers")
		}
	}()
	NewEncoder[Backend](0, 8, 2, 16, 0, backend)
}

func TestEncoderSetTrainingPropagates(t *testing.T) {
	backend := newBackend()

	enc := NewEncoder[Backend](2, 8, 2, 16, 0.1, backend)
	enc.SetTraining(true)

	for i, block := range enc.Blocks {
		if !block.Drop.Training() {
			t.Errorf("block %d residual dropout not in training mode", i)
		}
		if !block.FFN.Drop.Training() {
			t.Errorf("block %d FFN dropout not in training mode", i)
		}
	}

	enc.SetTraining(false)
	for i, block := range enc.Blocks {
		if block.Drop.Training() {
			t.Errorf("block %d residual dropout still in training mode", i)
		}
	}
}
