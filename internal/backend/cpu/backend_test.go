package cpu

import (
	"math"
	"testing"

	"github.com/stanza-ml/stanza/internal/tensor"
)

func rawFromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw(%v): %v", shape, err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func floatsEqual(a, b []float32, tol float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if d := a[i] - b[i]; d > tol || d < -tol {
			return false
		}
	}
	return true
}

func TestAdd(t *testing.T) {
	cpu := New()
	a := rawFromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := rawFromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	out := cpu.Add(a, b)
	want := []float32{11, 22, 33, 44}
	if !floatsEqual(out.AsFloat32(), want, 0) {
		t.Errorf("Add = %v, want %v", out.AsFloat32(), want)
	}
}

func TestAddBroadcast(t *testing.T) {
	cpu := New()
	a := rawFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFromSlice(t, []float32{10, 20, 30}, tensor.Shape{3})

	out := cpu.Add(a, b)
	if !out.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("Add broadcast shape = %v, want [2 3]", out.Shape())
	}
	want := []float32{11, 22, 33, 14, 25, 36}
	if !floatsEqual(out.AsFloat32(), want, 0) {
		t.Errorf("Add broadcast = %v, want %v", out.AsFloat32(), want)
	}
}

func TestAddBroadcastRow(t *testing.T) {
	cpu := New()
	a := rawFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFromSlice(t, []float32{100, 200}, tensor.Shape{2, 1})

	out := cpu.Add(a, b)
	want := []float32{101, 102, 103, 204, 205, 206}
	if !floatsEqual(out.AsFloat32(), want, 0) {
		t.Errorf("Add broadcast = %v, want %v", out.AsFloat32(), want)
	}
}

func TestMulScalar(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1, -2, 3}, tensor.Shape{3})

	out := cpu.MulScalar(x, 0.5)
	want := []float32{0.5, -1, 1.5}
	if !floatsEqual(out.AsFloat32(), want, 1e-6) {
		t.Errorf("MulScalar = %v, want %v", out.AsFloat32(), want)
	}
}

func TestMatMul(t *testing.T) {
	cpu := New()
	a := rawFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFromSlice(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	out := cpu.MatMul(a, b)
	if !out.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("MatMul shape = %v, want [2 2]", out.Shape())
	}
	want := []float32{58, 64, 139, 154}
	if !floatsEqual(out.AsFloat32(), want, 1e-5) {
		t.Errorf("MatMul = %v, want %v", out.AsFloat32(), want)
	}
}

func TestMatMulShapeMismatch(t *testing.T) {
	cpu := New()
	a := rawFromSlice(t, make([]float32, 6), tensor.Shape{2, 3})
	b := rawFromSlice(t, make([]float32, 8), tensor.Shape{4, 2})

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on inner dimension mismatch")
		}
	}()
	cpu.MatMul(a, b)
}

func TestBatchMatMul(t *testing.T) {
	cpu := New()
	// Two identity-ish batches to keep the expectation readable.
	a := rawFromSlice(t, []float32{
		1, 0, 0, 1,
		2, 0, 0, 2,
	}, tensor.Shape{2, 2, 2})
	b := rawFromSlice(t, []float32{
		5, 6, 7, 8,
		5, 6, 7, 8,
	}, tensor.Shape{2, 2, 2})

	out := cpu.BatchMatMul(a, b)
	if !out.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Fatalf("BatchMatMul shape = %v, want [2 2 2]", out.Shape())
	}
	want := []float32{5, 6, 7, 8, 10, 12, 14, 16}
	if !floatsEqual(out.AsFloat32(), want, 1e-5) {
		t.Errorf("BatchMatMul = %v, want %v", out.AsFloat32(), want)
	}
}

func TestBatchMatMul4D(t *testing.T) {
	cpu := New()
	a := rawFromSlice(t, make([]float32, 2*3*4*5), tensor.Shape{2, 3, 4, 5})
	b := rawFromSlice(t, make([]float32, 2*3*5*6), tensor.Shape{2, 3, 5, 6})

	out := cpu.BatchMatMul(a, b)
	if !out.Shape().Equal(tensor.Shape{2, 3, 4, 6}) {
		t.Errorf("BatchMatMul 4D shape = %v, want [2 3 4 6]", out.Shape())
	}
}

func TestSoftmax(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1, 2, 3, 1, 1, 1}, tensor.Shape{2, 3})

	out := cpu.Softmax(x, -1)
	probs := out.AsFloat32()

	for row := 0; row < 2; row++ {
		var sum float32
		for k := 0; k < 3; k++ {
			p := probs[row*3+k]
			if p < 0 || p > 1 {
				t.Errorf("softmax[%d][%d] = %v out of [0, 1]", row, k, p)
			}
			sum += p
		}
		if math.Abs(float64(sum)-1) > 1e-5 {
			t.Errorf("row %d sums to %v, want 1", row, sum)
		}
	}

	// Uniform logits produce uniform probabilities.
	for k := 0; k < 3; k++ {
		if math.Abs(float64(probs[3+k])-1.0/3.0) > 1e-5 {
			t.Errorf("uniform row prob[%d] = %v, want 1/3", k, probs[3+k])
		}
	}
}

func TestSoftmaxLargeValues(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1000, 1001, 1002}, tensor.Shape{1, 3})

	out := cpu.Softmax(x, -1)
	var sum float32
	for _, p := range out.AsFloat32() {
		if math.IsNaN(float64(p)) || math.IsInf(float64(p), 0) {
			t.Fatalf("softmax produced %v on large inputs", p)
		}
		sum += p
	}
	if math.Abs(float64(sum)-1) > 1e-5 {
		t.Errorf("softmax sum = %v, want 1", sum)
	}
}

func TestSoftmaxInnerDim(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})

	out := cpu.Softmax(x, 0)
	probs := out.AsFloat32()
	for col := 0; col < 2; col++ {
		var sum float32
		for row := 0; row < 3; row++ {
			sum += probs[row*2+col]
		}
		if math.Abs(float64(sum)-1) > 1e-5 {
			t.Errorf("column %d sums to %v, want 1", col, sum)
		}
	}
}

func TestReLU(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{5})

	out := cpu.ReLU(x)
	want := []float32{0, 0, 0, 0.5, 2}
	if !floatsEqual(out.AsFloat32(), want, 0) {
		t.Errorf("ReLU = %v, want %v", out.AsFloat32(), want)
	}
}

func TestRsqrt(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1, 4, 16}, tensor.Shape{3})

	out := cpu.Rsqrt(x)
	want := []float32{1, 0.5, 0.25}
	if !floatsEqual(out.AsFloat32(), want, 1e-6) {
		t.Errorf("Rsqrt = %v, want %v", out.AsFloat32(), want)
	}
}

func TestTranspose2D(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := cpu.Transpose(x)
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Transpose shape = %v, want [3 2]", out.Shape())
	}
	want := []float32{1, 4, 2, 5, 3, 6}
	if !floatsEqual(out.AsFloat32(), want, 0) {
		t.Errorf("Transpose = %v, want %v", out.AsFloat32(), want)
	}
}

func TestTranspose4DAxes(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, make([]float32, 2*3*4*5), tensor.Shape{2, 3, 4, 5})
	data := x.AsFloat32()
	for i := range data {
		data[i] = float32(i)
	}

	out := cpu.Transpose(x, 0, 2, 1, 3)
	if !out.Shape().Equal(tensor.Shape{2, 4, 3, 5}) {
		t.Fatalf("Transpose shape = %v, want [2 4 3 5]", out.Shape())
	}

	// Transposing back with the same permutation must restore the original.
	back := cpu.Transpose(out, 0, 2, 1, 3)
	if !floatsEqual(back.AsFloat32(), x.AsFloat32(), 0) {
		t.Error("double transpose did not restore input")
	}
}

func TestReshape(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := cpu.Reshape(x, tensor.Shape{3, 2})
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Reshape shape = %v, want [3 2]", out.Shape())
	}
	if !floatsEqual(out.AsFloat32(), x.AsFloat32(), 0) {
		t.Error("reshape changed element order")
	}
}

func TestUnsqueeze(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := cpu.Unsqueeze(x, 0)
	if !out.Shape().Equal(tensor.Shape{1, 2, 3}) {
		t.Errorf("Unsqueeze(0) shape = %v, want [1 2 3]", out.Shape())
	}

	out = cpu.Unsqueeze(x, -1)
	if !out.Shape().Equal(tensor.Shape{2, 3, 1}) {
		t.Errorf("Unsqueeze(-1) shape = %v, want [2 3 1]", out.Shape())
	}
}

func TestCatChunkRoundTrip(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, tensor.Shape{2, 6})

	chunks := cpu.Chunk(x, 3, 1)
	if len(chunks) != 3 {
		t.Fatalf("Chunk returned %d tensors, want 3", len(chunks))
	}
	for i, c := range chunks {
		if !c.Shape().Equal(tensor.Shape{2, 2}) {
			t.Fatalf("chunk %d shape = %v, want [2 2]", i, c.Shape())
		}
	}
	if !floatsEqual(chunks[0].AsFloat32(), []float32{1, 2, 7, 8}, 0) {
		t.Errorf("chunk 0 = %v, want [1 2 7 8]", chunks[0].AsFloat32())
	}

	back := cpu.Cat(chunks, 1)
	if !floatsEqual(back.AsFloat32(), x.AsFloat32(), 0) {
		t.Errorf("Cat(Chunk(x)) = %v, want %v", back.AsFloat32(), x.AsFloat32())
	}
}

func TestChunkIndivisible(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, make([]float32, 10), tensor.Shape{2, 5})

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic when chunk count does not divide dimension")
		}
	}()
	cpu.Chunk(x, 3, 1)
}

func TestSumDim(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := cpu.SumDim(x, 1, false)
	if !out.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("SumDim shape = %v, want [2]", out.Shape())
	}
	want := []float32{6, 15}
	if !floatsEqual(out.AsFloat32(), want, 1e-6) {
		t.Errorf("SumDim = %v, want %v", out.AsFloat32(), want)
	}

	kept := cpu.SumDim(x, 1, true)
	if !kept.Shape().Equal(tensor.Shape{2, 1}) {
		t.Errorf("SumDim keepDim shape = %v, want [2 1]", kept.Shape())
	}
}

func TestMeanDim(t *testing.T) {
	cpu := New()
	x := rawFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := cpu.MeanDim(x, -1, true)
	if !out.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("MeanDim shape = %v, want [2 1]", out.Shape())
	}
	want := []float32{2, 5}
	if !floatsEqual(out.AsFloat32(), want, 1e-6) {
		t.Errorf("MeanDim = %v, want %v", out.AsFloat32(), want)
	}
}
