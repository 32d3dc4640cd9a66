package autodiff

import (
	"math"
	"testing"

	"github.com/stanza-ml/stanza/internal/backend/cpu"
	"github.com/stanza-ml/stanza/internal/tensor"
)

type testBackend = *AutodiffBackend[*cpu.CPUBackend]

func newTestBackend() testBackend {
	return New(cpu.New())
}

func fromSlice(t *testing.T, backend testBackend, data []float32, shape tensor.Shape) *tensor.Tensor[float32, testBackend] {
	t.Helper()
	x, err := tensor.FromSlice[float32, testBackend](data, shape, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x
}

func TestSquareGradient(t *testing.T) {
	backend := newTestBackend()
	backend.Tape().StartRecording()

	x := fromSlice(t, backend, []float32{2, 3, -1}, tensor.Shape{3})
	y := x.Mul(x)

	grads := Backward(y, backend)
	grad, ok := grads[x.Raw()]
	if !ok {
		t.Fatal("no gradient for x")
	}

	// dy/dx = 2x
	want := []float32{4, 6, -2}
	for i, v := range grad.AsFloat32() {
		if math.Abs(float64(v-want[i])) > 1e-5 {
			t.Errorf("grad[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestAddBroadcastGradient(t *testing.T) {
	backend := newTestBackend()
	backend.Tape().StartRecording()

	a := fromSlice(t, backend, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, backend, []float32{10, 20, 30}, tensor.Shape{3})

	y := a.Add(b)
	grads := Backward(y, backend)

	gradA := grads[a.Raw()]
	if gradA == nil || !gradA.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("gradA shape = %v, want [2 3]", gradA.Shape())
	}
	for _, v := range gradA.AsFloat32() {
		if v != 1 {
			t.Errorf("gradA element = %v, want 1", v)
		}
	}

	// b was broadcast over 2 rows, so its gradient sums to 2 per element.
	gradB := grads[b.Raw()]
	if gradB == nil || !gradB.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("gradB shape = %v, want [3]", gradB.Shape())
	}
	for _, v := range gradB.AsFloat32() {
		if v != 2 {
			t.Errorf("gradB element = %v, want 2", v)
		}
	}
}

func TestMulScalarGradient(t *testing.T) {
	backend := newTestBackend()
	backend.Tape().StartRecording()

	x := fromSlice(t, backend, []float32{1, 2, 3}, tensor.Shape{3})
	y := x.MulScalar(0.25)

	grads := Backward(y, backend)
	grad := grads[x.Raw()]
	if grad == nil {
		t.Fatal("no gradient for x through MulScalar")
	}
	for i, v := range grad.AsFloat32() {
		if math.Abs(float64(v)-0.25) > 1e-6 {
			t.Errorf("grad[%d] = %v, want 0.25", i, v)
		}
	}
}

func TestTransposeGradient(t *testing.T) {
	backend := newTestBackend()
	backend.Tape().StartRecording()

	x := fromSlice(t, backend, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	w := fromSlice(t, backend, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	// y = x @ wᵀ exercises TransposeOp feeding MatMulOp.
	y := x.MatMul(w.Transpose())

	grads := Backward(y, backend)
	gradW := grads[w.Raw()]
	if gradW == nil {
		t.Fatal("no gradient for transposed parameter")
	}
	if !gradW.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("gradW shape = %v, want [2 3]", gradW.Shape())
	}
}

func TestChunkGradient(t *testing.T) {
	backend := newTestBackend()
	backend.Tape().StartRecording()

	x := fromSlice(t, backend, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	chunks := x.Chunk(3, 1)

	// Only the middle chunk reaches the output. The others must receive
	// zero gradient and the input must still get a full-shape gradient.
	y := chunks[1].MulScalar(2)

	grads := Backward(y, backend)
	grad := grads[x.Raw()]
	if grad == nil {
		t.Fatal("no gradient for chunked input")
	}
	if !grad.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("grad shape = %v, want [2 3]", grad.Shape())
	}
	want := []float32{0, 2, 0, 0, 2, 0}
	for i, v := range grad.AsFloat32() {
		if math.Abs(float64(v-want[i])) > 1e-6 {
			t.Errorf("grad[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestMeanDimGradient(t *testing.T) {
	backend := newTestBackend()
	backend.Tape().StartRecording()

	x := fromSlice(t, backend, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	y := x.MeanDim(-1, true)

	grads := Backward(y, backend)
	grad := grads[x.Raw()]
	if grad == nil {
		t.Fatal("no gradient for x")
	}
	for i, v := range grad.AsFloat32() {
		if math.Abs(float64(v)-1.0/3.0) > 1e-6 {
			t.Errorf("grad[%d] = %v, want 1/3", i, v)
		}
	}
}

func TestCrossEntropyGradientRowsSumToZero(t *testing.T) {
	backend := newTestBackend()
	backend.Tape().StartRecording()

	logits := fromSlice(t, backend, []float32{2, 1, 0.5, -1, 3, 0}, tensor.Shape{2, 3})
	targets, err := tensor.FromSlice[int32, testBackend]([]int32{0, 1}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatalf("FromSlice targets: %v", err)
	}

	loss := tensor.New[float32, testBackend](backend.CrossEntropy(logits.Raw(), targets.Raw()), backend)
	if loss.Data()[0] <= 0 {
		t.Errorf("loss = %v, want > 0", loss.Data()[0])
	}

	grads := Backward(loss, backend)
	grad := grads[logits.Raw()]
	if grad == nil {
		t.Fatal("no gradient for logits")
	}

	// (softmax - onehot)/batch sums to zero over each row.
	data := grad.AsFloat32()
	for row := 0; row < 2; row++ {
		var sum float32
		for k := 0; k < 3; k++ {
			sum += data[row*3+k]
		}
		if math.Abs(float64(sum)) > 1e-5 {
			t.Errorf("row %d gradient sums to %v, want 0", row, sum)
		}
	}

	// Target class gradient is negative, others positive.
	if data[0] >= 0 {
		t.Errorf("target class gradient = %v, want < 0", data[0])
	}
	if data[1] <= 0 || data[2] <= 0 {
		t.Errorf("non-target gradients = %v, %v, want > 0", data[1], data[2])
	}
}

func TestTapeClear(t *testing.T) {
	backend := newTestBackend()
	backend.Tape().StartRecording()

	x := fromSlice(t, backend, []float32{1}, tensor.Shape{1})
	_ = x.Mul(x)

	if backend.Tape().NumOps() != 1 {
		t.Fatalf("NumOps = %d, want 1", backend.Tape().NumOps())
	}

	backend.Tape().Clear()
	if backend.Tape().NumOps() != 0 {
		t.Errorf("NumOps after Clear = %d, want 0", backend.Tape().NumOps())
	}
	if !backend.Tape().IsRecording() {
		t.Error("Clear must preserve recording state")
	}
}

func TestNoRecordingNoOps(t *testing.T) {
	backend := newTestBackend()

	x := fromSlice(t, backend, []float32{1, 2}, tensor.Shape{2})
	_ = x.Add(x)

	if backend.Tape().NumOps() != 0 {
		t.Errorf("NumOps = %d, want 0 when not recording", backend.Tape().NumOps())
	}
}
