package autodiff

import (
	"math"
	"testing"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// numericalGrad estimates df/dx[i] with central differences. f must reduce
// the input to a scalar without touching the tape.
func numericalGrad(f func([]float32) float32, x []float32, eps float32) []float32 {
	grad := make([]float32, len(x))
	for i := range x {
		orig := x[i]

		x[i] = orig + eps
		plus := f(x)
		x[i] = orig - eps
		minus := f(x)
		x[i] = orig

		grad[i] = (plus - minus) / (2 * eps)
	}
	return grad
}

func checkGrads(t *testing.T, analytic, numeric []float32, tol float64) {
	t.Helper()
	if len(analytic) != len(numeric) {
		t.Fatalf("gradient length mismatch: %d vs %d", len(analytic), len(numeric))
	}
	for i := range analytic {
		diff := math.Abs(float64(analytic[i] - numeric[i]))
		if diff > tol {
			t.Errorf("grad[%d]: analytic %v vs numeric %v (diff %v)", i, analytic[i], numeric[i], diff)
		}
	}
}

func TestMatMulGradientCheck(t *testing.T) {
	backend := newTestBackend()

	aData := []float32{0.5, -0.3, 0.8, 0.1, -0.6, 0.4}
	bData := []float32{0.2, 0.7, -0.5, 0.9, 0.3, -0.1}

	// Scalar loss: sum of all elements of A @ B.
	loss := func(a, b []float32) float32 {
		var sum float32
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				for k := 0; k < 3; k++ {
					sum += a[i*3+k] * b[k*2+j]
				}
			}
		}
		return sum
	}

	backend.Tape().StartRecording()
	a := fromSlice(t, backend, append([]float32(nil), aData...), tensor.Shape{2, 3})
	b := fromSlice(t, backend, append([]float32(nil), bData...), tensor.Shape{3, 2})
	y := a.MatMul(b)
	grads := Backward(y, backend)

	numericA := numericalGrad(func(x []float32) float32 { return loss(x, bData) }, aData, 1e-2)
	numericB := numericalGrad(func(x []float32) float32 { return loss(aData, x) }, bData, 1e-2)

	checkGrads(t, grads[a.Raw()].AsFloat32(), numericA, 1e-2)
	checkGrads(t, grads[b.Raw()].AsFloat32(), numericB, 1e-2)
}

func TestSoftmaxGradientCheck(t *testing.T) {
	backend := newTestBackend()

	xData := []float32{0.5, -0.2, 0.9, 0.1, 1.2, -0.7, 0.3, 0.0}

	// Loss: weighted sum of softmax outputs so the gradient is non-trivial.
	weights := []float32{1, -2, 3, -1, 2, 1, -3, 0.5}

	softmaxSum := func(x []float32) float32 {
		var total float32
		for row := 0; row < 2; row++ {
			maxVal := x[row*4]
			for k := 1; k < 4; k++ {
				if x[row*4+k] > maxVal {
					maxVal = x[row*4+k]
				}
			}
			var sum float64
			for k := 0; k < 4; k++ {
				sum += math.Exp(float64(x[row*4+k] - maxVal))
			}
			for k := 0; k < 4; k++ {
				p := float32(math.Exp(float64(x[row*4+k]-maxVal)) / sum)
				total += weights[row*4+k] * p
			}
		}
		return total
	}

	backend.Tape().StartRecording()
	x := fromSlice(t, backend, append([]float32(nil), xData...), tensor.Shape{2, 4})
	w := fromSlice(t, backend, weights, tensor.Shape{2, 4})
	y := x.Softmax(-1).Mul(w)
	grads := Backward(y, backend)

	numeric := numericalGrad(softmaxSum, xData, 1e-2)
	checkGrads(t, grads[x.Raw()].AsFloat32(), numeric, 1e-2)
}

func TestSoftmax4DGradientCheck(t *testing.T) {
	backend := newTestBackend()

	// [1, 2, 2, 3] mirrors an attention score tensor with 2 heads.
	xData := []float32{
		0.5, -0.2, 0.9,
		0.1, 1.2, -0.7,
		-0.3, 0.4, 0.8,
		0.6, -1.0, 0.2,
	}

	softmaxSum := func(x []float32) float32 {
		var total float32
		for row := 0; row < 4; row++ {
			maxVal := x[row*3]
			for k := 1; k < 3; k++ {
				if x[row*3+k] > maxVal {
					maxVal = x[row*3+k]
				}
			}
			var sum float64
			for k := 0; k < 3; k++ {
				sum += math.Exp(float64(x[row*3+k] - maxVal))
			}
			for k := 0; k < 3; k++ {
				p := float32(math.Exp(float64(x[row*3+k]-maxVal)) / sum)
				total += float32(row+1) * p * p
			}
		}
		return total
	}

	backend.Tape().StartRecording()
	x := fromSlice(t, backend, append([]float32(nil), xData...), tensor.Shape{1, 2, 2, 3})

	s := x.Softmax(-1)
	rowScale := fromSlice(t, backend, []float32{1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4}, tensor.Shape{1, 2, 2, 3})
	y := s.Mul(s).Mul(rowScale)
	grads := Backward(y, backend)

	numeric := numericalGrad(softmaxSum, xData, 1e-2)
	checkGrads(t, grads[x.Raw()].AsFloat32(), numeric, 2e-2)
}

func TestRsqrtGradientCheck(t *testing.T) {
	backend := newTestBackend()

	xData := []float32{0.5, 1.0, 2.0, 4.0}

	backend.Tape().StartRecording()
	x := fromSlice(t, backend, append([]float32(nil), xData...), tensor.Shape{4})
	y := x.Rsqrt()
	grads := Backward(y, backend)

	numeric := numericalGrad(func(v []float32) float32 {
		var sum float32
		for _, x := range v {
			sum += float32(1.0 / math.Sqrt(float64(x)))
		}
		return sum
	}, xData, 1e-3)

	checkGrads(t, grads[x.Raw()].AsFloat32(), numeric, 1e-2)
}

func TestDivGradientCheck(t *testing.T) {
	backend := newTestBackend()

	aData := []float32{1.0, -2.0, 3.0}
	bData := []float32{2.0, 4.0, -1.5}

	backend.Tape().StartRecording()
	a := fromSlice(t, backend, append([]float32(nil), aData...), tensor.Shape{3})
	b := fromSlice(t, backend, append([]float32(nil), bData...), tensor.Shape{3})
	y := a.Div(b)
	grads := Backward(y, backend)

	divSum := func(x, d []float32) float32 {
		var sum float32
		for i := range x {
			sum += x[i] / d[i]
		}
		return sum
	}

	numericA := numericalGrad(func(v []float32) float32 { return divSum(v, bData) }, aData, 1e-3)
	numericB := numericalGrad(func(v []float32) float32 { return divSum(aData, v) }, bData, 1e-3)

	checkGrads(t, grads[a.Raw()].AsFloat32(), numericA, 1e-2)
	checkGrads(t, grads[b.Raw()].AsFloat32(), numericB, 1e-2)
}
