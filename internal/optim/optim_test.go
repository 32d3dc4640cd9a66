package optim

import (
	"math"
	"testing"

	"github.com/stanza-ml/stanza/internal/autodiff"
	"github.com/stanza-ml/stanza/internal/backend/cpu"
	"github.com/stanza-ml/stanza/internal/nn"
	"github.com/stanza-ml/stanza/internal/tensor"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// quadraticStep runs one step minimizing f(x) = sum((x - target)²).
func quadraticStep(t *testing.T, backend testBackend, param *nn.Parameter[testBackend], target float32, opt Optimizer) float32 {
	t.Helper()

	backend.Tape().Clear()
	backend.Tape().StartRecording()

	x := param.Tensor()
	targetTensor := tensor.Full[float32](x.Shape(), target, backend)
	diff := x.Sub(targetTensor)
	loss := diff.Mul(diff)

	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()

	opt.Step(grads)
	opt.ZeroGrad()

	var total float32
	for _, v := range loss.Data() {
		total += v
	}
	return total
}

func TestSGDConvergesOnQuadratic(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, err := tensor.FromSlice[float32, testBackend]([]float32{0, 10}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	param := nn.NewParameter("x", x)

	opt := NewSGD([]*nn.Parameter[testBackend]{param}, SGDConfig{LR: 0.1})

	var loss float32
	for i := 0; i < 100; i++ {
		loss = quadraticStep(t, backend, param, 3.0, opt)
	}

	if loss > 1e-4 {
		t.Errorf("final loss = %v, want < 1e-4", loss)
	}
	for i, v := range param.Tensor().Data() {
		if math.Abs(float64(v)-3.0) > 0.01 {
			t.Errorf("param[%d] = %v, want ~3.0", i, v)
		}
	}
}

func TestSGDMomentumConverges(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, err := tensor.FromSlice[float32, testBackend]([]float32{-5}, tensor.Shape{1}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	param := nn.NewParameter("x", x)

	opt := NewSGD([]*nn.Parameter[testBackend]{param}, SGDConfig{LR: 0.05, Momentum: 0.9})

	for i := 0; i < 200; i++ {
		quadraticStep(t, backend, param, 2.0, opt)
	}

	got := param.Tensor().Data()[0]
	if math.Abs(float64(got)-2.0) > 0.05 {
		t.Errorf("param = %v, want ~2.0", got)
	}
}

func TestAdamConvergesOnQuadratic(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, err := tensor.FromSlice[float32, testBackend]([]float32{0, -4, 7}, tensor.Shape{3}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	param := nn.NewParameter("x", x)

	opt := NewAdam([]*nn.Parameter[testBackend]{param}, AdamConfig{LR: 0.1})

	for i := 0; i < 500; i++ {
		quadraticStep(t, backend, param, 1.0, opt)
	}

	for i, v := range param.Tensor().Data() {
		if math.Abs(float64(v)-1.0) > 0.05 {
			t.Errorf("param[%d] = %v, want ~1.0", i, v)
		}
	}
}

func TestAdamDefaults(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x := tensor.Zeros[float32](tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	opt := NewAdam([]*nn.Parameter[testBackend]{param}, AdamConfig{})
	if got := opt.GetLR(); got != 0.001 {
		t.Errorf("default LR = %v, want 0.001", got)
	}
	if opt.beta1 != 0.9 || opt.beta2 != 0.999 {
		t.Errorf("default betas = (%v, %v), want (0.9, 0.999)", opt.beta1, opt.beta2)
	}
}

func TestStepSkipsParamsWithoutGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, err := tensor.FromSlice[float32, testBackend]([]float32{1, 2}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	param := nn.NewParameter("x", x)

	opt := NewSGD([]*nn.Parameter[testBackend]{param}, SGDConfig{LR: 0.5})
	opt.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	want := []float32{1, 2}
	for i, v := range param.Tensor().Data() {
		if v != want[i] {
			t.Errorf("param[%d] = %v, want %v (unchanged)", i, v, want[i])
		}
	}
}
