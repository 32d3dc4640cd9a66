package nn

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// dropoutRand drives mask sampling for all Dropout modules.
var dropoutRand *rand.Rand

// SetDropoutSeed seeds the dropout mask generator, making training runs
// reproducible.
func SetDropoutSeed(seed int64) {
	dropoutRand = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible masks, not security-critical
}

// Dropout zeroes elements with probability P during training and scales
// survivors by 1/(1-P), so the expected activation matches evaluation
// mode. In evaluation mode the input passes through unchanged.
//
// The mask is applied as an element-wise multiply, so gradients flow
// through the surviving elements on an autodiff backend.
type Dropout[B tensor.Backend] struct {
	P        float32
	training bool
	backend  B
}

// NewDropout creates a Dropout module with the given drop probability.
func NewDropout[B tensor.Backend](p float32, backend B) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{P: p, backend: backend}
}

// SetTraining switches between training (masking) and evaluation
// (identity) behavior.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether the module is in training mode.
func (d *Dropout[B]) Training() bool {
	return d.training
}

// Forward applies inverted dropout.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.P == 0 {
		return x
	}

	if dropoutRand == nil {
		dropoutRand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // see SetDropoutSeed
	}

	mask := tensor.Zeros[float32](x.Shape(), d.backend)
	scale := float32(1.0 / (1.0 - d.P))
	data := mask.Data()
	for i := range data {
		if dropoutRand.Float32() >= d.P {
			data[i] = scale
		}
	}

	return x.Mul(mask)
}

// Parameters returns an empty slice; dropout has no trainable state.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}
