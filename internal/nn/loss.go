package nn

import (
	"fmt"
	"math"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// CrossEntropyLoss computes mean softmax cross-entropy over a batch of
// class predictions.
//
//	loss = mean_b(-log_softmax(logits[b])[target[b]])
//
// Logits are raw scores [batch, classes]; targets are class indices
// [batch]. The log-sum-exp trick keeps the computation stable for large
// logits.
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates a cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{backend: backend}
}

// Forward computes the scalar mean loss. On a backend with a fused
// CrossEntropy operation (the autodiff backend) the loss is recorded on
// the tape; otherwise it is computed directly.
func (c *CrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("CrossEntropyLoss: logits must be 2D [batch, classes], got %v", shape))
	}
	if len(targets.Shape()) != 1 || targets.Shape()[0] != shape[0] {
		panic(fmt.Sprintf("CrossEntropyLoss: targets must be [batch], got %v for batch %d", targets.Shape(), shape[0]))
	}

	type crossEntropyBackend interface {
		CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
	}
	if adBackend, ok := any(c.backend).(crossEntropyBackend); ok {
		return tensor.New[float32, B](adBackend.CrossEntropy(logits.Raw(), targets.Raw()), c.backend)
	}

	batch, classes := shape[0], shape[1]
	logitsData := logits.Raw().AsFloat32()
	targetsData := targets.Raw().AsInt32()

	var total float64
	for b := 0; b < batch; b++ {
		row := logitsData[b*classes : (b+1)*classes]

		target := int(targetsData[b])
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("CrossEntropyLoss: target %d out of range [0, %d)", target, classes))
		}

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		total += math.Log(sumExp) - float64(row[target]-maxVal)
	}

	lossRaw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, c.backend.Device())
	if err != nil {
		panic(err)
	}
	lossRaw.AsFloat32()[0] = float32(total / float64(batch))

	return tensor.New[float32, B](lossRaw, c.backend)
}

// Parameters returns nil; the loss has no trainable state.
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] {
	return nil
}

// Accuracy returns the fraction of rows whose argmax matches the target.
// Logits are [batch, classes], targets [batch].
func Accuracy[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) float32 {
	shape := logits.Shape()
	batch, classes := shape[0], shape[1]

	logitsData := logits.Raw().AsFloat32()
	targetsData := targets.Raw().AsInt32()

	correct := 0
	for b := 0; b < batch; b++ {
		if argmax(logitsData[b*classes:(b+1)*classes]) == int(targetsData[b]) {
			correct++
		}
	}
	return float32(correct) / float32(batch)
}

// argmax returns the index of the largest value. Ties go to the first.
func argmax(values []float32) int {
	best := 0
	for i, v := range values[1:] {
		if v > values[best] {
			best = i + 1
		}
	}
	return best
}
