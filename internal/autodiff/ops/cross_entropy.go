package ops

import (
	"fmt"
	"math"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// CrossEntropyOp fuses softmax and negative log-likelihood.
//
// Forward:
//
//	loss = mean_b(-log_softmax(logits[b])[target[b]])
//
// Backward:
//
//	dL/dlogits[b,i] = (softmax(logits[b])[i] - onehot[b,i]) / batch
//
// The fused gradient avoids materializing the softmax Jacobian, which is
// why the two are combined here rather than chained as separate ops.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor // [batch, classes]
	targets *tensor.RawTensor // [batch] int32 class indices
	output  *tensor.RawTensor // scalar mean loss
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Inputs returns the logits. Targets are integer labels and take no gradient.
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }

func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross entropy backward: expected 2D logits, got %s", shape))
	}

	batch, classes := shape[0], shape[1]

	logitsGrad, err := tensor.NewRaw(shape, op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(err)
	}

	logits := op.logits.AsFloat32()
	targets := op.targets.AsInt32()
	dst := logitsGrad.AsFloat32()
	upstream := outputGrad.AsFloat32()[0]

	probs := make([]float32, classes)
	for b := 0; b < batch; b++ {
		row := logits[b*classes : (b+1)*classes]
		softmaxRow(row, probs)

		target := int(targets[b])
		for i := 0; i < classes; i++ {
			g := probs[i]
			if i == target {
				g -= 1.0
			}
			dst[b*classes+i] = upstream * g / float32(batch)
		}
	}

	return []*tensor.RawTensor{logitsGrad}
}

// softmaxRow computes softmax of src into dst with max subtraction.
func softmaxRow(src, dst []float32) {
	maxVal := src[0]
	for _, v := range src[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sum float32
	for i, v := range src {
		e := float32(math.Exp(float64(v - maxVal)))
		dst[i] = e
		sum += e
	}
	inv := 1.0 / sum
	for i := range dst {
		dst[i] *= inv
	}
}
