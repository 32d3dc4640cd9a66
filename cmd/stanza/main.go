// Command stanza trains a transformer encoder on the toy sequence-reversal
// task: the model reads a sequence of one-hot categories and must predict
// the same sequence reversed, one class per position. Attention is the only
// mechanism that can move information across positions, so near-perfect
// accuracy demonstrates the whole stack end to end.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/stanza-ml/stanza/autodiff"
	"github.com/stanza-ml/stanza/backend/cpu"
	"github.com/stanza-ml/stanza/nn"
	"github.com/stanza-ml/stanza/optim"
	"github.com/stanza-ml/stanza/tensor"
)

type backendT = *autodiff.Backend[*cpu.Backend]

func main() {
	numClasses := flag.Int("classes", 10, "Number of token categories")
	seqLen := flag.Int("seqlen", 16, "Sequence length")
	modelDim := flag.Int("dim", 64, "Model (embedding) dimension")
	numHeads := flag.Int("heads", 4, "Attention heads per block")
	ffDim := flag.Int("ff", 128, "Feed-forward hidden dimension")
	numLayers := flag.Int("layers", 2, "Encoder blocks")
	dropout := flag.Float64("dropout", 0.1, "Dropout probability")
	steps := flag.Int("steps", 500, "Training steps")
	batchSize := flag.Int("batch", 64, "Batch size")
	lr := flag.Float64("lr", 0.001, "Learning rate for Adam")
	seed := flag.Int64("seed", 42, "Random seed")
	flag.Parse()

	fmt.Println("Stanza - Transformer Encoder Sequence Reversal")
	fmt.Println()

	rng := rand.New(rand.NewSource(*seed))
	nn.SetDropoutSeed(*seed)

	backend := autodiff.New(cpu.New())

	cfg := nn.PredictorConfig{
		InputDim:   *numClasses,
		ModelDim:   *modelDim,
		NumHeads:   *numHeads,
		FFDim:      *ffDim,
		NumLayers:  *numLayers,
		NumClasses: *numClasses,
		MaxLen:     *seqLen,
		Dropout:    float32(*dropout),
	}

	model, err := nn.NewSequencePredictor(cfg, backend)
	if err != nil {
		log.Fatalf("failed to build model: %v", err)
	}

	numParams := 0
	for _, p := range model.Parameters() {
		numParams += p.Tensor().NumElements()
	}

	fmt.Printf("Task:   reverse sequences of %d categories, length %d\n", *numClasses, *seqLen)
	fmt.Printf("Model:  %d layers, %d heads, dim %d, ff %d, dropout %.2f (%d parameters)\n",
		*numLayers, *numHeads, *modelDim, *ffDim, *dropout, numParams)
	fmt.Printf("Train:  %d steps, batch %d, Adam lr=%g, seed %d\n", *steps, *batchSize, *lr, *seed)
	fmt.Println()

	lossFn := nn.NewCrossEntropyLoss(backend)
	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: float32(*lr)})

	model.SetTraining(true)

	logEvery := *steps / 10
	if logEvery == 0 {
		logEvery = 1
	}

	for step := 1; step <= *steps; step++ {
		x, y := reversalBatch(rng, *batchSize, *seqLen, *numClasses, backend)

		backend.Tape().Clear()
		backend.Tape().StartRecording()

		logits := model.Forward(x).Reshape(*batchSize**seqLen, *numClasses)
		loss := lossFn.Forward(logits, y)

		grads := autodiff.Backward(loss, backend)
		backend.Tape().StopRecording()

		optimizer.Step(grads)
		optimizer.ZeroGrad()

		if step%logEvery == 0 || step == 1 {
			valLoss, valAcc := validate(model, lossFn, rng, *seqLen, *numClasses, backend)
			fmt.Printf("step %4d/%d: loss=%.4f  val_loss=%.4f  val_acc=%.2f%%\n",
				step, *steps, loss.Data()[0], valLoss, valAcc*100)
			model.SetTraining(true)
		}
	}

	fmt.Println()
	valLoss, valAcc := validate(model, lossFn, rng, *seqLen, *numClasses, backend)
	fmt.Printf("Final validation: loss=%.4f accuracy=%.2f%%\n", valLoss, valAcc*100)
}

// reversalBatch samples random category sequences as one-hot inputs with
// the reversed sequence as per-position class targets.
func reversalBatch(
	rng *rand.Rand,
	batch, seqLen, numClasses int,
	backend backendT,
) (*tensor.Tensor[float32, backendT], *tensor.Tensor[int32, backendT]) {
	inputs := make([]float32, batch*seqLen*numClasses)
	targets := make([]int32, batch*seqLen)

	for b := 0; b < batch; b++ {
		for p := 0; p < seqLen; p++ {
			token := rng.Intn(numClasses)
			inputs[(b*seqLen+p)*numClasses+token] = 1
			targets[b*seqLen+(seqLen-1-p)] = int32(token)
		}
	}

	x, err := tensor.FromSlice(inputs, tensor.Shape{batch, seqLen, numClasses}, backend)
	if err != nil {
		log.Fatalf("failed to build input batch: %v", err)
	}
	y, err := tensor.FromSlice(targets, tensor.Shape{batch * seqLen}, backend)
	if err != nil {
		log.Fatalf("failed to build target batch: %v", err)
	}
	return x, y
}

// validate evaluates loss and per-position accuracy on a fresh batch with
// dropout disabled and no tape recording.
func validate(
	model *nn.SequencePredictor[backendT],
	lossFn *nn.CrossEntropyLoss[backendT],
	rng *rand.Rand,
	seqLen, numClasses int,
	backend backendT,
) (float32, float32) {
	const valBatch = 128

	model.SetTraining(false)
	x, y := reversalBatch(rng, valBatch, seqLen, numClasses, backend)

	logits := model.Forward(x).Reshape(valBatch*seqLen, numClasses)
	loss := lossFn.Forward(logits, y)

	return loss.Data()[0], nn.Accuracy(logits, y)
}
