// Copyright 2026 Stanza ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers for gradient descent training.
//
// # Overview
//
// Optimizers consume the gradient map produced by autodiff.Backward and
// update parameters in place:
//   - SGD: stochastic gradient descent with optional momentum
//   - Adam: adaptive moments with bias correction
//
// # Basic Usage
//
//	import (
//	    "github.com/stanza-ml/stanza/autodiff"
//	    "github.com/stanza-ml/stanza/backend/cpu"
//	    "github.com/stanza-ml/stanza/nn"
//	    "github.com/stanza-ml/stanza/optim"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    model, _ := nn.NewSequencePredictor(cfg, backend)
//	    optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	    for step := 0; step < steps; step++ {
//	        backend.Tape().Clear()
//	        backend.Tape().StartRecording()
//
//	        loss := trainStep(model)
//	        grads := autodiff.Backward(loss, backend)
//	        backend.Tape().StopRecording()
//
//	        optimizer.Step(grads)
//	        optimizer.ZeroGrad()
//	    }
//	}
//
// The optimizer is the sole writer of parameter state; updates happen
// strictly between passes, never during a recorded forward pass.
package optim
