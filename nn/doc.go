// Copyright 2026 Stanza ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides transformer encoder building blocks.
//
// # Overview
//
// This package contains:
//   - Attention: ScaledDotProductAttention, MultiHeadAttention, mask builders
//   - Encoder: EncoderBlock (post-norm), Encoder stack, FeedForward
//   - Layers: Linear, LayerNorm, Dropout, SinusoidalPositionalEncoding
//   - Model: SequencePredictor with per-position class logits
//   - Loss: CrossEntropyLoss, Accuracy
//   - Utilities: Module interface, Parameter, Xavier initialization
//
// # Basic Usage
//
//	import (
//	    "github.com/stanza-ml/stanza/nn"
//	    "github.com/stanza-ml/stanza/autodiff"
//	    "github.com/stanza-ml/stanza/backend/cpu"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    model, err := nn.NewSequencePredictor(nn.PredictorConfig{
//	        InputDim:   10,
//	        ModelDim:   64,
//	        NumHeads:   4,
//	        FFDim:      128,
//	        NumLayers:  2,
//	        NumClasses: 10,
//	        MaxLen:     32,
//	        Dropout:    0.1,
//	    }, backend)
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    logits := model.Forward(input) // [batch, seq, classes]
//	}
//
// # Training Mode
//
// Dropout is a training-time behavior. Toggle it through the owning
// module:
//
//	model.SetTraining(true)  // dropout active
//	model.SetTraining(false) // identity at inference
package nn
