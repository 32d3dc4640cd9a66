// Copyright 2026 Stanza ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - gonum BLAS for matrix products
//   - Parallel batched matrix multiplication
//   - NumPy-compatible broadcasting
//   - Numerically stable softmax
//
// # Basic Usage
//
//	import (
//	    "github.com/stanza-ml/stanza/backend/cpu"
//	    "github.com/stanza-ml/stanza/tensor"
//	    "github.com/stanza-ml/stanza/nn"
//	)
//
//	func main() {
//	    // Create CPU backend
//	    backend := cpu.New()
//
//	    // Use with tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    // Use with neural network modules
//	    layer := nn.NewLinear(64, 32, backend)
//	}
//
// # Thread Safety
//
// Operations allocate their outputs and never mutate inputs, so distinct
// tensors can be computed on concurrently. Batched matrix products spread
// work over goroutines internally.
package cpu
