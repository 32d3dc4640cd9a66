// Copyright 2026 Stanza ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the Stanza
// transformer library.
//
// # Overview
//
// Tensors are the fundamental data structure in Stanza. This package
// provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy views for reshape and unsqueeze
//   - A Backend seam separating the API from the compute engine
//
// # Basic Usage
//
//	import (
//	    "github.com/stanza-ml/stanza/tensor"
//	    "github.com/stanza-ml/stanza/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    result := x.MatMul(y.Transpose())
//	}
//
// # Supported Data Types
//
// The tensor package supports the following data types via the DType
// constraint:
//   - float32 (all arithmetic)
//   - int32 (class indices)
//   - bool (masks)
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)  // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)   // (3, 4)
//	c := a.Add(b)                                            // (3, 4)
//
// # Available Operations
//
// Tensor[T, B] dispatches every operation through its backend:
//
//	y := x.Add(b)            // element-wise, broadcast
//	y := x.MulScalar(2.0)    // scalar multiply
//	y := x.MatMul(w)         // 2D matrix product
//	y := x.BatchMatMul(w)    // batched 3D/4D matrix product
//	y := x.Softmax(-1)       // stable softmax along a dimension
//	y := x.MeanDim(-1, true) // keep-dim reduction
//	parts := x.Chunk(3, 1)   // split along a dimension
//
// See method documentation for the full list.
package tensor
