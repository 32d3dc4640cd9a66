// Copyright 2026 Stanza ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/stanza-ml/stanza/internal/tensor"

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/cpu: pure Go with gonum BLAS matrix products
//
// Decorator backends for additional functionality:
//   - autodiff: automatic differentiation (wraps any backend)
//
// Example:
//
//	import (
//	    "github.com/stanza-ml/stanza/tensor"
//	    "github.com/stanza-ml/stanza/backend/cpu"
//	)
//
//	func compute(b tensor.Backend) {
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, b)
//	    _ = x
//	}
type Backend = tensor.Backend
