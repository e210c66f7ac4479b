// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float64 tensors holding model parameters,
// gradients and optimizer state.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	v := x.Vec() // gonum view sharing x's storage
package tensor

import (
	"github.com/born-ml/volterra/internal/tensor"
)

// Type aliases for public API

// Tensor is a dense row-major float64 tensor.
type Tensor = tensor.Tensor

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// DataType identifies an on-disk element type.
type DataType = tensor.DataType

// Supported on-disk element types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
)

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}
