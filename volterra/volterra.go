// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package volterra provides a truncated discrete Volterra series regressor.
//
// The model maps a window of Memory input taps to a scalar output through kernels
// of order 1 to Order (at most 3), plus a bias:
//
//	model, err := volterra.New(volterra.Config{Memory: 8, Order: 2, Seed: 1})
//	model.SetBatchSize(32)
//	err = model.Build()
//	y, err := model.Predict(rows)
//
// Train it with the train package.
package volterra

import "github.com/born-ml/volterra/internal/volterra"

// Model is a Volterra series regressor.
type Model = volterra.Model

// Config describes the model architecture and initialization.
type Config = volterra.Config

// MaxOrder is the highest supported kernel order.
const MaxOrder = volterra.MaxOrder

// Errors returned by Model.
var (
	ErrInvalidConfig = volterra.ErrInvalidConfig
	ErrNotBuilt      = volterra.ErrNotBuilt
	ErrShapeMismatch = volterra.ErrShapeMismatch
	ErrNotFed        = volterra.ErrNotFed
)

// New creates an unbuilt model.
func New(cfg Config) (*Model, error) {
	return volterra.New(cfg)
}

// NumTerms returns the number of distinct coefficients of an order-k kernel over
// m taps.
func NumTerms(m, k int) int {
	return volterra.NumTerms(m, k)
}

// ConfigFromMetadata reconstructs the architecture stored in checkpoint metadata.
func ConfigFromMetadata(meta map[string]string) (Config, error) {
	return volterra.ConfigFromMetadata(meta)
}
