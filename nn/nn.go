// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/tensor"
)

// Module is implemented by models exposing named parameters.
type Module = nn.Module

// Parameter represents a trainable parameter.
type Parameter = nn.Parameter

// Gradients maps parameters to their gradients for one step.
type Gradients = nn.Gradients

// NewParameter creates a new trainable parameter with the given name and tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Loss functions

// MSELoss computes Mean Squared Error loss.
type MSELoss = nn.MSELoss

// NewMSELoss creates a new MSE loss function.
func NewMSELoss() *MSELoss {
	return nn.NewMSELoss()
}

// Checkpoints

// Checkpoint represents a complete training state snapshot.
type Checkpoint = nn.Checkpoint

// OptimizerState represents an optimizer that can save/load its state.
type OptimizerState = nn.OptimizerState

// ErrNotCheckpoint is returned when a file lacks checkpoint metadata.
var ErrNotCheckpoint = nn.ErrNotCheckpoint

// LoadCheckpoint restores a checkpoint into a built model and, when non-nil, an
// optimizer.
//
// Example:
//
//	model, _ := volterra.New(cfg)
//	_ = model.Build()
//	ckpt, err := nn.LoadCheckpoint("runs/1700000000/checkpoints/model-500", model, nil)
func LoadCheckpoint(path string, model Module, optimizer OptimizerState) (*Checkpoint, error) {
	return nn.LoadCheckpoint(path, model, optimizer)
}

// ReadCheckpointMetadata returns checkpoint metadata without loading tensors.
func ReadCheckpointMetadata(path string) (map[string]string, error) {
	return nn.ReadCheckpointMetadata(path)
}
