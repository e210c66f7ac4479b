// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train runs the supervised training loop for Volterra models.
//
// # Basic Usage
//
//	model, _ := volterra.New(volterra.Config{Memory: 8, Order: 2})
//
//	opts := train.DefaultOptions()
//	opts.TrainX, opts.TrainY = trainX, trainY
//	opts.ValidationX, opts.ValidationY = valX, valY
//	opts.CheckpointEvery = 50
//	opts.PathSave = "out"
//
//	result, err := train.Run(ctx, model, opts)
//
// Run writes TensorBoard summaries to <path_save>/runs/<unix_ts>/summaries/{train,dev}
// and checkpoints to <path_save>/runs/<unix_ts>/checkpoints/model-<step>.
//
// # Hooks
//
// Extra per-step behavior is added with hooks; Every fires on a step cadence:
//
//	opts.Hooks = append(opts.Hooks, train.Every(10, func(ctx context.Context, e *train.StepEvent) error {
//	    log.Printf("step=%d loss=%.4f", e.Step, e.Loss)
//	    return nil
//	}))
package train

import (
	"context"
	"iter"

	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/optim"
	"github.com/born-ml/volterra/internal/train"
)

// Model is the handle the training loop drives.
type Model = train.Model

// Options configures one training run.
type Options = train.Options

// Result describes a finished run.
type Result = train.Result

// Loss is a scalar objective bound to a model.
type Loss = train.Loss

// LossFunc binds a loss to a model.
type LossFunc = train.LossFunc

// Hook runs after every training step.
type Hook = train.Hook

// HookFunc adapts a function to Hook.
type HookFunc = train.HookFunc

// StepEvent describes a completed training step.
type StepEvent = train.StepEvent

// GradAndVar pairs a variable with its gradient.
type GradAndVar = train.GradAndVar

// TrainOp applies one optimization step and advances the global step.
type TrainOp = train.TrainOp

// Batch is a minibatch of inputs and expected outputs.
type Batch[X, Y any] = train.Batch[X, Y]

// Errors returned by the training loop.
var (
	ErrInvalidOptions = train.ErrInvalidOptions
	ErrNoFullBatch    = train.ErrNoFullBatch
)

// DefaultOptions returns options with the default hyperparameters.
func DefaultOptions() Options {
	return train.DefaultOptions()
}

// Run trains model with opts.
func Run(ctx context.Context, model Model, opts Options) (*Result, error) {
	return train.Run(ctx, model, opts)
}

// MSE binds a mean squared error loss to model.
func MSE(model Model) (*Loss, error) {
	return train.MSE(model)
}

// Batches yields consecutive batches of size rows; the last may be shorter.
func Batches[X, Y any](x []X, y []Y, size int) iter.Seq[Batch[X, Y]] {
	return train.Batches(x, y, size)
}

// Every returns a hook that fires when the global step is a multiple of n.
func Every(n int64, fn HookFunc) Hook {
	return train.Every(n, fn)
}

// NewTrainOp creates a train operation updating vars with optimizer.
func NewTrainOp(optimizer optim.Optimizer, loss *Loss, vars []*nn.Parameter) *TrainOp {
	return train.NewTrainOp(optimizer, loss, vars)
}

// Evaluate returns the mean loss over the full-size batches of x and y.
func Evaluate(ctx context.Context, model Model, loss *Loss, x [][]float64, y []float64) (float64, error) {
	return train.Evaluate(ctx, model, loss, x, y)
}
