// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training Volterra models.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	model, _ := volterra.New(volterra.Config{Memory: 8, Order: 2})
//	model.SetBatchSize(32)
//	_ = model.Build()
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	_ = model.Feed(x)
//	out, _ := model.Forward()
//	grads, _ := model.Backward(lossGrad(out))
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
//
// # State
//
// Optimizers export their buffers through StateDict so checkpoints can resume
// training with the same moments and timestep.
package optim
