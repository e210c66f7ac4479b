// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the building blocks shared by models and training.
//
// # Overview
//
// This package contains:
//   - Module interface and Parameter
//   - Loss functions: MSELoss
//   - Checkpoint: training state snapshots in SafeTensors format
//
// # Checkpoints
//
// A Checkpoint bundles model parameters, optimizer buffers and training metadata
// (epoch, step, loss, run id) in one SafeTensors file:
//
//	ckpt := &nn.Checkpoint{
//	    Model:     model,
//	    Optimizer: optimizer,
//	    Epoch:     epoch,
//	    Step:      step,
//	    Loss:      loss,
//	}
//	if err := ckpt.Save("model-500"); err != nil {
//	    log.Fatal(err)
//	}
//
//	restored, err := nn.LoadCheckpoint("model-500", model, optimizer)
package nn
