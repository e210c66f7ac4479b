// Package train runs the supervised training loop for regression models.
//
// The pieces mirror a classic graph-mode training script:
//
//   - a LossFunc binds an expected-output slot to the model and returns a Loss,
//   - Batches slices the training arrays into fixed-size minibatches,
//   - a TrainOp computes gradients for a variable set, applies them and advances
//     the GlobalStep,
//   - Run drives epochs and fires cadence hooks that print progress, save
//     checkpoints and run validation.
//
// Example:
//
//	model, _ := volterra.New(volterra.Config{Memory: 8, Order: 2})
//	opts := train.DefaultOptions()
//	opts.TrainX, opts.TrainY = x, y
//	opts.PathSave = "out"
//	result, err := train.Run(ctx, model, opts)
package train

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/tensor"
)

// Model is the handle the training loop drives.
//
// The loop configures the batch size, triggers Build, feeds each batch and asks the
// model to back-propagate the loss gradient. volterra.Model implements it.
type Model interface {
	nn.Module

	// SetBatchSize fixes the number of rows per fed batch.
	SetBatchSize(n int)

	// BatchSize returns the configured batch size.
	BatchSize() int

	// Build constructs and initializes the trainable state.
	Build() error

	// Feed binds an input batch.
	Feed(x [][]float64) error

	// Forward produces the output for the fed batch.
	Forward() (*mat.VecDense, error)

	// Backward returns parameter gradients given dLoss/dOutput.
	Backward(outputGrad mat.Vector) (nn.Gradients, error)

	// BindExpected attaches an expected-output slot of shape [batch_size].
	BindExpected() (*tensor.Tensor, error)

	// SetExpected fills the expected-output slot.
	SetExpected(y []float64) error

	// SetStoredPath records the directory checkpoints are written to.
	SetStoredPath(dir string)

	// Metadata describes the architecture for checkpoints.
	Metadata() map[string]string
}
