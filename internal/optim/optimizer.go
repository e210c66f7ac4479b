// Package optim implements optimization algorithms for training Volterra models.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//   - New: construction by name, as selected in training configuration
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	grads, err := model.Backward(lossGrad)
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"fmt"
	"strings"

	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers also implement nn.OptimizerState so their buffers travel with
// checkpoints.
type Optimizer interface {
	nn.OptimizerState

	// Step applies gradient updates to all parameters present in grads.
	// Parameters without a gradient, or frozen ones, are left untouched.
	Step(grads nn.Gradients)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// SetLR updates the learning rate.
	SetLR(lr float64)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// Optimizer names accepted by New.
const (
	NameAdam = "adam"
	NameSGD  = "sgd"
)

// New creates an optimizer by name with default hyperparameters and the given
// learning rate.
func New(name string, params []*nn.Parameter, lr float64) (Optimizer, error) {
	switch strings.ToLower(name) {
	case NameAdam, "":
		return NewAdam(params, AdamConfig{LR: lr}), nil
	case NameSGD:
		return NewSGD(params, SGDConfig{LR: lr}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}

// getGradient safely retrieves gradient for a parameter.
//
// Returns nil if no gradient is found or the parameter is frozen.
func getGradient(param *nn.Parameter, grads nn.Gradients) *tensor.Tensor {
	if param == nil || !param.Trainable() {
		return nil
	}
	if g, ok := grads[param]; ok {
		return g
	}
	return param.Grad()
}

// loadBuffer validates and clones a saved per-parameter buffer.
func loadBuffer(stateDict map[string]*tensor.Tensor, key string, param *nn.Parameter) (*tensor.Tensor, bool, error) {
	raw, ok := stateDict[key]
	if !ok {
		return nil, false, nil
	}
	if !raw.Shape().Equal(param.Tensor().Shape()) {
		return nil, false, fmt.Errorf("%s shape mismatch for parameter %s: expected %v, got %v",
			key, param.Name(), param.Tensor().Shape(), raw.Shape())
	}
	return raw.Clone(), true, nil
}
