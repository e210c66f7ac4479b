// Package nn implements the trainable building blocks shared by models and optimizers.
//
// This package provides:
//   - Module interface: anything that owns named parameters and a state dict
//   - Parameter: trainable tensor with gradient tracking
//   - Gradients: parameter -> gradient mapping produced by a backward pass
//   - MSELoss: mean squared error with its gradient
//   - Checkpoint: model + optimizer + training metadata snapshot
package nn

import (
	"fmt"

	"github.com/born-ml/volterra/internal/tensor"
)

// Module is the base interface for trainable components.
//
// StateDict keys are parameter names; LoadStateDict must accept exactly the dict a
// module of the same configuration produced.
type Module interface {
	// Parameters returns all trainable parameters in a stable order.
	Parameters() []*Parameter

	// StateDict returns the module state keyed by parameter name.
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict copies values from stateDict into the module parameters.
	LoadStateDict(stateDict map[string]*tensor.Tensor) error
}

// Gradients maps each parameter to the gradient computed by a backward pass.
type Gradients map[*Parameter]*tensor.Tensor

// StateDictOf builds a state dict from parameters. Tensors are shared, not copied.
func StateDictOf(params []*Parameter) map[string]*tensor.Tensor {
	stateDict := make(map[string]*tensor.Tensor, len(params))
	for _, p := range params {
		stateDict[p.Name()] = p.Tensor()
	}
	return stateDict
}

// LoadParameters copies stateDict entries into params by name.
//
// Every parameter must be present with a matching shape.
func LoadParameters(params []*Parameter, stateDict map[string]*tensor.Tensor) error {
	for _, p := range params {
		src, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("missing parameter %q in state dict", p.Name())
		}
		if err := p.Tensor().CopyFrom(src); err != nil {
			return fmt.Errorf("parameter %q: %w", p.Name(), err)
		}
	}
	return nil
}
