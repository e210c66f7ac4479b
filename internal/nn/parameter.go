package nn

import (
	"github.com/born-ml/volterra/internal/tensor"
)

// Parameter represents a trainable parameter.
//
// Parameters are tensors that receive gradients during training, such as the
// kernels of a Volterra model.
//
// Example:
//
//	h1 := nn.NewParameter("volterra.h1", tensor.Zeros(tensor.Shape{memory}))
//	h1.Tensor().Data()[0] = 0.5
type Parameter struct {
	name      string
	tensor    *tensor.Tensor
	grad      *tensor.Tensor // Set by the last backward pass, nil before
	trainable bool
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		name:      name,
		tensor:    t,
		trainable: true,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the gradient tensor, or nil if no backward pass has run.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter) SetGrad(grad *tensor.Tensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// Trainable reports whether optimizers may update this parameter.
func (p *Parameter) Trainable() bool {
	return p.trainable
}

// SetTrainable marks the parameter as frozen (false) or trainable (true).
func (p *Parameter) SetTrainable(trainable bool) {
	p.trainable = trainable
}
