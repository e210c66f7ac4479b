package train

import (
	"fmt"

	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/tensor"
)

// LossFunc binds a loss to a model. It may mutate the model, for example by
// attaching an expected-output slot.
type LossFunc func(m Model) (*Loss, error)

// Loss is a scalar objective between a model's expected and produced outputs.
type Loss struct {
	model    Model
	expected *tensor.Tensor
	fn       *nn.MSELoss
}

// MSE attaches an expected-output slot of shape [batch_size] to m and returns the
// mean squared error between that slot and the model output.
//
// Shape mismatches between a fed batch and the slot surface when the loss is
// evaluated, not here.
func MSE(m Model) (*Loss, error) {
	expected, err := m.BindExpected()
	if err != nil {
		return nil, fmt.Errorf("failed to bind expected output: %w", err)
	}
	return &Loss{model: m, expected: expected, fn: nn.NewMSELoss()}, nil
}

// Expected returns the expected-output slot.
func (l *Loss) Expected() *tensor.Tensor {
	return l.expected
}

// Value evaluates the loss for the batch currently fed to the model.
func (l *Loss) Value() (float64, error) {
	out, err := l.model.Forward()
	if err != nil {
		return 0, err
	}
	return l.fn.Forward(out, l.expected.Vec())
}

// Gradients evaluates the loss and back-propagates it through the model.
func (l *Loss) Gradients() (float64, nn.Gradients, error) {
	out, err := l.model.Forward()
	if err != nil {
		return 0, nil, err
	}
	value, err := l.fn.Forward(out, l.expected.Vec())
	if err != nil {
		return 0, nil, err
	}
	outGrad, err := l.fn.Backward(out, l.expected.Vec())
	if err != nil {
		return 0, nil, err
	}
	grads, err := l.model.Backward(outGrad)
	if err != nil {
		return 0, nil, err
	}
	return value, grads, nil
}
