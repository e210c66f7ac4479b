package train

import (
	"fmt"

	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/optim"
	"github.com/born-ml/volterra/internal/tensor"
)

// GlobalStep counts applied optimization steps. It only moves forward.
type GlobalStep struct {
	value int64
}

// Value returns the number of steps applied so far.
func (g *GlobalStep) Value() int64 {
	return g.value
}

// Restore sets the counter from a checkpoint. It never moves the counter back.
func (g *GlobalStep) Restore(step int64) {
	if step > g.value {
		g.value = step
	}
}

func (g *GlobalStep) advance() int64 {
	g.value++
	return g.value
}

// GradAndVar pairs a variable with its gradient from the last step.
type GradAndVar struct {
	Grad *tensor.Tensor
	Var  *nn.Parameter
}

// StepResult is the outcome of one TrainOp.Run.
type StepResult struct {
	Step         int64
	Loss         float64
	GradsAndVars []GradAndVar
}

// TrainOp computes loss gradients for a variable set, applies them with an
// optimizer and advances the global step.
type TrainOp struct {
	optimizer optim.Optimizer
	loss      *Loss
	vars      []*nn.Parameter
	step      GlobalStep
}

// NewTrainOp creates a train operation updating vars. The optimizer should be
// constructed over the same variables.
func NewTrainOp(optimizer optim.Optimizer, loss *Loss, vars []*nn.Parameter) *TrainOp {
	return &TrainOp{optimizer: optimizer, loss: loss, vars: vars}
}

// GlobalStep returns the step counter advanced by Run.
func (op *TrainOp) GlobalStep() *GlobalStep {
	return &op.step
}

// Optimizer returns the optimizer applying the updates.
func (op *TrainOp) Optimizer() optim.Optimizer {
	return op.optimizer
}

// Run performs one optimization step on the batch currently fed to the model.
//
// The reported loss is measured before the update is applied.
func (op *TrainOp) Run() (*StepResult, error) {
	value, grads, err := op.loss.Gradients()
	if err != nil {
		return nil, fmt.Errorf("failed to compute gradients: %w", err)
	}

	applied := make(nn.Gradients, len(op.vars))
	gradsAndVars := make([]GradAndVar, 0, len(op.vars))
	for _, v := range op.vars {
		g, ok := grads[v]
		if !ok || g == nil {
			continue
		}
		applied[v] = g
		gradsAndVars = append(gradsAndVars, GradAndVar{Grad: g, Var: v})
	}

	op.optimizer.Step(applied)
	op.optimizer.ZeroGrad()

	return &StepResult{
		Step:         op.step.advance(),
		Loss:         value,
		GradsAndVars: gradsAndVars,
	}, nil
}
