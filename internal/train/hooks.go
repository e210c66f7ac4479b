package train

import "context"

// StepEvent describes a completed training step.
type StepEvent struct {
	Epoch        int
	Step         int64
	Loss         float64
	GradsAndVars []GradAndVar
}

// Hook runs after every training step.
type Hook interface {
	AfterStep(ctx context.Context, e *StepEvent) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, e *StepEvent) error

// AfterStep calls f.
func (f HookFunc) AfterStep(ctx context.Context, e *StepEvent) error {
	return f(ctx, e)
}

// Every returns a hook calling fn when the global step is a multiple of n.
// A hook with n <= 0 never fires.
func Every(n int64, fn HookFunc) Hook {
	return HookFunc(func(ctx context.Context, e *StepEvent) error {
		if n <= 0 || e.Step%n != 0 {
			return nil
		}
		return fn(ctx, e)
	})
}
