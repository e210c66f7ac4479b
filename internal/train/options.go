package train

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/volterra/internal/optim"
)

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("invalid training options")

// Options configures one training run. Options must not change while Run uses them.
type Options struct {
	Loss         LossFunc `yaml:"-"`             // Loss binder (default: MSE)
	Optimizer    string   `yaml:"optimizer"`     // "adam" or "sgd" (default: adam)
	LearningRate float64  `yaml:"learning_rate"` // Optimizer learning rate
	BatchSize    int      `yaml:"batch_size"`    // Rows per step; shorter batches are skipped
	Epochs       int      `yaml:"epochs"`        // Passes over the training data

	TrainX      [][]float64 `yaml:"-"`
	TrainY      []float64   `yaml:"-"`
	ValidationX [][]float64 `yaml:"-"` // Optional; validation is skipped when empty
	ValidationY []float64   `yaml:"-"`

	MaxToKeep       int   `yaml:"max_to_keep"`       // Retained checkpoints; 0 keeps all
	HistGrad        bool  `yaml:"hist_grad"`         // Gradient histogram and sparsity summaries
	PrintLoss       bool  `yaml:"print_loss"`        // Print validation losses
	PrintLossEvery  int64 `yaml:"print_loss_every"`  // Progress cadence in steps; 0 disables
	CheckpointEvery int64 `yaml:"checkpoint_every"`  // Checkpoint cadence in steps; 0 disables
	ValidationEvery int64 `yaml:"validation_every"`  // Validation cadence in steps; 0 disables

	PathSave string `yaml:"path_save"` // Root of the runs/ directory
	Resume   string `yaml:"resume"`    // Checkpoint to restore before training

	Out   io.Writer `yaml:"-"` // Console output (default: os.Stdout)
	Hooks []Hook    `yaml:"-"` // Extra hooks run after the built-in ones
}

// DefaultOptions returns options with the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		Loss:            MSE,
		Optimizer:       optim.NameAdam,
		LearningRate:    1e-3,
		BatchSize:       32,
		Epochs:          10,
		MaxToKeep:       5,
		PrintLoss:       true,
		PrintLossEvery:  100,
		CheckpointEvery: 100,
		ValidationEvery: 100,
		PathSave:        ".",
	}
}

// Validate checks the options and fills unset defaults.
func (o *Options) Validate() error {
	if o.Loss == nil {
		o.Loss = MSE
	}
	if o.Optimizer == "" {
		o.Optimizer = optim.NameAdam
	}
	if o.PathSave == "" {
		o.PathSave = "."
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}

	switch {
	case o.LearningRate <= 0:
		return fmt.Errorf("%w: learning_rate must be > 0 (got %g)", ErrInvalidOptions, o.LearningRate)
	case o.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be > 0 (got %d)", ErrInvalidOptions, o.BatchSize)
	case o.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be > 0 (got %d)", ErrInvalidOptions, o.Epochs)
	case o.MaxToKeep < 0:
		return fmt.Errorf("%w: max_to_keep must be >= 0 (got %d)", ErrInvalidOptions, o.MaxToKeep)
	case o.PrintLossEvery < 0, o.CheckpointEvery < 0, o.ValidationEvery < 0:
		return fmt.Errorf("%w: cadences must be >= 0", ErrInvalidOptions)
	case len(o.TrainX) == 0:
		return fmt.Errorf("%w: no training data", ErrInvalidOptions)
	case len(o.TrainX) != len(o.TrainY):
		return fmt.Errorf("%w: train_x has %d rows, train_y has %d",
			ErrInvalidOptions, len(o.TrainX), len(o.TrainY))
	case len(o.ValidationX) != len(o.ValidationY):
		return fmt.Errorf("%w: validation_x has %d rows, validation_y has %d",
			ErrInvalidOptions, len(o.ValidationX), len(o.ValidationY))
	}
	return nil
}
