package nn

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/born-ml/volterra/internal/serialization"
	"github.com/born-ml/volterra/internal/tensor"
)

// ErrNotCheckpoint is returned when a file lacks checkpoint metadata.
var ErrNotCheckpoint = errors.New("file is not a checkpoint")

// Checkpoint metadata keys.
const (
	checkpointFormat = "volterra-checkpoint"
	optimizerPrefix  = "optimizer."

	metaFormat    = "format"
	metaEpoch     = "epoch"
	metaStep      = "step"
	metaLoss      = "loss"
	metaOptimizer = "optimizer"
	metaLR        = "lr"
	metaRunID     = "run_id"
	metaCreatedAt = "created_at"
)

// OptimizerState represents an optimizer that can save/load its state.
//
// Declared here rather than in optim so checkpoints can hold optimizers without an
// import cycle.
type OptimizerState interface {
	// Name returns the optimizer identifier ("adam", "sgd").
	Name() string

	// StateDict returns the optimizer state for serialization.
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict loads optimizer state from serialization.
	LoadStateDict(stateDict map[string]*tensor.Tensor) error

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Checkpoint represents a complete training state snapshot.
//
// A checkpoint includes model parameters, optimizer state (Adam moments, momentum
// buffers) and training metadata, so a run can resume from the saved step.
//
// Example:
//
//	ckpt := &nn.Checkpoint{
//	    Model:     model,
//	    Optimizer: optimizer,
//	    Epoch:     3,
//	    Step:      1500,
//	    Loss:      0.0123,
//	}
//	err := ckpt.Save("runs/1700000000/checkpoints/model-1500")
type Checkpoint struct {
	Model     Module
	Optimizer OptimizerState // May be nil when only parameters are needed
	Epoch     int
	Step      int64
	Loss      float64
	RunID     string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Save writes the checkpoint to path in SafeTensors format.
func (c *Checkpoint) Save(path string) error {
	combined := make(map[string]*tensor.Tensor)
	maps.Copy(combined, c.Model.StateDict())

	meta := make(map[string]string, len(c.Metadata)+8)
	maps.Copy(meta, c.Metadata)

	if c.Optimizer != nil {
		for name, t := range c.Optimizer.StateDict() {
			combined[optimizerPrefix+name] = t
		}
		meta[metaOptimizer] = c.Optimizer.Name()
		meta[metaLR] = strconv.FormatFloat(c.Optimizer.GetLR(), 'g', -1, 64)
	}

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	meta[metaFormat] = checkpointFormat
	meta[metaEpoch] = strconv.Itoa(c.Epoch)
	meta[metaStep] = strconv.FormatInt(c.Step, 10)
	meta[metaLoss] = strconv.FormatFloat(c.Loss, 'g', -1, 64)
	meta[metaRunID] = c.RunID
	meta[metaCreatedAt] = createdAt.Format(time.RFC3339Nano)

	if err := serialization.WriteSafeTensors(path, combined, meta); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores a checkpoint from path into model and optimizer.
//
// The model and optimizer must be pre-constructed with the same configuration as
// when the checkpoint was saved. optimizer may be nil to restore parameters only.
func LoadCheckpoint(path string, model Module, optimizer OptimizerState) (*Checkpoint, error) {
	stateDict, meta, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if meta[metaFormat] != checkpointFormat {
		return nil, fmt.Errorf("%s: %w", path, ErrNotCheckpoint)
	}

	modelState := make(map[string]*tensor.Tensor)
	optimizerState := make(map[string]*tensor.Tensor)
	for name, t := range stateDict {
		if rest, ok := strings.CutPrefix(name, optimizerPrefix); ok {
			optimizerState[rest] = t
		} else {
			modelState[name] = t
		}
	}

	if err := model.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}

	if optimizer != nil {
		if saved := meta[metaOptimizer]; saved != "" && saved != optimizer.Name() {
			return nil, fmt.Errorf("checkpoint optimizer %q does not match %q", saved, optimizer.Name())
		}
		if err := optimizer.LoadStateDict(optimizerState); err != nil {
			return nil, fmt.Errorf("failed to load optimizer state: %w", err)
		}
	}

	ckpt := &Checkpoint{
		Model:     model,
		Optimizer: optimizer,
		RunID:     meta[metaRunID],
		Metadata:  meta,
	}
	if ckpt.Epoch, err = strconv.Atoi(meta[metaEpoch]); err != nil {
		return nil, fmt.Errorf("invalid epoch metadata: %w", err)
	}
	if ckpt.Step, err = strconv.ParseInt(meta[metaStep], 10, 64); err != nil {
		return nil, fmt.Errorf("invalid step metadata: %w", err)
	}
	if ckpt.Loss, err = strconv.ParseFloat(meta[metaLoss], 64); err != nil {
		return nil, fmt.Errorf("invalid loss metadata: %w", err)
	}
	if ckpt.CreatedAt, err = time.Parse(time.RFC3339Nano, meta[metaCreatedAt]); err != nil {
		return nil, fmt.Errorf("invalid created_at metadata: %w", err)
	}

	return ckpt, nil
}

// ReadCheckpointMetadata returns the metadata of a checkpoint without loading
// any tensor, so callers can rebuild the model before LoadCheckpoint.
func ReadCheckpointMetadata(path string) (map[string]string, error) {
	r, err := serialization.OpenSafeTensors(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	defer r.Close()

	meta := r.Metadata()
	if meta[metaFormat] != checkpointFormat {
		return nil, fmt.Errorf("%s: %w", path, ErrNotCheckpoint)
	}
	return meta, nil
}
