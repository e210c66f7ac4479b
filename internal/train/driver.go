package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/volterra/internal/checkpoint"
	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/optim"
	"github.com/born-ml/volterra/internal/summary"
)

// Summary tags written by Run.
const (
	TagLoss          = "loss"
	tagGradHist      = "%s/grad/hist"
	tagGradSparsity  = "%s/grad/sparsity"
	summariesDirName = "summaries"
)

// Result describes a finished (or interrupted) run.
type Result struct {
	RunID          string
	RunDir         string   // <path_save>/runs/<unix_ts>
	CheckpointDir  string   // Absolute checkpoint directory
	Steps          int64    // Final global step
	Loss           float64  // Loss of the last training step
	ValidationLoss float64  // Mean loss of the last validation pass, NaN if none ran
	Checkpoints    []string // Retained checkpoints, oldest first
}

// Run trains model with opts.
//
// Run sets the batch size, builds the model, binds the loss and an optimizer over
// all model parameters, then loops over epochs. Every full-size training batch is
// one optimization step; trailing short batches are skipped. After each step the
// cadence hooks print progress, save checkpoints and run validation when the
// global step is a multiple of their interval.
//
// Run writes summaries to <path_save>/runs/<unix_ts>/summaries/{train,dev} and
// checkpoints to <path_save>/runs/<unix_ts>/checkpoints/model-<step>. Any error
// stops the run. Cancelling ctx stops it between batches.
func Run(ctx context.Context, model Model, opts Options) (res *Result, err error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	model.SetBatchSize(opts.BatchSize)
	if err := model.Build(); err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	loss, err := opts.Loss(model)
	if err != nil {
		return nil, err
	}

	vars := model.Parameters()
	optimizer, err := optim.New(opts.Optimizer, vars, opts.LearningRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create optimizer: %w", err)
	}

	r := &runner{
		model:          model,
		loss:           loss,
		op:             NewTrainOp(optimizer, loss, vars),
		opts:           opts,
		out:            opts.Out,
		runID:          uuid.NewString(),
		validationLoss: math.NaN(),
	}
	defer func() {
		if cerr := r.close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close summary writers: %w", cerr)
		}
	}()

	if err := r.setup(); err != nil {
		return nil, err
	}

	hooks := r.hooks()
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		fmt.Fprintf(r.out, "Epoch %d\n", epoch)

		for batch := range Batches(opts.TrainX, opts.TrainY, opts.BatchSize) {
			if err := ctx.Err(); err != nil {
				return r.result(), err
			}
			if batch.Len() < opts.BatchSize {
				continue
			}

			event, err := r.trainStep(epoch, batch)
			if err != nil {
				return r.result(), fmt.Errorf("epoch %d step %d: %w", epoch, r.op.GlobalStep().Value()+1, err)
			}
			for _, h := range hooks {
				if err := h.AfterStep(ctx, event); err != nil {
					return r.result(), fmt.Errorf("epoch %d step %d: %w", epoch, event.Step, err)
				}
			}
		}
	}

	return r.result(), nil
}

// runner holds the state of one Run.
type runner struct {
	model Model
	loss  *Loss
	op    *TrainOp
	opts  Options
	out   io.Writer

	runID          string
	runDir         string
	trainWriter    *summary.Writer
	devWriter      *summary.Writer
	saver          *checkpoint.Saver
	lastLoss       float64
	validationLoss float64
}

// setup creates the run directory layout, the summary writers and the saver,
// and restores a checkpoint when requested.
func (r *runner) setup() error {
	r.runDir = filepath.Join(r.opts.PathSave, "runs", strconv.FormatInt(time.Now().Unix(), 10))
	fmt.Fprintf(r.out, "Writing to %s\n\n", r.runDir)

	var err error
	if r.trainWriter, err = summary.NewWriter(filepath.Join(r.runDir, summariesDirName, "train")); err != nil {
		return err
	}
	if r.devWriter, err = summary.NewWriter(filepath.Join(r.runDir, summariesDirName, "dev")); err != nil {
		return err
	}

	checkpointDir, err := filepath.Abs(filepath.Join(r.runDir, "checkpoints"))
	if err != nil {
		return fmt.Errorf("failed to resolve checkpoint dir: %w", err)
	}
	if r.saver, err = checkpoint.NewSaver(checkpointDir, r.opts.MaxToKeep); err != nil {
		return err
	}
	r.model.SetStoredPath(checkpointDir)

	if r.opts.Resume == "" {
		return nil
	}
	ckpt, err := nn.LoadCheckpoint(r.opts.Resume, r.model, r.op.Optimizer())
	if err != nil {
		return fmt.Errorf("failed to resume from %s: %w", r.opts.Resume, err)
	}
	r.op.GlobalStep().Restore(ckpt.Step)
	fmt.Fprintf(r.out, "Restored model checkpoint from %s at step %d\n", r.opts.Resume, ckpt.Step)
	return nil
}

func (r *runner) close() error {
	var errs []error
	for _, w := range []*summary.Writer{r.trainWriter, r.devWriter} {
		if w != nil {
			errs = append(errs, w.Close())
		}
	}
	return errors.Join(errs...)
}

func (r *runner) hooks() []Hook {
	hooks := []Hook{
		Every(r.opts.PrintLossEvery, r.printLoss),
		Every(r.opts.CheckpointEvery, r.saveCheckpoint),
	}
	if len(r.opts.ValidationX) > 0 {
		hooks = append(hooks, Every(r.opts.ValidationEvery, r.validate))
	}
	return append(hooks, r.opts.Hooks...)
}

func (r *runner) feed(batch Batch[[]float64, float64]) error {
	if err := r.model.Feed(batch.X); err != nil {
		return err
	}
	return r.model.SetExpected(batch.Y)
}

// trainStep runs one optimization step and writes its train summary.
func (r *runner) trainStep(epoch int, batch Batch[[]float64, float64]) (*StepEvent, error) {
	if err := r.feed(batch); err != nil {
		return nil, err
	}
	step, err := r.op.Run()
	if err != nil {
		return nil, err
	}
	r.lastLoss = step.Loss

	values := []summary.Value{{Tag: TagLoss, Scalar: step.Loss}}
	if r.opts.HistGrad {
		for _, gv := range step.GradsAndVars {
			g := gv.Grad.Data()
			values = append(values,
				summary.Value{Tag: fmt.Sprintf(tagGradHist, gv.Var.Name()), Histogram: summary.NewHistogram(g)},
				summary.Value{Tag: fmt.Sprintf(tagGradSparsity, gv.Var.Name()), Scalar: summary.ZeroFraction(g)},
			)
		}
	}
	if err := r.trainWriter.Add(step.Step, values...); err != nil {
		return nil, err
	}

	return &StepEvent{
		Epoch:        epoch,
		Step:         step.Step,
		Loss:         step.Loss,
		GradsAndVars: step.GradsAndVars,
	}, nil
}

func (r *runner) printLoss(_ context.Context, e *StepEvent) error {
	fmt.Fprintf(r.out, "Epoch %d - Step %d - loss %g\n", e.Epoch, e.Step, e.Loss)
	return nil
}

func (r *runner) saveCheckpoint(_ context.Context, e *StepEvent) error {
	path, err := r.saver.Save(&nn.Checkpoint{
		Model:     r.model,
		Optimizer: r.op.Optimizer(),
		Epoch:     e.Epoch,
		Step:      e.Step,
		Loss:      e.Loss,
		RunID:     r.runID,
		Metadata:  r.model.Metadata(),
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	fmt.Fprintf(r.out, "Saved model checkpoint to %s\n\n", path)
	return nil
}

// validate evaluates every full-size validation batch without updating
// parameters, writing each loss to the dev summaries.
func (r *runner) validate(ctx context.Context, e *StepEvent) error {
	fmt.Fprintln(r.out, "Validation Step")

	mean, _, err := evaluate(ctx, r.model, r.loss, r.opts.ValidationX, r.opts.ValidationY, func(loss float64) error {
		if err := r.devWriter.AddScalar(TagLoss, e.Step, loss); err != nil {
			return err
		}
		if r.opts.PrintLoss {
			fmt.Fprintf(r.out, "Test Step loss: %g\n", loss)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	r.validationLoss = mean
	return nil
}

func (r *runner) result() *Result {
	res := &Result{
		RunID:          r.runID,
		RunDir:         r.runDir,
		Steps:          r.op.GlobalStep().Value(),
		Loss:           r.lastLoss,
		ValidationLoss: r.validationLoss,
	}
	if r.saver != nil {
		res.CheckpointDir = r.saver.Dir()
		res.Checkpoints = r.saver.Checkpoints()
	}
	return res
}
