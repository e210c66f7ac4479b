// Package main provides the volterra training CLI.
//
// Usage:
//
//	volterra train    -config run.yaml [-data series.csv] [-epochs N] ...
//	volterra eval     -checkpoint runs/<ts>/checkpoints [-config run.yaml] [-data series.csv]
//	volterra generate -out series.csv [-samples N] [-memory M] [-order K]
//	volterra version
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/born-ml/volterra/internal/checkpoint"
	"github.com/born-ml/volterra/internal/config"
	"github.com/born-ml/volterra/internal/dataset"
	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/parallel"
	"github.com/born-ml/volterra/internal/train"
	"github.com/born-ml/volterra/internal/volterra"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[2:]
	switch os.Args[1] {
	case "train":
		runTrain(ctx, args)
	case "eval":
		runEval(ctx, args)
	case "generate":
		runGenerate(args)
	case "version":
		fmt.Printf("volterra %s (%s)\n", version, parallel.Describe())
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("volterra - Volterra series regression trainer")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  train      Train a model from a YAML config")
	fmt.Println("  eval       Report the loss of a checkpoint on a dataset")
	fmt.Println("  generate   Write a synthetic Volterra system series as CSV")
	fmt.Println("  version    Show version")
}

// loadConfig reads the config file (or defaults) and applies flag overrides.
func loadConfig(path string, o config.Overrides) *config.Config {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return cfg
}

func runTrain(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	dataPath := fs.String("data", "", "Override CSV dataset path")
	pathSave := fs.String("out", "", "Override output directory (path_save)")
	optimizer := fs.String("optimizer", "", "Override optimizer (adam, sgd)")
	resume := fs.String("resume", "", "Checkpoint file or directory to resume from")
	lr := fs.Float64("lr", 0, "Override learning rate")
	batchSize := fs.Int("batch-size", 0, "Override batch size")
	epochs := fs.Int("epochs", 0, "Override epoch count")
	maxToKeep := fs.Int("max-to-keep", 0, "Override retained checkpoint count")
	checkpointEvery := fs.Int64("checkpoint-every", 0, "Override checkpoint cadence in steps")
	workers := fs.Int("workers", 0, "Feature expansion workers (1 = sequential)")
	histGrad := fs.Bool("hist-grad", false, "Write gradient histogram summaries")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath, config.Overrides{
		DataPath:        *dataPath,
		PathSave:        *pathSave,
		Optimizer:       *optimizer,
		Resume:          resolveCheckpoint(*resume),
		LearningRate:    *lr,
		BatchSize:       *batchSize,
		Epochs:          *epochs,
		MaxToKeep:       *maxToKeep,
		CheckpointEvery: *checkpointEvery,
		Workers:         *workers,
		HistGrad:        *histGrad,
	})

	opts := cfg.Train
	var err error
	if opts.TrainX, opts.TrainY, opts.ValidationX, opts.ValidationY, err = cfg.LoadData(); err != nil {
		log.Fatalf("failed to load data: %v", err)
	}
	log.Printf("train=%d validation=%d memory=%d order=%d", len(opts.TrainX), len(opts.ValidationX),
		cfg.Model.Memory, cfg.Model.Order)

	model, err := volterra.New(cfg.ModelConfig())
	if err != nil {
		log.Fatalf("failed to create model: %v", err)
	}

	res, err := train.Run(ctx, model, opts)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	log.Printf("done: steps=%d loss=%g validation_loss=%g checkpoints=%s",
		res.Steps, res.Loss, res.ValidationLoss, res.CheckpointDir)
}

func runEval(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	ckptPath := fs.String("checkpoint", "", "Checkpoint file or directory (required)")
	cfgPath := fs.String("config", "", "Path to YAML config for the data section")
	dataPath := fs.String("data", "", "Override CSV dataset path")
	batchSize := fs.Int("batch-size", 0, "Override batch size")
	_ = fs.Parse(args)

	if *ckptPath == "" {
		log.Fatalf("eval: -checkpoint is required")
	}
	path := resolveCheckpoint(*ckptPath)

	meta, err := nn.ReadCheckpointMetadata(path)
	if err != nil {
		log.Fatalf("failed to read checkpoint: %v", err)
	}
	modelCfg, err := volterra.ConfigFromMetadata(meta)
	if err != nil {
		log.Fatalf("failed to read model config: %v", err)
	}

	cfg := loadConfig(*cfgPath, config.Overrides{DataPath: *dataPath, BatchSize: *batchSize})
	cfg.Model = modelCfg
	cfg.Data.ValidationSplit = 0
	x, y, _, _, err := cfg.LoadData()
	if err != nil {
		log.Fatalf("failed to load data: %v", err)
	}

	model, err := volterra.New(cfg.ModelConfig())
	if err != nil {
		log.Fatalf("failed to create model: %v", err)
	}
	model.SetBatchSize(cfg.Train.BatchSize)
	if err := model.Build(); err != nil {
		log.Fatalf("failed to build model: %v", err)
	}
	ckpt, err := nn.LoadCheckpoint(path, model, nil)
	if err != nil {
		log.Fatalf("failed to load checkpoint: %v", err)
	}
	loss, err := train.MSE(model)
	if err != nil {
		log.Fatalf("failed to bind loss: %v", err)
	}

	mse, err := train.Evaluate(ctx, model, loss, x, y)
	if err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}
	fmt.Printf("checkpoint %s (step %d): loss %g over %d rows\n", path, ckpt.Step, mse, len(x))
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	out := fs.String("out", "series.csv", "Output CSV path")
	samples := fs.Int("samples", 2000, "Number of samples")
	memory := fs.Int("memory", 8, "System memory taps")
	order := fs.Int("order", 2, "System order")
	scale := fs.Float64("kernel-scale", 0.5, "Stddev of the true kernels")
	noise := fs.Float64("noise", 0.01, "Stddev of output noise")
	seed := fs.Uint64("seed", 1, "PRNG seed")
	_ = fs.Parse(args)

	s, _, err := dataset.Synthetic(dataset.SyntheticConfig{
		Samples:     *samples,
		Memory:      *memory,
		Order:       *order,
		KernelScale: *scale,
		NoiseStd:    *noise,
		Seed:        *seed,
	})
	if err != nil {
		log.Fatalf("failed to generate series: %v", err)
	}
	if err := dataset.WriteCSV(*out, s); err != nil {
		log.Fatalf("failed to write series: %v", err)
	}
	log.Printf("wrote %d samples to %s", s.Len(), *out)
}

// resolveCheckpoint turns a checkpoint directory into its latest checkpoint.
func resolveCheckpoint(path string) string {
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path
	}
	latest, err := checkpoint.Latest(path)
	if err != nil {
		log.Fatalf("failed to find checkpoint in %s: %v", path, err)
	}
	return latest
}
