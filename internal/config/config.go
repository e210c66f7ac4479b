// Package config loads the YAML run configuration of the volterra command.
//
// Example file:
//
//	model:
//	  memory: 8
//	  order: 2
//	  seed: 1
//	train:
//	  optimizer: adam
//	  learning_rate: 0.001
//	  batch_size: 32
//	  epochs: 20
//	  max_to_keep: 5
//	  checkpoint_every: 100
//	  path_save: out
//	data:
//	  path: series.csv
//	  validation_split: 0.2
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/volterra/internal/dataset"
	"github.com/born-ml/volterra/internal/parallel"
	"github.com/born-ml/volterra/internal/train"
	"github.com/born-ml/volterra/internal/volterra"
)

// Config captures the knobs of a training run.
type Config struct {
	Model   volterra.Config `yaml:"model"`
	Train   train.Options   `yaml:"train"`
	Data    Data            `yaml:"data"`
	Workers int             `yaml:"workers"` // Feature expansion workers; 0 = physical cores, 1 = sequential
}

// Data selects the series to train on: a CSV file, or a synthetic system when
// Synthetic is set.
type Data struct {
	Path            string                   `yaml:"path"`
	InputColumn     string                   `yaml:"input_column"`
	OutputColumn    string                   `yaml:"output_column"`
	MaxRows         int                      `yaml:"max_rows"`
	ValidationSplit float64                  `yaml:"validation_split"`
	Synthetic       *dataset.SyntheticConfig `yaml:"synthetic"`
}

// Overrides captures CLI supplied values. Zero values leave the file's setting.
type Overrides struct {
	DataPath        string
	PathSave        string
	Optimizer       string
	Resume          string
	LearningRate    float64
	BatchSize       int
	Epochs          int
	MaxToKeep       int
	CheckpointEvery int64
	Workers         int
	HistGrad        bool
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Model: volterra.Config{Memory: 8, Order: 2, InitScale: 0.01, Seed: 1},
		Train: train.DefaultOptions(),
		Data: Data{
			InputColumn:     "input",
			OutputColumn:    "output",
			ValidationSplit: 0.2,
		},
	}
}

// Load reads and validates a Config from YAML. Keys absent from the file keep
// their defaults; unknown keys are rejected.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: path comes from the command line
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataPath != "" {
		c.Data.Path = o.DataPath
		c.Data.Synthetic = nil
	}
	if o.PathSave != "" {
		c.Train.PathSave = o.PathSave
	}
	if o.Optimizer != "" {
		c.Train.Optimizer = o.Optimizer
	}
	if o.Resume != "" {
		c.Train.Resume = o.Resume
	}
	if o.LearningRate > 0 {
		c.Train.LearningRate = o.LearningRate
	}
	if o.BatchSize > 0 {
		c.Train.BatchSize = o.BatchSize
	}
	if o.Epochs > 0 {
		c.Train.Epochs = o.Epochs
	}
	if o.MaxToKeep > 0 {
		c.Train.MaxToKeep = o.MaxToKeep
	}
	if o.CheckpointEvery > 0 {
		c.Train.CheckpointEvery = o.CheckpointEvery
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.HistGrad {
		c.Train.HistGrad = true
	}
}

// Validate verifies the config is runnable. Training data is checked later by
// train.Options.Validate, once it has been loaded.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if c.Data.Path == "" && c.Data.Synthetic == nil {
		return errors.New("data.path or data.synthetic must be set")
	}
	if c.Data.ValidationSplit < 0 || c.Data.ValidationSplit >= 1 {
		return fmt.Errorf("data.validation_split must be in [0, 1) (got %g)", c.Data.ValidationSplit)
	}
	if c.Data.Synthetic != nil && c.Data.Synthetic.Memory == 0 {
		c.Data.Synthetic.Memory = c.Model.Memory
	}
	if c.Data.Synthetic != nil && c.Data.Synthetic.Order == 0 {
		c.Data.Synthetic.Order = c.Model.Order
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", c.Workers)
	}

	t := c.Train
	switch {
	case t.LearningRate <= 0:
		return fmt.Errorf("train.learning_rate must be > 0 (got %g)", t.LearningRate)
	case t.BatchSize <= 0:
		return fmt.Errorf("train.batch_size must be > 0 (got %d)", t.BatchSize)
	case t.Epochs <= 0:
		return fmt.Errorf("train.epochs must be > 0 (got %d)", t.Epochs)
	case t.MaxToKeep < 0:
		return fmt.Errorf("train.max_to_keep must be >= 0 (got %d)", t.MaxToKeep)
	}
	return nil
}

// ModelConfig returns the model configuration with the worker setting applied.
func (c *Config) ModelConfig() volterra.Config {
	m := c.Model
	switch c.Workers {
	case 0:
		m.Parallel = parallel.DefaultConfig()
	case 1:
		m.Parallel = parallel.Sequential()
	default:
		m.Parallel = parallel.DefaultConfig()
		m.Parallel.Enabled = true
		m.Parallel.NumWorkers = c.Workers
	}
	return m
}

// LoadData reads or generates the series and returns windowed training and
// validation rows for the configured model memory.
func (c *Config) LoadData() (trainX [][]float64, trainY []float64, valX [][]float64, valY []float64, err error) {
	var s *dataset.Series
	if c.Data.Synthetic != nil {
		s, _, err = dataset.Synthetic(*c.Data.Synthetic)
	} else {
		s, err = dataset.LoadCSV(c.Data.Path, c.Data.InputColumn, c.Data.OutputColumn, c.Data.MaxRows)
	}
	if err != nil {
		return nil, nil, nil, nil, err
	}

	x, y, err := dataset.Window(s, c.Model.Memory)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return dataset.Split(x, y, c.Data.ValidationSplit)
}
