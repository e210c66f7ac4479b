package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/volterra/internal/volterra"
)

// SyntheticConfig describes a random Volterra system driven by white noise.
type SyntheticConfig struct {
	Samples     int     `yaml:"samples"`      // Series length
	Memory      int     `yaml:"memory"`       // System memory taps
	Order       int     `yaml:"order"`        // System order
	KernelScale float64 `yaml:"kernel_scale"` // Stddev of the true kernels (default: 0.5)
	NoiseStd    float64 `yaml:"noise_std"`    // Stddev of additive output noise
	Seed        uint64  `yaml:"seed"`
}

// Synthetic generates a series from a randomly drawn Volterra system. The input is
// uniform in [-1, 1]; the first Memory-1 outputs use zero history.
//
// It also returns the system so callers can compare learned kernels with it.
func Synthetic(cfg SyntheticConfig) (*Series, *volterra.Model, error) {
	if cfg.Samples <= 0 {
		return nil, nil, fmt.Errorf("samples must be > 0 (got %d)", cfg.Samples)
	}
	if cfg.NoiseStd < 0 {
		return nil, nil, fmt.Errorf("noise_std must be >= 0 (got %g)", cfg.NoiseStd)
	}
	if cfg.KernelScale == 0 {
		cfg.KernelScale = 0.5
	}

	system, err := volterra.New(volterra.Config{
		Memory:    cfg.Memory,
		Order:     cfg.Order,
		InitScale: cfg.KernelScale,
		Seed:      cfg.Seed,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := system.Build(); err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed+1, cfg.Seed^0x5bd1e995))
	s := &Series{
		Input:  make([]float64, cfg.Samples),
		Output: make([]float64, cfg.Samples),
	}
	for i := range s.Input {
		s.Input[i] = rng.Float64()*2 - 1
	}

	// Pad with zero history so every sample gets an output.
	padded := &Series{
		Input:  append(make([]float64, cfg.Memory-1), s.Input...),
		Output: make([]float64, cfg.Samples+cfg.Memory-1),
	}
	rows, _, err := Window(padded, cfg.Memory)
	if err != nil {
		return nil, nil, err
	}
	out, err := system.Predict(rows)
	if err != nil {
		return nil, nil, err
	}
	for i, v := range out {
		s.Output[i] = v + rng.NormFloat64()*cfg.NoiseStd
	}
	return s, system, nil
}
