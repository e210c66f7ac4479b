// Package volterra implements a truncated, discrete Volterra series regressor.
//
// For an input window x of Memory taps the model output is
//
//	y = h0 + Σ_i h1[i]·x[i] + Σ_{i<=j} h2[i,j]·x[i]·x[j] + Σ_{i<=j<=k} h3[i,j,k]·x[i]·x[j]·x[k]
//
// truncated at Order. Kernels are stored in symmetric (upper-triangular) form, one
// coefficient per distinct product. The model is linear in its kernels, so the
// forward pass is a product of per-order design matrices with the kernel vectors
// and the backward pass is the transposed product.
//
// The model follows a build-then-feed lifecycle:
//
//	m, _ := volterra.New(volterra.Config{Memory: 8, Order: 2})
//	m.SetBatchSize(32)
//	_ = m.Build()             // allocate and initialize kernels
//	_ = m.Feed(rows)          // bind a [32, 8] input batch
//	out, _ := m.Forward()     // [32] produced output
//	grads, _ := m.Backward(g) // kernel gradients for dLoss/dOutput = g
package volterra

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/parallel"
	"github.com/born-ml/volterra/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// MaxOrder is the highest supported kernel order.
const MaxOrder = 3

// Errors returned by Model.
var (
	ErrInvalidConfig = errors.New("invalid volterra config")
	ErrNotBuilt      = errors.New("model has not been built")
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrNotFed        = errors.New("no input has been fed")
)

// Metadata keys written by Model.Metadata.
const (
	metaMemory = "volterra.memory"
	metaOrder  = "volterra.order"
)

// Config describes the model architecture and initialization.
type Config struct {
	Memory    int             `yaml:"memory"`     // Number of input taps per row
	Order     int             `yaml:"order"`      // Highest kernel order, 1..MaxOrder
	InitScale float64         `yaml:"init_scale"` // Stddev of initial kernel values (default: 0.01)
	Seed      uint64          `yaml:"seed"`       // Initialization seed
	Parallel  parallel.Config `yaml:"-"`          // Feature expansion parallelism
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if c.Memory <= 0 {
		return fmt.Errorf("%w: memory must be > 0 (got %d)", ErrInvalidConfig, c.Memory)
	}
	if c.Order < 1 || c.Order > MaxOrder {
		return fmt.Errorf("%w: order must be in [1, %d] (got %d)", ErrInvalidConfig, MaxOrder, c.Order)
	}
	if c.InitScale < 0 {
		return fmt.Errorf("%w: init_scale must be >= 0 (got %g)", ErrInvalidConfig, c.InitScale)
	}
	if c.InitScale == 0 {
		c.InitScale = 0.01
	}
	return nil
}

// Model is a Volterra series regressor.
//
// A Model is not safe for concurrent use.
type Model struct {
	cfg        Config
	batchSize  int
	storedPath string

	built   bool
	bias    *nn.Parameter
	kernels []*nn.Parameter // kernels[k-1] holds the order-k kernel
	terms   [][][]int       // terms[k-1] lists the index tuples of kernels[k-1]

	rows     int
	features []*mat.Dense // Design matrices of the last fed batch, one per order
	output   *mat.VecDense
	expected *tensor.Tensor
}

// New creates an unbuilt model.
func New(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Model{cfg: cfg}, nil
}

// Config returns the model configuration.
func (m *Model) Config() Config {
	return m.cfg
}

// SetBatchSize fixes the number of rows accepted by Feed. Zero accepts any count.
func (m *Model) SetBatchSize(n int) {
	m.batchSize = n
}

// BatchSize returns the configured batch size.
func (m *Model) BatchSize() int {
	return m.batchSize
}

// StoredPath returns the directory checkpoints of this model are written to.
func (m *Model) StoredPath() string {
	return m.storedPath
}

// SetStoredPath records where checkpoints of this model are written.
func (m *Model) SetStoredPath(dir string) {
	m.storedPath = dir
}

// Build allocates the kernels and initializes them from the configured seed.
//
// Calling Build again re-initializes every kernel.
func (m *Model) Build() error {
	rng := rand.New(rand.NewPCG(m.cfg.Seed, m.cfg.Seed^0x9e3779b97f4a7c15))

	m.bias = nn.NewParameter("volterra.h0", tensor.Zeros(tensor.Shape{1}))
	m.kernels = make([]*nn.Parameter, m.cfg.Order)
	m.terms = make([][][]int, m.cfg.Order)

	for k := 1; k <= m.cfg.Order; k++ {
		kernel := nn.Randn(tensor.Shape{NumTerms(m.cfg.Memory, k)}, m.cfg.InitScale, rng)
		m.kernels[k-1] = nn.NewParameter("volterra.h"+strconv.Itoa(k), kernel)
		m.terms[k-1] = terms(m.cfg.Memory, k)
	}

	m.built = true
	m.features = nil
	m.output = nil
	return nil
}

// Built reports whether Build has run.
func (m *Model) Built() bool {
	return m.built
}

// Parameters returns h0 followed by the kernels in increasing order.
func (m *Model) Parameters() []*nn.Parameter {
	if !m.built {
		return nil
	}
	params := make([]*nn.Parameter, 0, len(m.kernels)+1)
	params = append(params, m.bias)
	return append(params, m.kernels...)
}

// Kernel returns the order-k kernel parameter (0 is the bias).
func (m *Model) Kernel(k int) *nn.Parameter {
	if !m.built || k < 0 || k > len(m.kernels) {
		return nil
	}
	if k == 0 {
		return m.bias
	}
	return m.kernels[k-1]
}

// StateDict returns the kernels keyed by parameter name.
func (m *Model) StateDict() map[string]*tensor.Tensor {
	return nn.StateDictOf(m.Parameters())
}

// LoadStateDict copies kernel values from stateDict.
func (m *Model) LoadStateDict(stateDict map[string]*tensor.Tensor) error {
	if !m.built {
		return ErrNotBuilt
	}
	return nn.LoadParameters(m.Parameters(), stateDict)
}

// Metadata describes the architecture so a checkpoint can rebuild the model.
func (m *Model) Metadata() map[string]string {
	return map[string]string{
		metaMemory: strconv.Itoa(m.cfg.Memory),
		metaOrder:  strconv.Itoa(m.cfg.Order),
	}
}

// ConfigFromMetadata reconstructs the architecture written by Model.Metadata.
func ConfigFromMetadata(meta map[string]string) (Config, error) {
	memory, err := strconv.Atoi(meta[metaMemory])
	if err != nil {
		return Config{}, fmt.Errorf("%w: memory metadata: %w", ErrInvalidConfig, err)
	}
	order, err := strconv.Atoi(meta[metaOrder])
	if err != nil {
		return Config{}, fmt.Errorf("%w: order metadata: %w", ErrInvalidConfig, err)
	}
	cfg := Config{Memory: memory, Order: order}
	return cfg, cfg.Validate()
}

// BindExpected attaches an expected-output slot of shape [batch_size] and returns it.
func (m *Model) BindExpected() (*tensor.Tensor, error) {
	if m.batchSize <= 0 {
		return nil, fmt.Errorf("%w: expected output needs a batch size > 0", ErrShapeMismatch)
	}
	m.expected = tensor.Zeros(tensor.Shape{m.batchSize})
	return m.expected, nil
}

// Expected returns the expected-output slot, or nil if none is bound.
func (m *Model) Expected() *tensor.Tensor {
	return m.expected
}

// SetExpected copies y into the expected-output slot.
func (m *Model) SetExpected(y []float64) error {
	if m.expected == nil {
		return fmt.Errorf("%w: no expected output bound", ErrShapeMismatch)
	}
	if len(y) != m.expected.NumElements() {
		return fmt.Errorf("%w: expected output has %d values, slot holds %d",
			ErrShapeMismatch, len(y), m.expected.NumElements())
	}
	copy(m.expected.Data(), y)
	return nil
}

// Feed binds an input batch. Each row must hold Memory values, and when a batch
// size is set the row count must equal it.
func (m *Model) Feed(x [][]float64) error {
	if !m.built {
		return ErrNotBuilt
	}
	if m.batchSize > 0 && len(x) != m.batchSize {
		return fmt.Errorf("%w: input has %d rows, batch size is %d", ErrShapeMismatch, len(x), m.batchSize)
	}
	features, err := m.expand(x)
	if err != nil {
		return err
	}
	m.rows = len(x)
	m.features = features
	m.output = nil
	return nil
}

// Forward computes the output for the fed batch.
func (m *Model) Forward() (*mat.VecDense, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}
	if m.features == nil {
		return nil, ErrNotFed
	}
	m.output = m.apply(m.features, m.rows)
	return m.output, nil
}

// Output returns the last produced output, or nil before Forward.
func (m *Model) Output() *mat.VecDense {
	return m.output
}

// Backward computes kernel gradients for the fed batch given dLoss/dOutput.
//
// Gradients are also stored on the parameters via SetGrad.
func (m *Model) Backward(outputGrad mat.Vector) (nn.Gradients, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}
	if m.features == nil {
		return nil, ErrNotFed
	}
	if outputGrad.Len() != m.rows {
		return nil, fmt.Errorf("%w: output gradient has %d values, batch has %d rows",
			ErrShapeMismatch, outputGrad.Len(), m.rows)
	}

	grads := make(nn.Gradients, len(m.kernels)+1)

	biasGrad := tensor.Zeros(tensor.Shape{1})
	biasGrad.Data()[0] = mat.Sum(outputGrad)
	grads[m.bias] = biasGrad
	m.bias.SetGrad(biasGrad)

	for k, kernel := range m.kernels {
		g := tensor.Zeros(kernel.Tensor().Shape())
		g.Vec().MulVec(m.features[k].T(), outputGrad)
		grads[kernel] = g
		kernel.SetGrad(g)
	}
	return grads, nil
}

// Predict evaluates the model on arbitrary rows without touching the fed batch.
func (m *Model) Predict(x [][]float64) ([]float64, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}
	features, err := m.expand(x)
	if err != nil {
		return nil, err
	}
	return m.apply(features, len(x)).RawVector().Data, nil
}

// expand builds the per-order design matrices for x.
func (m *Model) expand(x [][]float64) ([]*mat.Dense, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrShapeMismatch)
	}
	for i, row := range x {
		if len(row) != m.cfg.Memory {
			return nil, fmt.Errorf("%w: row %d has %d values, memory is %d",
				ErrShapeMismatch, i, len(row), m.cfg.Memory)
		}
	}

	features := make([]*mat.Dense, len(m.terms))
	for k, tuples := range m.terms {
		features[k] = mat.NewDense(len(x), len(tuples), nil)
	}

	parallel.For(len(x), func(i int) {
		row := x[i]
		for k, tuples := range m.terms {
			dst := features[k].RawRowView(i)
			for j, tuple := range tuples {
				p := 1.0
				for _, idx := range tuple {
					p *= row[idx]
				}
				dst[j] = p
			}
		}
	}, m.cfg.Parallel)

	return features, nil
}

// apply computes h0 + Σ_k Φ_k·h_k.
func (m *Model) apply(features []*mat.Dense, rows int) *mat.VecDense {
	out := mat.NewVecDense(rows, nil)
	term := mat.NewVecDense(rows, nil)
	for k, kernel := range m.kernels {
		term.MulVec(features[k], kernel.Tensor().Vec())
		out.AddVec(out, term)
	}
	h0 := m.bias.Tensor().Data()[0]
	for i := 0; i < rows; i++ {
		out.SetVec(i, out.AtVec(i)+h0)
	}
	return out
}
