package volterra

import (
	"math/rand/v2"
	"testing"

	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

func newBuilt(t *testing.T, cfg Config, batch int) *Model {
	t.Helper()
	m, err := New(cfg)
	require.NoError(t, err)
	m.SetBatchSize(batch)
	require.NoError(t, m.Build())
	return m
}

func randomRows(rng *rand.Rand, rows, memory int) [][]float64 {
	x := make([][]float64, rows)
	for i := range x {
		x[i] = make([]float64, memory)
		for j := range x[i] {
			x[i][j] = rng.NormFloat64()
		}
	}
	return x
}

func TestNumTerms(t *testing.T) {
	tests := []struct {
		m, k, want int
	}{
		{4, 0, 1},
		{4, 1, 4},
		{4, 2, 10},
		{4, 3, 20},
		{1, 3, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NumTerms(tt.m, tt.k), "m=%d k=%d", tt.m, tt.k)
		if tt.k > 0 {
			assert.Len(t, terms(tt.m, tt.k), tt.want)
		}
	}
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 1}}, terms(2, 2))
}

func TestConfig_Validate(t *testing.T) {
	bad := []Config{
		{Memory: 0, Order: 1},
		{Memory: 3, Order: 0},
		{Memory: 3, Order: MaxOrder + 1},
		{Memory: 3, Order: 1, InitScale: -1},
	}
	for _, cfg := range bad {
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", cfg)
	}

	cfg := Config{Memory: 3, Order: 2}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.01, cfg.InitScale)
}

func TestBuild_Parameters(t *testing.T) {
	m := newBuilt(t, Config{Memory: 3, Order: 3, Seed: 7}, 4)

	params := m.Parameters()
	require.Len(t, params, 4)
	names := []string{"volterra.h0", "volterra.h1", "volterra.h2", "volterra.h3"}
	sizes := []int{1, 3, 6, 10}
	for i, p := range params {
		assert.Equal(t, names[i], p.Name())
		assert.Equal(t, sizes[i], p.Tensor().NumElements())
	}

	// Same seed, same initialization.
	other := newBuilt(t, Config{Memory: 3, Order: 3, Seed: 7}, 4)
	assert.Equal(t, m.Kernel(2).Tensor().Data(), other.Kernel(2).Tensor().Data())
}

// TestForward_HandComputed checks y = h0 + h1·x + h2·(x⊗x) for one row.
func TestForward_HandComputed(t *testing.T) {
	m := newBuilt(t, Config{Memory: 2, Order: 2}, 1)

	m.Kernel(0).Tensor().Data()[0] = 0.5
	copy(m.Kernel(1).Tensor().Data(), []float64{1, -1})
	// terms: x0², x0·x1, x1²
	copy(m.Kernel(2).Tensor().Data(), []float64{2, 3, 4})

	require.NoError(t, m.Feed([][]float64{{1, 2}}))
	out, err := m.Forward()
	require.NoError(t, err)

	// 0.5 + (1 - 2) + (2·1 + 3·2 + 4·4)
	assert.InDelta(t, 0.5-1+24, out.AtVec(0), 1e-12)
	assert.Same(t, out, m.Output())
}

// TestBackward_MatchesFiniteDifferences checks analytic kernel gradients of the
// MSE loss against central differences.
func TestBackward_MatchesFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	m := newBuilt(t, Config{Memory: 3, Order: 3, InitScale: 0.3, Seed: 11}, 5)

	x := randomRows(rng, 5, 3)
	target := mat.NewVecDense(5, nil)
	for i := 0; i < 5; i++ {
		target.SetVec(i, rng.NormFloat64())
	}
	require.NoError(t, m.Feed(x))

	mse := nn.NewMSELoss()
	params := m.Parameters()

	flatten := func() []float64 {
		var out []float64
		for _, p := range params {
			out = append(out, p.Tensor().Data()...)
		}
		return out
	}
	assign := func(theta []float64) {
		off := 0
		for _, p := range params {
			n := copy(p.Tensor().Data(), theta[off:])
			off += n
		}
	}

	theta0 := flatten()
	lossAt := func(theta []float64) float64 {
		assign(theta)
		out, err := m.Forward()
		require.NoError(t, err)
		loss, err := mse.Forward(out, target)
		require.NoError(t, err)
		return loss
	}

	numeric := fd.Gradient(nil, lossAt, theta0, &fd.Settings{Formula: fd.Central})

	assign(theta0)
	out, err := m.Forward()
	require.NoError(t, err)
	g, err := mse.Backward(out, target)
	require.NoError(t, err)
	grads, err := m.Backward(g)
	require.NoError(t, err)

	var analytic []float64
	for _, p := range params {
		require.Same(t, grads[p], p.Grad())
		analytic = append(analytic, grads[p].Data()...)
	}

	require.Len(t, analytic, len(numeric))
	for i := range numeric {
		assert.InDelta(t, numeric[i], analytic[i], 1e-5, "coefficient %d", i)
	}
}

func TestFeed_ShapeMismatch(t *testing.T) {
	m := newBuilt(t, Config{Memory: 2, Order: 1}, 2)

	assert.ErrorIs(t, m.Feed([][]float64{{1, 2}}), ErrShapeMismatch, "wrong row count")
	assert.ErrorIs(t, m.Feed([][]float64{{1, 2}, {3}}), ErrShapeMismatch, "wrong row width")

	_, err := m.Forward()
	assert.ErrorIs(t, err, ErrNotFed)

	require.NoError(t, m.Feed([][]float64{{1, 2}, {3, 4}}))
	_, err = m.Backward(mat.NewVecDense(3, nil))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNotBuilt(t *testing.T) {
	m, err := New(Config{Memory: 2, Order: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, m.Feed([][]float64{{1, 2}}), ErrNotBuilt)
	_, err = m.Predict([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrNotBuilt)
	assert.Nil(t, m.Parameters())
}

func TestExpectedSlot(t *testing.T) {
	m := newBuilt(t, Config{Memory: 2, Order: 1}, 3)

	assert.Error(t, m.SetExpected([]float64{1, 2, 3}), "no slot bound yet")

	slot, err := m.BindExpected()
	require.NoError(t, err)
	assert.Equal(t, 3, slot.NumElements())
	assert.Same(t, slot, m.Expected())

	require.NoError(t, m.SetExpected([]float64{1, 2, 3}))
	assert.Equal(t, []float64{1, 2, 3}, slot.Data())
	assert.ErrorIs(t, m.SetExpected([]float64{1}), ErrShapeMismatch)

	unbatched := newBuilt(t, Config{Memory: 2, Order: 1}, 0)
	_, err = unbatched.BindExpected()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestPredict_MatchesForward(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	m := newBuilt(t, Config{Memory: 4, Order: 2, InitScale: 0.5, Seed: 1}, 6)
	x := randomRows(rng, 6, 4)

	require.NoError(t, m.Feed(x))
	out, err := m.Forward()
	require.NoError(t, err)

	pred, err := m.Predict(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, out.RawVector().Data, pred, 1e-12)

	// Predict ignores the batch size.
	single, err := m.Predict(x[:1])
	require.NoError(t, err)
	assert.InDelta(t, pred[0], single[0], 1e-12)
}

func TestParallelExpansion_MatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	x := randomRows(rng, 300, 5)

	seq := newBuilt(t, Config{Memory: 5, Order: 3, Seed: 2}, 0)
	par := newBuilt(t, Config{
		Memory:   5,
		Order:    3,
		Seed:     2,
		Parallel: parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16},
	}, 0)

	a, err := seq.Predict(x)
	require.NoError(t, err)
	b, err := par.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStateDict_RoundTrip(t *testing.T) {
	src := newBuilt(t, Config{Memory: 3, Order: 2, Seed: 1}, 2)
	dst := newBuilt(t, Config{Memory: 3, Order: 2, Seed: 2}, 2)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	for i, p := range src.Parameters() {
		assert.Equal(t, p.Tensor().Data(), dst.Parameters()[i].Tensor().Data())
	}

	wrong := newBuilt(t, Config{Memory: 4, Order: 2}, 2)
	assert.Error(t, wrong.LoadStateDict(src.StateDict()))
}

func TestMetadata_RoundTrip(t *testing.T) {
	m := newBuilt(t, Config{Memory: 6, Order: 3}, 1)

	cfg, err := ConfigFromMetadata(m.Metadata())
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Memory)
	assert.Equal(t, 3, cfg.Order)

	_, err = ConfigFromMetadata(map[string]string{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
