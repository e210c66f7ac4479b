package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	s := &Series{
		Input:  []float64{1, 2, 3, 4, 5},
		Output: []float64{10, 20, 30, 40, 50},
	}

	x, y, err := Window(s, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 2, 1}, {4, 3, 2}, {5, 4, 3}}, x)
	assert.Equal(t, []float64{30, 40, 50}, y)

	_, _, err = Window(s, 6)
	assert.ErrorIs(t, err, ErrTooShort)

	_, _, err = Window(s, 0)
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9}}
	y := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	tx, ty, vx, vy, err := Split(x, y, 0.2)
	require.NoError(t, err)
	assert.Len(t, tx, 8)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7}, ty)
	assert.Equal(t, [][]float64{{8}, {9}}, vx)
	assert.Equal(t, []float64{8, 9}, vy)

	tx, _, vx, _, err = Split(x, y, 0)
	require.NoError(t, err)
	assert.Len(t, tx, 10)
	assert.Empty(t, vx)

	_, _, _, _, err = Split(x, y, 1)
	assert.Error(t, err)
}

func TestCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")
	want := &Series{Input: []float64{0.5, -1.25, 3}, Output: []float64{1, 2.5, -0.125}}
	require.NoError(t, WriteCSV(path, want))

	got, err := LoadCSV(path, "input", "output", 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	limited, err := LoadCSV(path, "input", "output", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, limited.Len())
}

func TestLoadCSV_Columns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")
	data := "time, u, y\n0, 1.5, 2\n1, -1, 0.5\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s, err := LoadCSV(path, "u", "y", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -1}, s.Input)
	assert.Equal(t, []float64{2, 0.5}, s.Output)

	_, err = LoadCSV(path, "missing", "y", 0)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("input,output\nx,1\n"), 0o600))
	_, err = LoadCSV(bad, "input", "output", 0)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("input,output\n"), 0o600))
	_, err = LoadCSV(empty, "input", "output", 0)
	assert.Error(t, err)
}

func TestSynthetic(t *testing.T) {
	cfg := SyntheticConfig{Samples: 50, Memory: 3, Order: 2, Seed: 11}
	s, system, err := Synthetic(cfg)
	require.NoError(t, err)
	require.Equal(t, 50, s.Len())

	// Noise-free outputs match the system on the windowed rows.
	x, y, err := Window(s, 3)
	require.NoError(t, err)
	pred, err := system.Predict(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, y, pred, 1e-12)

	for _, u := range s.Input {
		assert.GreaterOrEqual(t, u, -1.0)
		assert.Less(t, u, 1.0)
	}

	again, _, err := Synthetic(cfg)
	require.NoError(t, err)
	assert.Equal(t, s, again, "same seed, same series")

	_, _, err = Synthetic(SyntheticConfig{Samples: 0, Memory: 3, Order: 1})
	assert.Error(t, err)
	_, _, err = Synthetic(SyntheticConfig{Samples: 10, Memory: 3, Order: 9})
	assert.Error(t, err)
}
