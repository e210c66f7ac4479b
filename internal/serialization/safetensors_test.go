package serialization

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/volterra/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStateDict(t *testing.T) map[string]*tensor.Tensor {
	t.Helper()
	h0, err := tensor.FromSlice([]float64{0.25}, tensor.Shape{1})
	require.NoError(t, err)
	h1, err := tensor.FromSlice([]float64{1, -2, 3}, tensor.Shape{3})
	require.NoError(t, err)
	return map[string]*tensor.Tensor{"volterra.h0": h0, "volterra.h1": h1}
}

func TestSafeTensors_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model-1")
	stateDict := sampleStateDict(t)

	require.NoError(t, WriteSafeTensors(path, stateDict, map[string]string{"step": "1"}))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed away")

	loaded, meta, err := ReadSafeTensors(path)
	require.NoError(t, err)

	assert.Equal(t, "1", meta["step"])
	assert.NotEmpty(t, meta[ChecksumKey])
	require.Len(t, loaded, 2)
	for name, want := range stateDict {
		got := loaded[name]
		require.NotNil(t, got, name)
		assert.Equal(t, want.Shape(), got.Shape())
		assert.Equal(t, want.Data(), got.Data())
	}
}

func TestSafeTensors_TensorNamesSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model")
	require.NoError(t, WriteSafeTensors(path, sampleStateDict(t), nil))

	r, err := OpenSafeTensors(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"volterra.h0", "volterra.h1"}, r.TensorNames())

	_, err = r.ReadTensor("missing")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestSafeTensors_CorruptedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model")
	require.NoError(t, WriteSafeTensors(path, sampleStateDict(t), nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = OpenSafeTensors(path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestSafeTensors_HeaderTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad")
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, MaxHeaderSize+1)
	require.NoError(t, os.WriteFile(path, buf, 0o600))

	_, err := OpenSafeTensors(path)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestWriter_RejectsInvalidName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model")
	x := tensor.Zeros(tensor.Shape{1})

	err := WriteSafeTensors(path, map[string]*tensor.Tensor{"../escape": x}, nil)
	require.Error(t, err)

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.ErrorIs(t, err, ErrInvalidTensorName)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "failed write must not leave a file")
}

func TestWriter_ClosedWriter(t *testing.T) {
	w, err := NewSafeTensorsWriter(filepath.Join(t.TempDir(), "model"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.WriteStateDict(sampleStateDict(t), nil), ErrWriterClosed)
}
