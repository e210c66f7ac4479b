package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/volterra/internal/nn"
	"github.com/born-ml/volterra/internal/optim"
	"github.com/born-ml/volterra/internal/volterra"
)

func newModel(t *testing.T) *volterra.Model {
	t.Helper()
	m, err := volterra.New(volterra.Config{Memory: 3, Order: 2, Seed: 7})
	require.NoError(t, err)
	require.NoError(t, m.Build())
	return m
}

func TestSaver_MaxToKeep(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	saver, err := NewSaver(dir, 2)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	model := newModel(t)
	var paths []string
	for _, step := range []int64{5, 10, 15} {
		p, err := saver.Save(&nn.Checkpoint{Model: model, Step: step})
		require.NoError(t, err)
		paths = append(paths, p)
	}

	assert.Equal(t, filepath.Join(dir, "model-5"), paths[0])
	assert.NoFileExists(t, paths[0])
	assert.FileExists(t, paths[1])
	assert.FileExists(t, paths[2])
	assert.Equal(t, paths[1:], saver.Checkpoints())

	st, err := ReadState(dir)
	require.NoError(t, err)
	assert.Equal(t, "model-15", st.Latest)
	assert.Equal(t, []string{"model-10", "model-15"}, st.All)

	latest, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, paths[2], latest)

	// Every retained checkpoint can still be restored.
	for _, p := range saver.Checkpoints() {
		_, err := nn.LoadCheckpoint(p, newModel(t), nil)
		require.NoError(t, err, p)
	}
}

func TestSaver_KeepAll(t *testing.T) {
	dir := t.TempDir()
	saver, err := NewSaver(dir, 0)
	require.NoError(t, err)

	model := newModel(t)
	for step := int64(1); step <= 4; step++ {
		_, err := saver.Save(&nn.Checkpoint{Model: model, Step: step})
		require.NoError(t, err)
	}
	assert.Len(t, saver.Checkpoints(), 4)
}

func TestSaver_SameStepReplaces(t *testing.T) {
	dir := t.TempDir()
	saver, err := NewSaver(dir, 2)
	require.NoError(t, err)

	model := newModel(t)
	for _, step := range []int64{1, 2, 2} {
		_, err := saver.Save(&nn.Checkpoint{Model: model, Step: step})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{saver.PathFor(1), saver.PathFor(2)}, saver.Checkpoints())
	assert.FileExists(t, saver.PathFor(1))
}

func TestSaver_RoundTripWithOptimizer(t *testing.T) {
	dir := t.TempDir()
	saver, err := NewSaver(dir, 1)
	require.NoError(t, err)

	model := newModel(t)
	opt, err := optim.New(optim.NameAdam, model.Parameters(), 0.01)
	require.NoError(t, err)

	path, err := saver.Save(&nn.Checkpoint{
		Model:     model,
		Optimizer: opt,
		Epoch:     2,
		Step:      40,
		Loss:      0.125,
		RunID:     "run",
		Metadata:  model.Metadata(),
	})
	require.NoError(t, err)

	restored := newModel(t)
	restoredOpt, err := optim.New(optim.NameAdam, restored.Parameters(), 0.01)
	require.NoError(t, err)

	ckpt, err := nn.LoadCheckpoint(path, restored, restoredOpt)
	require.NoError(t, err)
	assert.Equal(t, 2, ckpt.Epoch)
	assert.Equal(t, int64(40), ckpt.Step)
	assert.Equal(t, 0.125, ckpt.Loss)
	assert.Equal(t, "run", ckpt.RunID)

	cfg, err := volterra.ConfigFromMetadata(ckpt.Metadata)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Memory)
	assert.Equal(t, 2, cfg.Order)

	for name, want := range model.StateDict() {
		assert.Equal(t, want.Data(), restored.StateDict()[name].Data(), name)
	}
}

func TestLatest_Missing(t *testing.T) {
	_, err := Latest(t.TempDir())
	assert.ErrorIs(t, err, ErrNoCheckpoint)
}

func TestReadState_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StateFile), []byte("model_checkpoint_path model-1\n"), 0o600))

	_, err := ReadState(dir)
	assert.Error(t, err)
}

func TestState_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := &State{Latest: "model-3", All: []string{"model-2", "model-3"}}
	require.NoError(t, WriteState(dir, want))

	got, err := ReadState(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoFileExists(t, filepath.Join(dir, StateFile+".tmp"))
}
