// Package checkpoint manages numbered training checkpoints in a directory.
//
// A Saver writes <dir>/<prefix>-<step> files and keeps only the most recent
// max_to_keep of them. After every save it rewrites a small text state file
// named "checkpoint" in the same directory, using the TensorFlow layout:
//
//	model_checkpoint_path: "model-300"
//	all_model_checkpoint_paths: "model-200"
//	all_model_checkpoint_paths: "model-300"
//
// Latest reads that file to locate the newest checkpoint for resuming.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/born-ml/volterra/internal/nn"
)

// DefaultPrefix is the file name prefix used by NewSaver.
const DefaultPrefix = "model"

// ErrNoCheckpoint is returned when a directory holds no checkpoint state.
var ErrNoCheckpoint = errors.New("no checkpoint found")

// Saver writes checkpoints and enforces the retention bound.
//
// A Saver is not safe for concurrent use.
type Saver struct {
	dir       string
	prefix    string
	maxToKeep int
	kept      []string
}

// NewSaver creates dir if it does not exist. maxToKeep <= 0 keeps every checkpoint.
func NewSaver(dir string, maxToKeep int) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	return &Saver{dir: dir, prefix: DefaultPrefix, maxToKeep: maxToKeep}, nil
}

// Dir returns the checkpoint directory.
func (s *Saver) Dir() string {
	return s.dir
}

// PathFor returns the checkpoint path used for step.
func (s *Saver) PathFor(step int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%d", s.prefix, step))
}

// Save writes ckpt as <dir>/<prefix>-<step>, deletes checkpoints beyond the
// retention bound (oldest first) and updates the state file.
func (s *Saver) Save(ckpt *nn.Checkpoint) (string, error) {
	path := s.PathFor(ckpt.Step)
	if err := ckpt.Save(path); err != nil {
		return "", err
	}

	// Saving the same step twice replaces the earlier entry.
	s.kept = slices.DeleteFunc(s.kept, func(p string) bool { return p == path })
	s.kept = append(s.kept, path)

	for s.maxToKeep > 0 && len(s.kept) > s.maxToKeep {
		if err := os.Remove(s.kept[0]); err != nil && !os.IsNotExist(err) {
			return path, fmt.Errorf("failed to remove old checkpoint: %w", err)
		}
		s.kept = s.kept[1:]
	}

	if err := WriteState(s.dir, s.state()); err != nil {
		return path, err
	}
	return path, nil
}

// Checkpoints returns the retained checkpoint paths, oldest first.
func (s *Saver) Checkpoints() []string {
	return slices.Clone(s.kept)
}

func (s *Saver) state() *State {
	st := &State{}
	for _, p := range s.kept {
		st.All = append(st.All, filepath.Base(p))
	}
	st.Latest = st.All[len(st.All)-1]
	return st
}

// Latest returns the path of the newest checkpoint recorded in dir.
func Latest(dir string) (string, error) {
	st, err := ReadState(dir)
	if err != nil {
		return "", err
	}
	if st.Latest == "" {
		return "", fmt.Errorf("%s: %w", dir, ErrNoCheckpoint)
	}
	if filepath.IsAbs(st.Latest) {
		return st.Latest, nil
	}
	return filepath.Join(dir, st.Latest), nil
}
