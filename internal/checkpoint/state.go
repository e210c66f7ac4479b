package checkpoint

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// StateFile is the name of the state file inside a checkpoint directory.
const StateFile = "checkpoint"

const (
	keyLatest = "model_checkpoint_path"
	keyAll    = "all_model_checkpoint_paths"
)

// State lists the checkpoints of a directory. Paths are relative to it unless absolute.
type State struct {
	Latest string
	All    []string
}

// WriteState atomically replaces the state file in dir.
func WriteState(dir string, st *State) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s\n", keyLatest, strconv.Quote(st.Latest))
	for _, p := range st.All {
		fmt.Fprintf(&buf, "%s: %s\n", keyAll, strconv.Quote(p))
	}

	path := filepath.Join(dir, StateFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write checkpoint state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write checkpoint state: %w", err)
	}
	return nil
}

// ReadState parses the state file in dir.
func ReadState(dir string) (*State, error) {
	//nolint:gosec // G304: dir is supplied by the caller
	data, err := os.ReadFile(filepath.Join(dir, StateFile))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoCheckpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint state: %w", err)
	}

	st := &State{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		key, raw, ok := strings.Cut(text, ":")
		if !ok {
			return nil, fmt.Errorf("checkpoint state line %d: missing ':'", line)
		}
		value, err := strconv.Unquote(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("checkpoint state line %d: %w", line, err)
		}
		switch strings.TrimSpace(key) {
		case keyLatest:
			st.Latest = value
		case keyAll:
			st.All = append(st.All, value)
		}
	}
	return st, sc.Err()
}
