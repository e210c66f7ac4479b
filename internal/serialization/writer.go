package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/born-ml/volterra/internal/tensor"
)

// SafeTensorsWriter writes a state dict in SafeTensors format.
//
// Data goes to a temporary file next to the target and is renamed into place on
// Close, so a crash never leaves a truncated file under the final name.
type SafeTensorsWriter struct {
	file    *os.File
	path    string
	written bool
	closed  bool
}

// NewSafeTensorsWriter creates a new SafeTensors file writer.
func NewSafeTensorsWriter(path string) (*SafeTensorsWriter, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path + ".tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &SafeTensorsWriter{
		file: file,
		path: path,
	}, nil
}

// WriteSafeTensors writes tensors to a SafeTensors file at path.
func WriteSafeTensors(path string, stateDict map[string]*tensor.Tensor, metadata map[string]string) (err error) {
	writer, err := NewSafeTensorsWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return writer.WriteStateDict(stateDict, metadata)
}

// WriteStateDict writes a state dictionary to the file.
//
// Tensors are written in alphabetical order by name. The data section checksum is
// added to the metadata under ChecksumKey.
func (w *SafeTensorsWriter) WriteStateDict(stateDict map[string]*tensor.Tensor, metadata map[string]string) error {
	if w.closed {
		return ErrWriterClosed
	}

	names := slices.Sorted(maps.Keys(stateDict))

	header := make(map[string]any, len(names)+1)
	var data bytes.Buffer
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		t := stateDict[name]
		start := int64(data.Len())
		data.Write(t.Bytes())
		header[name] = TensorInfo{
			DType:       dtypeToSafeTensors(t.DType()),
			Shape:       t.Shape().Int64s(),
			DataOffsets: [2]int64{start, int64(data.Len())},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	maps.Copy(meta, metadata)
	meta[ChecksumKey] = dataChecksum(data.Bytes())
	header[MetadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w.file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.file.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	w.written = true
	return nil
}

// Close closes the writer and moves the file into place.
//
// If nothing was written successfully, the temporary file is removed instead.
func (w *SafeTensorsWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	tmp := w.file.Name()
	if err := w.file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if !w.written {
		return os.Remove(tmp)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
