package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/born-ml/volterra/internal/tensor"
)

// SafeTensorsReader reads a SafeTensors file.
//
// The data section is loaded into memory on open; Volterra state dicts are small.
type SafeTensorsReader struct {
	file     *os.File
	metadata map[string]string
	tensors  map[string]TensorInfo
	data     []byte
}

// OpenSafeTensors opens and validates a SafeTensors file.
func OpenSafeTensors(path string) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &SafeTensorsReader{file: file}
	if err := r.parse(); err != nil {
		_ = file.Close() // Best effort close on error
		return nil, err
	}
	return r, nil
}

// parse reads the header and data section.
func (r *SafeTensorsReader) parse() error {
	var headerSize uint64
	if err := binary.Read(r.file, binary.LittleEndian, &headerSize); err != nil {
		return fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerBytes); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &rawMap); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	r.tensors = make(map[string]TensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == MetadataKey {
			if err := json.Unmarshal(value, &r.metadata); err != nil {
				return fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		r.tensors[key] = info
	}

	data, err := io.ReadAll(r.file)
	if err != nil {
		return fmt.Errorf("failed to read tensor data: %w", err)
	}
	r.data = data

	if err := ValidateHeader(r.tensors, int64(len(data))); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return verifyChecksum(data, r.metadata[ChecksumKey])
}

// Metadata returns the metadata map from the header.
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.metadata
}

// TensorNames returns all tensor names in sorted order.
func (r *SafeTensorsReader) TensorNames() []string {
	return slices.Sorted(maps.Keys(r.tensors))
}

// ReadTensor decodes one tensor by name.
func (r *SafeTensorsReader) ReadTensor(name string) (*tensor.Tensor, error) {
	info, ok := r.tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}

	dtype, err := dtypeFromSafeTensors(info.DType)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	shape := make(tensor.Shape, len(info.Shape))
	for i, dim := range info.Shape {
		shape[i] = int(dim)
	}

	t, err := tensor.FromBytes(r.data[info.DataOffsets[0]:info.DataOffsets[1]], dtype, shape)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	return t, nil
}

// ReadStateDict decodes every tensor in the file.
func (r *SafeTensorsReader) ReadStateDict() (map[string]*tensor.Tensor, error) {
	stateDict := make(map[string]*tensor.Tensor, len(r.tensors))
	for name := range r.tensors {
		t, err := r.ReadTensor(name)
		if err != nil {
			return nil, err
		}
		stateDict[name] = t
	}
	return stateDict, nil
}

// Close closes the underlying file.
func (r *SafeTensorsReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ReadSafeTensors is a convenience wrapper returning the state dict and metadata of path.
func ReadSafeTensors(path string) (map[string]*tensor.Tensor, map[string]string, error) {
	r, err := OpenSafeTensors(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = r.Close()
	}()

	stateDict, err := r.ReadStateDict()
	if err != nil {
		return nil, nil, err
	}
	return stateDict, r.Metadata(), nil
}
