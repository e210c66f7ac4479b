package serialization

import (
	"fmt"

	"github.com/born-ml/volterra/internal/tensor"
)

// Format constants.
const (
	MetadataKey = "__metadata__" // Header entry holding the string metadata map
	ChecksumKey = "sha256"       // Metadata key for the data section checksum
)

// Validation limits.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// SafeTensors dtype strings.
const (
	DTypeF32 = "F32"
	DTypeF64 = "F64"
)

// TensorInfo describes a tensor entry in the header.
type TensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end) relative to the data section
}

// dtypeFromSafeTensors converts a SafeTensors dtype string to a tensor.DataType.
func dtypeFromSafeTensors(s string) (tensor.DataType, error) {
	switch s {
	case DTypeF32:
		return tensor.Float32, nil
	case DTypeF64:
		return tensor.Float64, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDType, s)
	}
}

// dtypeToSafeTensors converts tensor.DataType to SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) string {
	if dt == tensor.Float32 {
		return DTypeF32
	}
	return DTypeF64
}
