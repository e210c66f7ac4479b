package serialization

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type namedRegion struct {
	name       string
	start, end int64
}

// ValidateTensorOffsets checks for overlapping tensor offsets and out-of-bounds access.
func ValidateTensorOffsets(tensors map[string]TensorInfo, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
			Err:     ErrTooManyTensors,
		}
	}

	regions := make([]namedRegion, 0, len(tensors))
	for name, info := range tensors {
		regions = append(regions, namedRegion{name, info.DataOffsets[0], info.DataOffsets[1]})
	}
	slices.SortFunc(regions, func(a, b namedRegion) int {
		return cmp.Or(cmp.Compare(a.start, b.start), cmp.Compare(a.name, b.name))
	})

	for i, reg := range regions {
		if reg.start < 0 || reg.end < reg.start {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  reg.name,
				Details: fmt.Sprintf("offsets [%d, %d)", reg.start, reg.end),
				Err:     ErrNegativeOffset,
			}
		}

		if reg.end > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  reg.name,
				Details: fmt.Sprintf("end %d > data_size %d", reg.end, dataSize),
				Err:     ErrOutOfBounds,
			}
		}

		if i < len(regions)-1 {
			next := regions[i+1]
			if reg.end > next.start {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  reg.name,
					Tensor2: next.name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						reg.start, reg.end, next.start, next.end),
					Err: ErrOffsetOverlap,
				}
			}
		}
	}

	return nil
}

// ValidateTensorName rejects names that could be abused as paths.
func ValidateTensorName(name string) error {
	if name == "" || name == MetadataKey {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "empty or reserved",
			Err:     ErrInvalidTensorName,
		}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
			Err:     ErrInvalidTensorName,
		}
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\\x00") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains path traversal, separator or null byte",
			Err:     ErrInvalidTensorName,
		}
	}
	return nil
}

// ValidateHeader validates every tensor name and the offset layout.
func ValidateHeader(tensors map[string]TensorInfo, dataSize int64) error {
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
	}
	return ValidateTensorOffsets(tensors, dataSize)
}
