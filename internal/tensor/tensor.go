package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Tensor is a dense, row-major float64 tensor.
//
// The buffer is owned by the tensor; Vec returns a view that shares it.
type Tensor struct {
	shape Shape
	data  []float64
}

// Zeros creates a zero-filled tensor with the given shape.
//
// Panics if the shape is invalid; shapes here come from model configuration, not data.
func Zeros(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.Zeros: %v", err))
	}
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float64, shape.NumElements()),
	}
}

// FromSlice creates a tensor from data. The slice is copied.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	return &Tensor{shape: shape.Clone(), data: buf}, nil
}

// FromBytes decodes little-endian data of the given type into a float64 tensor.
func FromBytes(raw []byte, dtype DataType, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	n := shape.NumElements()
	if len(raw) != n*dtype.Size() {
		return nil, fmt.Errorf("byte length %d does not match shape %v of %s", len(raw), shape, dtype)
	}

	t := Zeros(shape)
	switch dtype {
	case Float64:
		for i := range t.data {
			t.data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	case Float32:
		for i := range t.data {
			t.data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	default:
		return nil, fmt.Errorf("unsupported data type %s", dtype)
	}
	return t, nil
}

// Shape returns the tensor shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// DType returns the in-memory data type (always Float64).
func (t *Tensor) DType() DataType {
	return Float64
}

// NumElements returns the number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying buffer. Writes are visible to the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Vec returns a gonum vector view over the flattened tensor.
func (t *Tensor) Vec() *mat.VecDense {
	return mat.NewVecDense(len(t.data), t.data)
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	buf := make([]float64, len(t.data))
	copy(buf, t.data)
	return &Tensor{shape: t.shape.Clone(), data: buf}
}

// CopyFrom overwrites t with the values of src. Shapes must match.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.shape.Equal(src.shape) {
		return fmt.Errorf("shape mismatch: expected %v, got %v", t.shape, src.shape)
	}
	copy(t.data, src.data)
	return nil
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float64) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Bytes encodes the tensor as little-endian float64 values.
func (t *Tensor) Bytes() []byte {
	out := make([]byte, len(t.data)*8)
	for i, v := range t.data {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}
