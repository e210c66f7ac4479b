package tensor

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{"scalar", Shape{}, 1},
		{"vector", Shape{5}, 5},
		{"matrix", Shape{3, 4}, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.shape.NumElements())
		})
	}
}

func TestShape_Validate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1}.Validate())
}

func TestFromSlice(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	x, err := FromSlice(src, Shape{2, 2})
	require.NoError(t, err)

	src[0] = 100
	assert.Equal(t, 1.0, x.Data()[0], "FromSlice must copy its input")
	assert.Equal(t, Shape{2, 2}, x.Shape())

	_, err = FromSlice(src, Shape{3})
	assert.Error(t, err)
}

func TestVec_SharesBuffer(t *testing.T) {
	x := Zeros(Shape{3})
	v := x.Vec()
	v.SetVec(1, 7)
	assert.Equal(t, 7.0, x.Data()[1])
}

func TestBytesRoundTrip(t *testing.T) {
	x, err := FromSlice([]float64{-1.5, 0, math.Pi}, Shape{3})
	require.NoError(t, err)

	y, err := FromBytes(x.Bytes(), Float64, x.Shape())
	require.NoError(t, err)
	assert.Equal(t, x.Data(), y.Data())
}

func TestFromBytes_Float32(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw[0:], math.Float32bits(0.5))
	binary.LittleEndian.PutUint32(raw[4:], math.Float32bits(-2))

	x, err := FromBytes(raw, Float32, Shape{2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -2}, x.Data())

	_, err = FromBytes(raw, Float64, Shape{2})
	assert.Error(t, err, "length mismatch must be rejected")
}

func TestCopyFrom(t *testing.T) {
	a := Zeros(Shape{2})
	b, _ := FromSlice([]float64{3, 4}, Shape{2})
	require.NoError(t, a.CopyFrom(b))
	assert.Equal(t, []float64{3, 4}, a.Data())

	assert.Error(t, a.CopyFrom(Zeros(Shape{3})))
}

func TestDataType(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, "float64", Float64.String())
	assert.Equal(t, 0, DataType(9).Size())
	assert.Equal(t, "unknown", DataType(-1).String())
}

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	assert.NoError(t, Shape{}.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.True(t, Shape{1, 2}.Equal(Shape{1, 2}))
	assert.False(t, Shape{1, 2}.Equal(Shape{2, 1}))
	assert.Equal(t, []int64{3, 4}, Shape{3, 4}.Int64s())
}
