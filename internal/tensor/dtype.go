// Package tensor provides the dense parameter tensors used by the Volterra trainer.
//
// Tensors are flat float64 buffers with a shape. They can be viewed as gonum vectors
// without copying, so optimizers that update a tensor in place are immediately visible
// to the model's linear algebra.
package tensor

// DataType is the element encoding of a tensor on disk. In memory every tensor
// holds float64; Float32 exists so narrower checkpoints can still be decoded.
type DataType int

// Element encodings.
const (
	Float32 DataType = iota
	Float64
)

var dtypeInfo = [...]struct {
	name string
	size int
}{
	Float32: {"float32", 4},
	Float64: {"float64", 8},
}

func (dt DataType) known() bool {
	return dt >= 0 && int(dt) < len(dtypeInfo)
}

// Size returns the encoded width of one element in bytes, or 0 for an unknown type.
func (dt DataType) Size() int {
	if !dt.known() {
		return 0
	}
	return dtypeInfo[dt].size
}

func (dt DataType) String() string {
	if !dt.known() {
		return "unknown"
	}
	return dtypeInfo[dt].name
}
