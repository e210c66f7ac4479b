package tensor

import (
	"fmt"
	"slices"
)

// Shape lists tensor dimensions, outermost first. An empty shape is a scalar.
type Shape []int

// NumElements returns the product of the dimensions.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate rejects zero and negative dimensions.
func (s Shape) Validate() error {
	if i := slices.IndexFunc(s, func(dim int) bool { return dim <= 0 }); i >= 0 {
		return fmt.Errorf("shape %v: dimension %d is %d, want > 0", []int(s), i, s[i])
	}
	return nil
}

// Equal reports whether both shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns a copy that does not alias s.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

// Int64s returns the dimensions as int64, the form stored in SafeTensors headers.
func (s Shape) Int64s() []int64 {
	out := make([]int64, len(s))
	for i, dim := range s {
		out[i] = int64(dim)
	}
	return out
}
