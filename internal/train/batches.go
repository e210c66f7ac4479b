package train

import "iter"

// Batch is a minibatch of inputs and matching expected outputs.
type Batch[X, Y any] struct {
	X []X
	Y []Y
}

// Len returns the number of rows in the batch.
func (b Batch[X, Y]) Len() int {
	return len(b.X)
}

// Batches yields consecutive slices of x and y, size rows at a time, in order.
//
// The last batch holds the remaining rows and may be shorter than size; callers
// that need full batches skip it. The sequence never wraps or shuffles, and
// ranging over it again starts from the first row. Batches share memory with x
// and y. A size <= 0 yields nothing.
func Batches[X, Y any](x []X, y []Y, size int) iter.Seq[Batch[X, Y]] {
	return func(yield func(Batch[X, Y]) bool) {
		if size <= 0 {
			return
		}
		for start := 0; start < len(x); start += size {
			end := min(start+size, len(x))
			b := Batch[X, Y]{X: x[start:end:end]}
			if start < len(y) {
				b.Y = y[start:min(end, len(y)):min(end, len(y))]
			}
			if !yield(b) {
				return
			}
		}
	}
}
