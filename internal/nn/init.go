package nn

import (
	"math/rand/v2"

	"github.com/born-ml/volterra/internal/tensor"
)

// Randn creates a tensor with values drawn from N(0, std²).
//
// Parameters:
//   - shape: Shape of the tensor
//   - std: Standard deviation (0 yields zeros)
//   - rng: Source of randomness, so initialization is reproducible from a seed
//
// Returns a tensor with random normal values.
func Randn(shape tensor.Shape, std float64, rng *rand.Rand) *tensor.Tensor {
	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		data[i] = rng.NormFloat64() * std
	}
	return t
}
