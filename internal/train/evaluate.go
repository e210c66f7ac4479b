package train

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrNoFullBatch is returned by Evaluate when the data holds fewer rows than one batch.
var ErrNoFullBatch = errors.New("no full-size batch to evaluate")

// Evaluate returns the mean loss over the full-size batches of x and y without
// updating any parameter. The model must be built and bound to loss.
func Evaluate(ctx context.Context, model Model, loss *Loss, x [][]float64, y []float64) (float64, error) {
	mean, n, err := evaluate(ctx, model, loss, x, y, nil)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %d rows, batch size %d", ErrNoFullBatch, len(x), model.BatchSize())
	}
	return mean, nil
}

// evaluate calls each with the loss of every full-size batch and returns the mean
// and the number of batches. The mean is NaN when no batch was evaluated.
func evaluate(ctx context.Context, model Model, loss *Loss, x [][]float64, y []float64,
	each func(loss float64) error,
) (float64, int, error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("%w: %d inputs, %d outputs", ErrInvalidOptions, len(x), len(y))
	}

	size := model.BatchSize()
	var sum float64
	n := 0
	for batch := range Batches(x, y, size) {
		if err := ctx.Err(); err != nil {
			return 0, n, err
		}
		if batch.Len() < size {
			continue
		}
		if err := model.Feed(batch.X); err != nil {
			return 0, n, err
		}
		if err := model.SetExpected(batch.Y); err != nil {
			return 0, n, err
		}
		value, err := loss.Value()
		if err != nil {
			return 0, n, err
		}
		if each != nil {
			if err := each(value); err != nil {
				return 0, n, err
			}
		}
		sum += value
		n++
	}
	if n == 0 {
		return math.NaN(), 0, nil
	}
	return sum / float64(n), n, nil
}
