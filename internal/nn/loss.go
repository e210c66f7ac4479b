package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// Example:
//
//	var mse nn.MSELoss
//	loss, err := mse.Forward(predictions, targets)
//	grad, err := mse.Backward(predictions, targets) // dLoss/dPredictions
type MSELoss struct{}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss() *MSELoss {
	return &MSELoss{}
}

// Forward computes the MSE loss.
//
// Returns an error when predictions and targets differ in length.
func (m *MSELoss) Forward(predictions, targets mat.Vector) (float64, error) {
	diff, err := residual(predictions, targets)
	if err != nil {
		return 0, err
	}
	return mat.Dot(diff, diff) / float64(diff.Len()), nil
}

// Backward returns the gradient of the loss with respect to predictions:
//
//	dL/dp = 2 * (predictions - targets) / n
func (m *MSELoss) Backward(predictions, targets mat.Vector) (*mat.VecDense, error) {
	diff, err := residual(predictions, targets)
	if err != nil {
		return nil, err
	}
	diff.ScaleVec(2/float64(diff.Len()), diff)
	return diff, nil
}

// residual returns predictions - targets.
func residual(predictions, targets mat.Vector) (*mat.VecDense, error) {
	if predictions.Len() != targets.Len() {
		return nil, fmt.Errorf("MSELoss: predictions have %d elements, targets have %d",
			predictions.Len(), targets.Len())
	}
	if predictions.Len() == 0 {
		return nil, fmt.Errorf("MSELoss: empty input")
	}
	diff := mat.NewVecDense(predictions.Len(), nil)
	diff.SubVec(predictions, targets)
	return diff, nil
}
