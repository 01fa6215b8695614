package ensemble

import (
	"fmt"
	"math"
)

// linearParams is the serialized form of a fitted linear regression,
// used for the score-margin model.
type linearParams struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

type linearModel struct {
	weights   []float64
	intercept float64
}

func newLinearModel(p linearParams, dim int) (*linearModel, error) {
	if len(p.Weights) != dim {
		return nil, fmt.Errorf("weight count %d does not match feature count %d", len(p.Weights), dim)
	}
	if !isFinite(p.Intercept) {
		return nil, fmt.Errorf("intercept is not finite")
	}
	for i, w := range p.Weights {
		if !isFinite(w) {
			return nil, fmt.Errorf("weight %d is not finite", i)
		}
	}
	return &linearModel{weights: p.Weights, intercept: p.Intercept}, nil
}

func (m *linearModel) predict(scaled []float64) (float64, error) {
	if len(scaled) != len(m.weights) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.weights), len(scaled))
	}
	sum := m.intercept
	for i, x := range scaled {
		sum += m.weights[i] * x
	}
	if !isFinite(sum) {
		return 0, fmt.Errorf("prediction is not finite")
	}
	return sum, nil
}

// sigmoid converts a raw score to a probability.
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
