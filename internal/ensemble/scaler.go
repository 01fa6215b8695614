package ensemble

import (
	"fmt"
	"math"
)

// scalerParams is the serialized form of a fitted standard scaler.
type scalerParams struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// scaler standardizes raw feature values with the mean and scale the
// model was trained with: (x - mean) / scale per feature.
type scaler struct {
	mean  []float64
	scale []float64
}

func newScaler(p scalerParams, dim int) (*scaler, error) {
	if len(p.Mean) != dim || len(p.Scale) != dim {
		return nil, fmt.Errorf("scaler dimensions %d/%d do not match feature count %d",
			len(p.Mean), len(p.Scale), dim)
	}
	for i := range p.Scale {
		if !isFinite(p.Mean[i]) || !isFinite(p.Scale[i]) {
			return nil, fmt.Errorf("scaler parameter %d is not finite", i)
		}
		if p.Scale[i] == 0 {
			return nil, fmt.Errorf("scaler scale %d is zero", i)
		}
	}
	return &scaler{mean: p.Mean, scale: p.Scale}, nil
}

func (s *scaler) transform(raw []float64) ([]float64, error) {
	if len(raw) != len(s.mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.mean), len(raw))
	}
	out := make([]float64, len(raw))
	for i, x := range raw {
		out[i] = (x - s.mean[i]) / s.scale[i]
		if !isFinite(out[i]) {
			return nil, fmt.Errorf("scaled feature %d is not finite", i)
		}
	}
	return out, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
