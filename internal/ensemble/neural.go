package ensemble

import (
	"fmt"
	"math"
)

// denseLayer is one fully connected layer: Weights is row-major with one
// row per output unit, each row as long as the layer's input.
type denseLayer struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"`
}

// neuralParams is the serialized form of the small feed-forward
// classifier used for home-win probability.
type neuralParams struct {
	Layers []denseLayer `json:"layers"`
}

type neuralModel struct {
	layers []denseLayer
}

func newNeuralModel(p neuralParams, dim int) (*neuralModel, error) {
	if len(p.Layers) == 0 {
		return nil, fmt.Errorf("network has no layers")
	}
	in := dim
	for li, layer := range p.Layers {
		if len(layer.Weights) == 0 {
			return nil, fmt.Errorf("layer %d has no units", li)
		}
		if len(layer.Biases) != len(layer.Weights) {
			return nil, fmt.Errorf("layer %d: %d biases for %d units", li, len(layer.Biases), len(layer.Weights))
		}
		for ui, row := range layer.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("layer %d unit %d: %d weights for %d inputs", li, ui, len(row), in)
			}
			for _, w := range row {
				if !isFinite(w) {
					return nil, fmt.Errorf("layer %d unit %d has a non-finite weight", li, ui)
				}
			}
			if !isFinite(layer.Biases[ui]) {
				return nil, fmt.Errorf("layer %d unit %d has a non-finite bias", li, ui)
			}
		}
		switch layer.Activation {
		case "relu", "sigmoid", "linear":
		default:
			return nil, fmt.Errorf("layer %d: unknown activation %q", li, layer.Activation)
		}
		in = len(layer.Weights)
	}
	if in != 1 {
		return nil, fmt.Errorf("output layer has %d units, want 1", in)
	}
	if last := p.Layers[len(p.Layers)-1]; last.Activation != "sigmoid" {
		return nil, fmt.Errorf("output activation %q cannot produce a probability", last.Activation)
	}
	return &neuralModel{layers: p.Layers}, nil
}

func (m *neuralModel) predict(scaled []float64) (float64, error) {
	x := scaled
	for _, layer := range m.layers {
		next := make([]float64, len(layer.Weights))
		for ui, row := range layer.Weights {
			sum := layer.Biases[ui]
			for i, w := range row {
				sum += w * x[i]
			}
			next[ui] = activate(layer.Activation, sum)
		}
		x = next
	}
	out := x[0]
	if !isFinite(out) {
		return 0, fmt.Errorf("network output is not finite")
	}
	return out, nil
}

func activate(name string, x float64) float64 {
	switch name {
	case "relu":
		return math.Max(0, x)
	case "sigmoid":
		return sigmoid(x)
	default: // linear
		return x
	}
}
