package ensemble

import (
	"fmt"
)

// treeNode is one node of a regression tree. Interior nodes route on
// scaled[Feature] <= Threshold; leaves carry the tree's contribution.
type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

// boostedParams is the serialized form of a gradient-boosted tree
// classifier, used for the win-probability model. The summed tree
// outputs are a log-odds score pushed through a sigmoid.
type boostedParams struct {
	Trees        []*treeNode `json:"trees"`
	LearningRate float64     `json:"learning_rate"`
	BaseScore    float64     `json:"base_score"`
}

type boostedModel struct {
	trees        []*treeNode
	learningRate float64
	baseScore    float64
}

func newBoostedModel(p boostedParams, dim int) (*boostedModel, error) {
	if len(p.Trees) == 0 {
		return nil, fmt.Errorf("boosted model has no trees")
	}
	if p.LearningRate <= 0 || !isFinite(p.LearningRate) {
		return nil, fmt.Errorf("learning rate %v is invalid", p.LearningRate)
	}
	if !isFinite(p.BaseScore) {
		return nil, fmt.Errorf("base score is not finite")
	}
	for i, t := range p.Trees {
		if err := validateTree(t, dim, 0); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &boostedModel{trees: p.Trees, learningRate: p.LearningRate, baseScore: p.BaseScore}, nil
}

const maxTreeDepth = 64

func validateTree(n *treeNode, dim, depth int) error {
	if n == nil {
		return fmt.Errorf("nil node")
	}
	if depth > maxTreeDepth {
		return fmt.Errorf("tree deeper than %d levels", maxTreeDepth)
	}
	if n.Leaf {
		if !isFinite(n.Value) {
			return fmt.Errorf("leaf value is not finite")
		}
		return nil
	}
	if n.Feature < 0 || n.Feature >= dim {
		return fmt.Errorf("split feature %d out of range [0,%d)", n.Feature, dim)
	}
	if !isFinite(n.Threshold) {
		return fmt.Errorf("split threshold is not finite")
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("interior node missing a child")
	}
	if err := validateTree(n.Left, dim, depth+1); err != nil {
		return err
	}
	return validateTree(n.Right, dim, depth+1)
}

func (t *treeNode) eval(scaled []float64) float64 {
	n := t
	for !n.Leaf {
		if scaled[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func (m *boostedModel) predict(scaled []float64) (float64, error) {
	score := m.baseScore
	for _, t := range m.trees {
		score += m.learningRate * t.eval(scaled)
	}
	if !isFinite(score) {
		return 0, fmt.Errorf("boosted score is not finite")
	}
	return sigmoid(score), nil
}
