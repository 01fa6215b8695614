// Package ensemble loads serialized prediction models and combines their
// outputs into a single game prediction with an explicit confidence tier.
//
// Any model whose artifact is missing or inconsistent is skipped at load
// time, and any model that cannot serve a particular request is skipped
// for that request only. The ensemble degrades down to zero models, in
// which case callers receive an explicit "unavailable" result rather than
// a fabricated prediction.
package ensemble

import (
	"time"
)

// OutputKind identifies what a model's single output value represents.
type OutputKind string

const (
	// KindMargin is a continuous predicted home score margin.
	KindMargin OutputKind = "margin"
	// KindProbability is a home-win probability in [0, 1].
	KindProbability OutputKind = "probability"
)

func (k OutputKind) valid() bool {
	return k == KindMargin || k == KindProbability
}

// Spec describes one model the ensemble is configured to use.
type Spec struct {
	ID   string `yaml:"id" json:"id"`
	Path string `yaml:"path" json:"path"`
}

// predictor is the inference capability shared by all model types.
// Input is the scaled feature slice in artifact feature order.
type predictor interface {
	predict(scaled []float64) (float64, error)
}

// Artifact is one fully loaded model: deserialized weights, fitted
// scaler, and the ordered feature schema it was trained on. An Artifact
// is either complete and internally consistent or it does not exist;
// loading never produces a partial one. Artifacts are immutable after
// load and safe for concurrent use.
type Artifact struct {
	id       string
	kind     OutputKind
	features []string
	scaler   *scaler
	model    predictor
	modTime  time.Time
}

// ID returns the model identifier, e.g. "win_probability_classifier".
func (a *Artifact) ID() string { return a.id }

// Kind returns what the model's output represents.
func (a *Artifact) Kind() OutputKind { return a.kind }

// Features returns a copy of the ordered feature names the model requires.
func (a *Artifact) Features() []string {
	out := make([]string, len(a.features))
	copy(out, a.features)
	return out
}

// ModTime returns the artifact file's modification time, used as a
// proxy for model age.
func (a *Artifact) ModTime() time.Time { return a.modTime }

// Info is the caller-facing description of a loaded artifact.
type Info struct {
	ID        string     `json:"id"`
	Kind      OutputKind `json:"kind"`
	Features  []string   `json:"features"`
	TrainedAt time.Time  `json:"trained_at"`
}

// Describe returns the artifact's Info.
func (a *Artifact) Describe() Info {
	return Info{
		ID:        a.id,
		Kind:      a.kind,
		Features:  a.Features(),
		TrainedAt: a.modTime,
	}
}
