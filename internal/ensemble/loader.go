package ensemble

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// artifactFile is the on-disk JSON layout of one model artifact.
// Exactly one of the model sections must be present, and it must match
// the declared output kind.
type artifactFile struct {
	ID       string         `json:"id"`
	Kind     OutputKind     `json:"kind"`
	Features []string       `json:"features"`
	Scaler   scalerParams   `json:"scaler"`
	Linear   *linearParams  `json:"linear,omitempty"`
	Boosted  *boostedParams `json:"boosted,omitempty"`
	Neural   *neuralParams  `json:"neural,omitempty"`
}

// Load attempts to deserialize every configured artifact. A spec whose
// file is missing, unreadable, or inconsistent is logged with its cause
// and omitted from the returned list; it is never replaced by a stand-in
// model. The returned list preserves spec order and contains only fully
// consistent artifacts.
func Load(specs []Spec) []*Artifact {
	loaded := make([]*Artifact, 0, len(specs))
	for _, sp := range specs {
		a, err := loadArtifact(sp)
		if err != nil {
			log.Warn().
				Err(err).
				Str("model_id", sp.ID).
				Str("path", sp.Path).
				Msg("model artifact unavailable, ensemble continues without it")
			continue
		}
		log.Info().
			Str("model_id", a.id).
			Str("kind", string(a.kind)).
			Int("features", len(a.features)).
			Time("trained_at", a.modTime).
			Msg("model artifact loaded")
		loaded = append(loaded, a)
	}
	return loaded
}

func loadArtifact(sp Spec) (*Artifact, error) {
	if sp.ID == "" {
		return nil, fmt.Errorf("model spec has no identifier")
	}
	info, err := os.Stat(sp.Path)
	if err != nil {
		return nil, fmt.Errorf("artifact file: %w", err)
	}

	data, err := os.ReadFile(sp.Path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var f artifactFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("deserialize artifact: %w", err)
	}

	if f.ID != sp.ID {
		return nil, fmt.Errorf("artifact identifies as %q, configured as %q", f.ID, sp.ID)
	}
	if !f.Kind.valid() {
		return nil, fmt.Errorf("unknown output kind %q", f.Kind)
	}
	if len(f.Features) == 0 {
		return nil, fmt.Errorf("artifact declares no features")
	}
	seen := make(map[string]struct{}, len(f.Features))
	for _, name := range f.Features {
		if name == "" {
			return nil, fmt.Errorf("artifact declares an empty feature name")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("artifact declares feature %q twice", name)
		}
		seen[name] = struct{}{}
	}

	dim := len(f.Features)
	sc, err := newScaler(f.Scaler, dim)
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}

	model, err := buildModel(&f, dim)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		id:       f.ID,
		kind:     f.Kind,
		features: f.Features,
		scaler:   sc,
		model:    model,
		modTime:  info.ModTime(),
	}, nil
}

func buildModel(f *artifactFile, dim int) (predictor, error) {
	sections := 0
	if f.Linear != nil {
		sections++
	}
	if f.Boosted != nil {
		sections++
	}
	if f.Neural != nil {
		sections++
	}
	if sections != 1 {
		return nil, fmt.Errorf("artifact carries %d model sections, want exactly 1", sections)
	}

	switch {
	case f.Linear != nil:
		if f.Kind != KindMargin {
			return nil, fmt.Errorf("linear regression cannot produce output kind %q", f.Kind)
		}
		return newLinearModel(*f.Linear, dim)
	case f.Boosted != nil:
		if f.Kind != KindProbability {
			return nil, fmt.Errorf("boosted classifier cannot produce output kind %q", f.Kind)
		}
		return newBoostedModel(*f.Boosted, dim)
	default:
		if f.Kind != KindProbability {
			return nil, fmt.Errorf("neural classifier cannot produce output kind %q", f.Kind)
		}
		return newNeuralModel(*f.Neural, dim)
	}
}
