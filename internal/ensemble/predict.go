package ensemble

import (
	"fmt"

	"gridiron-predictor/internal/features"
)

// Tier is the coarse confidence label derived from how many models
// contributed and how closely they agreed.
type Tier string

const (
	TierUnavailable Tier = "unavailable"
	TierLow         Tier = "low"
	TierMedium      Tier = "medium"
	TierHigh        Tier = "high"
)

// Default agreement tolerances: probability contributions within
// DefaultAgreementTolerance of each other, or margin contributions
// within DefaultMarginTolerance points, count as agreement.
const (
	DefaultAgreementTolerance = 0.15
	DefaultMarginTolerance    = 7.0
)

// Options configures one prediction request. The zero value uses the
// defaults above. Options are passed explicitly per call; the package
// keeps no process-wide mutable state.
type Options struct {
	AgreementTolerance float64
	MarginTolerance    float64
}

func (o Options) agreementTolerance() float64 {
	if o.AgreementTolerance > 0 {
		return o.AgreementTolerance
	}
	return DefaultAgreementTolerance
}

func (o Options) marginTolerance() float64 {
	if o.MarginTolerance > 0 {
		return o.MarginTolerance
	}
	return DefaultMarginTolerance
}

// Prediction is the output of one model run.
type Prediction struct {
	ModelID string     `json:"model_id"`
	Kind    OutputKind `json:"kind"`
	Value   float64    `json:"value"`
}

// Result is the combined outcome of one ensemble run. WinProbability and
// Margin are nil when no model of that kind contributed; both nil means
// no prediction is available and Tier is TierUnavailable. Callers must
// treat that as "no prediction", never as a default value.
type Result struct {
	ModelIDs         []string     `json:"model_ids"`
	Predictions      []Prediction `json:"predictions,omitempty"`
	Skipped          []Skip       `json:"skipped,omitempty"`
	WinProbability   *float64     `json:"win_probability,omitempty"`
	Margin           *float64     `json:"margin,omitempty"`
	ModelsRan        int          `json:"models_ran"`
	ModelsConfigured int          `json:"models_configured"`
	Tier             Tier         `json:"confidence"`
}

// Predict runs every eligible model against the vector and combines the
// outputs. It is a pure computation: the same loaded models and vector
// always produce an identical Result. Per-model failures are recorded in
// Skipped and never abort the run; only a structurally malformed vector
// is rejected, with ErrInvalidInput, before any model is touched.
func Predict(models []*Artifact, fv features.Vector, opts Options) (Result, error) {
	if err := fv.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	res := Result{
		ModelIDs:         make([]string, 0, len(models)),
		ModelsConfigured: len(models),
		Tier:             TierUnavailable,
	}

	for _, m := range models {
		if missing := fv.Missing(m.features); len(missing) > 0 {
			res.Skipped = append(res.Skipped, Skip{
				ModelID: m.id,
				Reason:  SkipMissingFeatures,
				Detail:  fmt.Sprintf("missing %v", missing),
			})
			continue
		}

		raw, err := fv.Ordered(m.features)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{ModelID: m.id, Reason: SkipMissingFeatures, Detail: err.Error()})
			continue
		}

		scaled, err := m.scaler.transform(raw)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{ModelID: m.id, Reason: SkipPreprocessFailed, Detail: err.Error()})
			continue
		}

		val, err := m.model.predict(scaled)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{ModelID: m.id, Reason: SkipInferenceFailed, Detail: err.Error()})
			continue
		}
		if m.kind == KindProbability && (val < 0 || val > 1) {
			res.Skipped = append(res.Skipped, Skip{
				ModelID: m.id,
				Reason:  SkipInferenceFailed,
				Detail:  fmt.Sprintf("probability %v out of range", val),
			})
			continue
		}

		res.ModelIDs = append(res.ModelIDs, m.id)
		res.Predictions = append(res.Predictions, Prediction{ModelID: m.id, Kind: m.kind, Value: val})
	}

	res.ModelsRan = len(res.Predictions)
	aggregate(&res, opts)
	return res, nil
}

// aggregate fills the per-kind aggregates and the confidence tier.
// Comparable-kind outputs are combined by arithmetic mean; a single
// contribution is passed through untouched. The tier is derived from
// the win-probability group when it has contributors, otherwise from
// the margin group.
func aggregate(res *Result, opts Options) {
	var probs, margins []float64
	for _, p := range res.Predictions {
		switch p.Kind {
		case KindProbability:
			probs = append(probs, p.Value)
		case KindMargin:
			margins = append(margins, p.Value)
		}
	}

	if len(probs) > 0 {
		v := mean(probs)
		res.WinProbability = &v
	}
	if len(margins) > 0 {
		v := mean(margins)
		res.Margin = &v
	}

	switch {
	case len(probs) >= 2:
		res.Tier = agreementTier(probs, opts.agreementTolerance())
	case len(probs) == 1:
		res.Tier = TierLow
	case len(margins) >= 2:
		res.Tier = agreementTier(margins, opts.marginTolerance())
	case len(margins) == 1:
		res.Tier = TierLow
	default:
		res.Tier = TierUnavailable
	}
}

func agreementTier(values []float64, tolerance float64) Tier {
	if spread(values) < tolerance {
		return TierHigh
	}
	return TierMedium
}

// spread is the largest pairwise distance between contributions.
func spread(values []float64) float64 {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

func mean(values []float64) float64 {
	if len(values) == 1 {
		return values[0]
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Spread reports how far apart the probability contributions of a
// result are, for observability. Zero when fewer than two contributed.
func (r Result) Spread() float64 {
	var probs []float64
	for _, p := range r.Predictions {
		if p.Kind == KindProbability {
			probs = append(probs, p.Value)
		}
	}
	if len(probs) < 2 {
		return 0
	}
	return spread(probs)
}
