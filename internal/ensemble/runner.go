package ensemble

import (
	"time"

	"gridiron-predictor/internal/features"
)

// MetricsInterface defines the metrics hooks the runner needs. Kept as a
// small interface so this package does not depend on the metrics backend.
type MetricsInterface interface {
	PredictionsInc()
	ModelSkipsAdd(int)
	UnavailableInc()
	LatencyObserve(float64)
	SpreadObserve(float64)
	ModelsLoadedSet(float64)
}

// Runner holds the loaded artifacts for the lifetime of the process.
// Loading happens once in NewRunner; the artifact list is immutable
// afterwards, so any number of callers may predict concurrently without
// locking.
type Runner struct {
	models     []*Artifact
	configured int
	opts       Options
	metrics    MetricsInterface
}

// NewRunner loads every configured artifact and returns a runner over
// whichever subset loaded successfully, down to none.
func NewRunner(specs []Spec, opts Options, metrics MetricsInterface) *Runner {
	models := Load(specs)
	if metrics != nil {
		metrics.ModelsLoadedSet(float64(len(models)))
	}
	return &Runner{
		models:     models,
		configured: len(specs),
		opts:       opts,
		metrics:    metrics,
	}
}

// Predict runs the ensemble for one feature vector.
func (r *Runner) Predict(fv features.Vector) (Result, error) {
	start := time.Now()
	res, err := Predict(r.models, fv, r.opts)
	if err != nil {
		return res, err
	}
	res.ModelsConfigured = r.configured

	if r.metrics != nil {
		r.metrics.PredictionsInc()
		r.metrics.LatencyObserve(time.Since(start).Seconds())
		if len(res.Skipped) > 0 {
			r.metrics.ModelSkipsAdd(len(res.Skipped))
		}
		if res.Tier == TierUnavailable {
			r.metrics.UnavailableInc()
		}
		if s := res.Spread(); s > 0 {
			r.metrics.SpreadObserve(s)
		}
	}
	return res, nil
}

// Models describes the loaded artifacts in configuration order.
func (r *Runner) Models() []Info {
	infos := make([]Info, len(r.models))
	for i, m := range r.models {
		infos[i] = m.Describe()
	}
	return infos
}

// Loaded returns how many artifacts loaded out of how many were configured.
func (r *Runner) Loaded() (loaded, configured int) {
	return len(r.models), r.configured
}
