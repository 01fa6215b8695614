// Package metrics provides Prometheus metrics for the prediction
// service: ensemble runs, per-model skips, artifact load state, feed
// activity, and general system health, exposed via the metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the prediction service.
type Metrics struct {
	// Ensemble metrics
	PredictionsTotal  prometheus.Counter   // Total number of ensemble runs
	ModelSkipsTotal   prometheus.Counter   // Models skipped across all runs
	UnavailableTotal  prometheus.Counter   // Runs that produced no prediction
	PredictionLatency prometheus.Histogram // End-to-end ensemble latency in seconds
	ProbabilitySpread prometheus.Histogram // Disagreement between probability models
	ModelsLoaded      prometheus.Gauge     // Artifacts currently loaded

	// Feed metrics
	FeedUpdates    prometheus.Counter // Feature updates received from the feed
	FeedReconnects prometheus.Counter // WebSocket reconnections

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, which keeps
// test runs isolated from the global Prometheus state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ensemble_predictions_total",
			Help: "Total number of ensemble prediction runs",
		}),
		ModelSkipsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ensemble_model_skips_total",
			Help: "Total number of per-request model skips",
		}),
		UnavailableTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ensemble_unavailable_total",
			Help: "Total number of runs where no model produced a result",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ensemble_latency_seconds",
			Help:    "Ensemble prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		ProbabilitySpread: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ensemble_probability_spread",
			Help:    "Largest pairwise distance between probability contributions",
			Buckets: prometheus.LinearBuckets(0, 0.05, 11),
		}),
		ModelsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ensemble_models_loaded",
			Help: "Number of model artifacts currently loaded",
		}),
		FeedUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "feed_updates_total",
			Help: "Total number of feature updates received from the feed",
		}),
		FeedReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "feed_reconnects_total",
			Help: "Total number of feed WebSocket reconnections",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
