package metrics

// Wrapper exposes the metrics through the small method sets the other
// packages accept, so they do not import prometheus directly.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

// ensemble.MetricsInterface

func (w *Wrapper) PredictionsInc() {
	w.m.PredictionsTotal.Inc()
}

func (w *Wrapper) ModelSkipsAdd(n int) {
	w.m.ModelSkipsTotal.Add(float64(n))
}

func (w *Wrapper) UnavailableInc() {
	w.m.UnavailableTotal.Inc()
}

func (w *Wrapper) LatencyObserve(seconds float64) {
	w.m.PredictionLatency.Observe(seconds)
}

func (w *Wrapper) SpreadObserve(spread float64) {
	w.m.ProbabilitySpread.Observe(spread)
}

func (w *Wrapper) ModelsLoadedSet(n float64) {
	w.m.ModelsLoaded.Set(n)
}

// source.MetricsInterface

func (w *Wrapper) FeedUpdatesInc() {
	w.m.FeedUpdates.Inc()
}

func (w *Wrapper) FeedReconnectsInc() {
	w.m.FeedReconnects.Inc()
}

func (w *Wrapper) ErrorsInc() {
	w.m.ErrorsTotal.Inc()
}
