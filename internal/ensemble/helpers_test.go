package ensemble

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// MockMetrics implements MetricsInterface for tests.
type MockMetrics struct {
	predictions  int
	skips        int
	unavailable  int
	latencySum   float64
	spreads      []float64
	modelsLoaded float64
}

func (m *MockMetrics) PredictionsInc()           { m.predictions++ }
func (m *MockMetrics) ModelSkipsAdd(n int)       { m.skips += n }
func (m *MockMetrics) UnavailableInc()           { m.unavailable++ }
func (m *MockMetrics) LatencyObserve(v float64)  { m.latencySum += v }
func (m *MockMetrics) SpreadObserve(v float64)   { m.spreads = append(m.spreads, v) }
func (m *MockMetrics) ModelsLoadedSet(v float64) { m.modelsLoaded = v }

// fixedModel returns a constant value (or error) regardless of input.
type fixedModel struct {
	value float64
	err   error
	calls *int
}

func (f fixedModel) predict([]float64) (float64, error) {
	if f.calls != nil {
		*f.calls++
	}
	return f.value, f.err
}

func identityScaler(dim int) *scaler {
	mean := make([]float64, dim)
	scale := make([]float64, dim)
	for i := range scale {
		scale[i] = 1
	}
	return &scaler{mean: mean, scale: scale}
}

func testArtifact(id string, kind OutputKind, featureNames []string, model predictor) *Artifact {
	return &Artifact{
		id:       id,
		kind:     kind,
		features: featureNames,
		scaler:   identityScaler(len(featureNames)),
		model:    model,
		modTime:  time.Unix(1700000000, 0),
	}
}

func probArtifact(id string, value float64) *Artifact {
	return testArtifact(id, KindProbability, []string{"elo_diff"}, fixedModel{value: value})
}

func marginArtifact(id string, value float64) *Artifact {
	return testArtifact(id, KindMargin, []string{"elo_diff"}, fixedModel{value: value})
}

// writeArtifactFile serializes an artifactFile into dir and returns its path.
func writeArtifactFile(t *testing.T, dir string, f artifactFile) string {
	t.Helper()
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(dir, f.ID+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func marginRegressorFile(id string, weights []float64, intercept float64) artifactFile {
	dim := len(weights)
	mean := make([]float64, dim)
	scale := make([]float64, dim)
	names := make([]string, dim)
	for i := range scale {
		scale[i] = 1
		names[i] = []string{"elo_diff", "talent_gap", "off_epa_diff", "def_epa_diff"}[i%4]
	}
	return artifactFile{
		ID:       id,
		Kind:     KindMargin,
		Features: names[:dim],
		Scaler:   scalerParams{Mean: mean, Scale: scale},
		Linear:   &linearParams{Weights: weights, Intercept: intercept},
	}
}

func boostedClassifierFile(id string, baseScore float64) artifactFile {
	return artifactFile{
		ID:       id,
		Kind:     KindProbability,
		Features: []string{"elo_diff"},
		Scaler:   scalerParams{Mean: []float64{0}, Scale: []float64{1}},
		Boosted: &boostedParams{
			Trees:        []*treeNode{{Leaf: true, Value: 0}},
			LearningRate: 0.1,
			BaseScore:    baseScore,
		},
	}
}
