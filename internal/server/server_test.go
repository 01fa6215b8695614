package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridiron-predictor/internal/ensemble"
	"gridiron-predictor/internal/storage"
)

const marginJSON = `{
  "id": "margin_regressor",
  "kind": "margin",
  "features": ["elo_diff"],
  "scaler": {"mean": [0], "scale": [1]},
  "linear": {"weights": [0.1], "intercept": 0}
}`

func newTestServer(t *testing.T, store *storage.Store, specs ...ensemble.Spec) *Server {
	t.Helper()
	runner := ensemble.NewRunner(specs, ensemble.Options{}, nil)
	return New(runner, store, 2025, 0)
}

func writeMarginArtifact(t *testing.T) ensemble.Spec {
	t.Helper()
	path := filepath.Join(t.TempDir(), "margin.json")
	require.NoError(t, os.WriteFile(path, []byte(marginJSON), 0o600))
	return ensemble.Spec{ID: "margin_regressor", Path: path}
}

func TestPredictEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, writeMarginArtifact(t))

	body := `{"game_id": "2025_OSU_MICH", "features": {"elo_diff": 120}}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp PredictResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "2025_OSU_MICH", resp.GameID)
	assert.Equal(t, ensemble.TierLow, resp.Result.Tier)
	require.NotNil(t, resp.Result.Margin)
	assert.InDelta(t, 12.0, *resp.Result.Margin, 1e-9)
}

func TestPredictEndpointRecordsHistory(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := newTestServer(t, store, writeMarginArtifact(t))

	body := `{"game_id": "2025_OSU_MICH", "features": {"elo_diff": 50}}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	recs, err := store.PredictionsForGame("2025_OSU_MICH")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2025, recs[0].Season)
	require.NotNil(t, recs[0].Result.Margin)
	assert.InDelta(t, 5.0, *recs[0].Result.Margin, 1e-9)
}

func TestPredictEndpointUnavailable(t *testing.T) {
	// No artifacts load, so predictions come back explicitly unavailable
	// with a success status.
	srv := newTestServer(t, nil,
		ensemble.Spec{ID: "margin_regressor", Path: filepath.Join(t.TempDir(), "missing.json")})

	body := `{"features": {"elo_diff": 120}}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp PredictResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, ensemble.TierUnavailable, resp.Result.Tier)
	assert.Nil(t, resp.Result.Margin)
	assert.Nil(t, resp.Result.WinProbability)
}

func TestPredictEndpointBadRequests(t *testing.T) {
	srv := newTestServer(t, nil, writeMarginArtifact(t))

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"features": `},
		{"no features", `{"game_id": "x"}`},
		{"empty features", `{"features": {}}`},
		{"empty feature name", `{"features": {"": 1}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPredictEndpointMethod(t *testing.T) {
	srv := newTestServer(t, nil, writeMarginArtifact(t))

	req := httptest.NewRequest(http.MethodGet, "/predict", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestModelsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, writeMarginArtifact(t))

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var infos []ensemble.Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "margin_regressor", infos[0].ID)
	assert.Equal(t, ensemble.KindMargin, infos[0].Kind)
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := newTestServer(t, nil, writeMarginArtifact(t))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"ok"`)
	})

	t.Run("degraded", func(t *testing.T) {
		srv := newTestServer(t, nil,
			writeMarginArtifact(t),
			ensemble.Spec{ID: "home_win_neural", Path: filepath.Join(t.TempDir(), "missing.json")})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"degraded"`)
	})

	t.Run("no models", func(t *testing.T) {
		srv := newTestServer(t, nil,
			ensemble.Spec{ID: "margin_regressor", Path: filepath.Join(t.TempDir(), "missing.json")})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "no models available")
	})
}
