// Package server exposes the prediction ensemble over HTTP for the
// product's orchestration layer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"gridiron-predictor/internal/ensemble"
	"gridiron-predictor/internal/features"
	"gridiron-predictor/internal/storage"
)

// Server serves prediction requests over HTTP. The store is optional;
// when present, every served prediction is recorded.
type Server struct {
	runner *ensemble.Runner
	store  *storage.Store
	season int
	server *http.Server
	mux    *http.ServeMux
}

// PredictRequest is the incoming prediction request.
type PredictRequest struct {
	GameID   string          `json:"game_id,omitempty"`
	Features features.Vector `json:"features"`
}

// PredictResponse wraps the ensemble result with request bookkeeping.
type PredictResponse struct {
	GameID    string          `json:"game_id,omitempty"`
	Result    ensemble.Result `json:"result"`
	LatencyMs float64         `json:"latency_ms"`
	Timestamp time.Time       `json:"timestamp"`
}

func New(runner *ensemble.Runner, store *storage.Store, season, port int) *Server {
	s := &Server{
		runner: runner,
		store:  store,
		season: season,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/models", s.handleModels)
	mux.HandleFunc("/health", s.handleHealth)
	s.mux = mux

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting prediction server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the route handler, used by tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.runner.Predict(req.Features)
	if err != nil {
		if errors.Is(err, ensemble.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("game_id", req.GameID).Msg("prediction failed")
		http.Error(w, fmt.Sprintf("prediction failed: %v", err), http.StatusInternalServerError)
		return
	}

	// An unavailable result is still a 200: "no prediction" is an
	// explicit outcome for the caller to present, not a server fault.
	if s.store != nil && req.GameID != "" {
		rec := storage.PredictionRecord{
			GameID:    req.GameID,
			Season:    s.season,
			Result:    result,
			CreatedAt: time.Now(),
		}
		if err := s.store.StorePrediction(rec); err != nil {
			log.Warn().Err(err).Str("game_id", req.GameID).Msg("failed to record prediction")
		}
	}

	resp := PredictResponse{
		GameID:    req.GameID,
		Result:    result,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.runner.Models())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded, configured := s.runner.Loaded()

	status := http.StatusOK
	state := "ok"
	switch {
	case loaded == 0:
		// The service still answers, but every prediction will be
		// explicitly unavailable.
		status = http.StatusServiceUnavailable
		state = "no models available"
	case loaded < configured:
		state = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":            state,
		"models_loaded":     loaded,
		"models_configured": configured,
	})
}
