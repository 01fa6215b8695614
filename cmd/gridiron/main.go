package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gridiron-predictor/internal/cfg"
	"gridiron-predictor/internal/ensemble"
	"gridiron-predictor/internal/metrics"
	"gridiron-predictor/internal/server"
	"gridiron-predictor/internal/source"
	"gridiron-predictor/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	runner := initializeRunner(c, mw)

	startMetricsServer(ctx, c)
	apiServer := startAPIServer(ctx, c, runner, store)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown prediction server")
		}
	}()

	var wg sync.WaitGroup
	startGameSync(ctx, &wg, c, runner, store, mw)
	startLiveFeed(ctx, &wg, c, runner, store, mw)

	waitForShutdown(ctx, cancel, &wg)
}

// initializeStorage opens the prediction store if DATA_PATH is configured.
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// initializeRunner loads every configured model artifact. The service
// starts even when none load; predictions are then explicitly
// unavailable rather than fabricated.
func initializeRunner(c cfg.Settings, mw *metrics.Wrapper) *ensemble.Runner {
	specs := make([]ensemble.Spec, len(c.Models))
	for i, ms := range c.Models {
		specs[i] = ensemble.Spec{ID: ms.ID, Path: ms.Path}
	}

	opts := ensemble.Options{
		AgreementTolerance: c.AgreementTolerance,
		MarginTolerance:    c.MarginTolerance,
	}

	runner := ensemble.NewRunner(specs, opts, mw)
	loaded, configured := runner.Loaded()
	if loaded == 0 {
		log.Warn().Int("configured", configured).Msg("no model artifacts loaded, predictions will be unavailable")
	} else {
		log.Info().Int("loaded", loaded).Int("configured", configured).Msg("ensemble ready")
	}
	return runner
}

// startMetricsServer starts the Prometheus metrics HTTP server.
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := srv.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// startAPIServer starts the prediction HTTP API.
func startAPIServer(ctx context.Context, c cfg.Settings, runner *ensemble.Runner, store *storage.Store) *server.Server {
	srv := server.New(runner, store, c.Season, c.ServerPort)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("prediction server failed")
		}
	}()
	return srv
}

// startGameSync periodically pulls the feature vectors for upcoming
// games when a feed base URL is configured. Week 0 asks the feature
// service for its current week. Each game is predicted once on arrival
// and its record stored for later evaluation against the final score.
func startGameSync(ctx context.Context, wg *sync.WaitGroup, c cfg.Settings, runner *ensemble.Runner, store *storage.Store, mw *metrics.Wrapper) {
	if c.FeedBaseURL == "" {
		log.Info().Msg("no feature service configured, skipping game sync")
		return
	}

	client := source.NewClient(c.FeedBaseURL, c.RequestTimeout)

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()

		syncGames(ctx, client, c.Season, runner, store, mw)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				syncGames(ctx, client, c.Season, runner, store, mw)
			}
		}
	}()
}

func syncGames(ctx context.Context, client *source.Client, season int, runner *ensemble.Runner, store *storage.Store, mw *metrics.Wrapper) {
	games, err := client.UpcomingGames(ctx, season, 0)
	if err != nil {
		log.Warn().Err(err).Msg("upcoming games fetch failed")
		mw.ErrorsInc()
		return
	}
	log.Info().Int("games", len(games)).Msg("upcoming games fetched")

	for _, g := range games {
		if store != nil {
			rec := storage.GameRecord{
				GameID:    g.GameID,
				Season:    g.Season,
				Week:      g.Week,
				HomeTeam:  g.HomeTeam,
				AwayTeam:  g.AwayTeam,
				Features:  g.Features,
				UpdatedAt: time.Now(),
			}
			if err := store.StoreGame(rec); err != nil {
				log.Warn().Err(err).Str("game_id", g.GameID).Msg("failed to store game record")
			}
		}
		handleUpdate(g, runner, store)
	}
}

// startLiveFeed consumes the live feature stream when a feed URL is
// configured, predicting on every update.
func startLiveFeed(ctx context.Context, wg *sync.WaitGroup, c cfg.Settings, runner *ensemble.Runner, store *storage.Store, mw *metrics.Wrapper) {
	if c.FeedWsURL == "" {
		log.Info().Msg("no live feed configured")
		return
	}

	updates := make(chan source.GameFeatures, 64)
	errs := make(chan error, 32)
	stream := source.NewStream(c.FeedWsURL)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := stream.Run(ctx, updates, errs, c.PingInterval); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("live feed ended")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errs:
				log.Error().Err(err).Msg("feed error")
				mw.FeedReconnectsInc()
				mw.ErrorsInc()
			case gf := <-updates:
				mw.FeedUpdatesInc()
				handleUpdate(gf, runner, store)
			}
		}
	}()
}

func handleUpdate(gf source.GameFeatures, runner *ensemble.Runner, store *storage.Store) {
	res, err := runner.Predict(gf.Features)
	if err != nil {
		log.Warn().Err(err).Str("game_id", gf.GameID).Msg("live feature vector rejected")
		return
	}

	ev := log.Info().
		Str("game_id", gf.GameID).
		Str("confidence", string(res.Tier)).
		Int("models_ran", res.ModelsRan)
	if res.WinProbability != nil {
		ev = ev.Float64("win_probability", *res.WinProbability)
	}
	if res.Margin != nil {
		ev = ev.Float64("margin", *res.Margin)
	}
	ev.Msg("live prediction")

	if store != nil {
		rec := storage.PredictionRecord{
			GameID:    gf.GameID,
			Season:    gf.Season,
			Result:    res,
			CreatedAt: time.Now(),
		}
		if err := store.StorePrediction(rec); err != nil {
			log.Warn().Err(err).Str("game_id", gf.GameID).Msg("failed to record live prediction")
		}
	}
}

// waitForShutdown blocks until a signal arrives, then drains the
// background goroutines with a timeout.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
