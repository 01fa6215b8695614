package main

import (
	"flag"
	"fmt"
	"os"

	"gridiron-predictor/internal/cfg"
	"gridiron-predictor/internal/ensemble"
	"gridiron-predictor/internal/eval"
	"gridiron-predictor/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataPath  = flag.String("data", "", "Path to data directory (overrides config)")
		season    = flag.Int("season", 0, "Season to evaluate (overrides config)")
		tolerance = flag.Float64("tolerance", 0, "Probability agreement tolerance (overrides config)")
		logLevel  = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *dataPath != "" {
		c.DataPath = *dataPath
	}
	if *season != 0 {
		c.Season = *season
	}
	if *tolerance != 0 {
		c.AgreementTolerance = *tolerance
	}
	if c.DataPath == "" {
		log.Fatal().Msg("a data path is required (-data flag or DATA_PATH)")
	}

	fmt.Println("=== Evaluation Configuration ===")
	fmt.Printf("Data Path: %s\n", c.DataPath)
	fmt.Printf("Season: %d\n", c.Season)
	fmt.Printf("Models Configured: %d\n", len(c.Models))
	fmt.Printf("Agreement Tolerance: %.2f\n", c.AgreementTolerance)
	fmt.Println("================================")

	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	games, err := store.GamesBySeason(c.Season)
	if err != nil {
		log.Fatal().Err(err).Int("season", c.Season).Msg("failed to read game records")
	}
	if len(games) == 0 {
		log.Fatal().Int("season", c.Season).Msg("no stored games for season")
	}

	specs := make([]ensemble.Spec, len(c.Models))
	for i, ms := range c.Models {
		specs[i] = ensemble.Spec{ID: ms.ID, Path: ms.Path}
	}
	models := ensemble.Load(specs)
	if len(models) == 0 {
		log.Fatal().Msg("no model artifacts loaded, nothing to evaluate")
	}

	opts := ensemble.Options{
		AgreementTolerance: c.AgreementTolerance,
		MarginTolerance:    c.MarginTolerance,
	}

	report := eval.Evaluate(models, games, opts)
	report.Write(os.Stdout)

	if report.Scored == 0 {
		os.Exit(1)
	}
}
