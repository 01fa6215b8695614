// Package eval replays stored, completed games through the ensemble and
// scores the predictions against the known outcomes.
package eval

import (
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog/log"

	"gridiron-predictor/internal/ensemble"
	"gridiron-predictor/internal/storage"
)

// Report summarizes one evaluation run.
type Report struct {
	Games       int // Completed games considered
	Scored      int // Games where the ensemble produced a prediction
	Unavailable int // Games where no model could run
	Invalid     int // Games whose stored vector was rejected

	// Win-probability quality, over games with a probability aggregate.
	ProbGames int
	Correct   int     // Predicted favorite actually won
	Brier     float64 // Mean squared error of the probability

	// Margin quality, over games with a margin aggregate.
	MarginGames int
	MarginMAE   float64

	TierCounts map[ensemble.Tier]int
}

// Accuracy is the share of probability predictions whose favorite won.
func (r Report) Accuracy() float64 {
	if r.ProbGames == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.ProbGames)
}

// Evaluate runs the ensemble over every completed game record.
func Evaluate(models []*ensemble.Artifact, games []storage.GameRecord, opts ensemble.Options) Report {
	report := Report{
		TierCounts: make(map[ensemble.Tier]int),
	}

	var brierSum, maeSum float64

	for _, g := range games {
		if !g.Completed {
			continue
		}
		report.Games++

		res, err := ensemble.Predict(models, g.Features, opts)
		if err != nil {
			report.Invalid++
			log.Warn().Err(err).Str("game_id", g.GameID).Msg("stored feature vector rejected")
			continue
		}

		report.TierCounts[res.Tier]++
		if res.Tier == ensemble.TierUnavailable {
			report.Unavailable++
			continue
		}
		report.Scored++

		if res.WinProbability != nil {
			report.ProbGames++
			outcome := 0.0
			if g.HomeWon() {
				outcome = 1.0
			}
			diff := *res.WinProbability - outcome
			brierSum += diff * diff
			if (*res.WinProbability > 0.5) == g.HomeWon() {
				report.Correct++
			}
		}

		if res.Margin != nil {
			report.MarginGames++
			maeSum += math.Abs(*res.Margin - g.ActualMargin())
		}
	}

	if report.ProbGames > 0 {
		report.Brier = brierSum / float64(report.ProbGames)
	}
	if report.MarginGames > 0 {
		report.MarginMAE = maeSum / float64(report.MarginGames)
	}

	return report
}

// Write prints the report in the fixed-width summary format the
// evaluate command emits.
func (r Report) Write(w io.Writer) {
	fmt.Fprintln(w, "=== Evaluation Report ===")
	fmt.Fprintf(w, "Completed games:     %d\n", r.Games)
	fmt.Fprintf(w, "Scored:              %d\n", r.Scored)
	fmt.Fprintf(w, "Unavailable:         %d\n", r.Unavailable)
	fmt.Fprintf(w, "Invalid vectors:     %d\n", r.Invalid)
	if r.ProbGames > 0 {
		fmt.Fprintf(w, "Win prob accuracy:   %.3f (%d/%d)\n", r.Accuracy(), r.Correct, r.ProbGames)
		fmt.Fprintf(w, "Brier score:         %.4f\n", r.Brier)
	}
	if r.MarginGames > 0 {
		fmt.Fprintf(w, "Margin MAE:          %.2f points\n", r.MarginMAE)
	}
	for _, tier := range []ensemble.Tier{ensemble.TierHigh, ensemble.TierMedium, ensemble.TierLow, ensemble.TierUnavailable} {
		if n := r.TierCounts[tier]; n > 0 {
			fmt.Fprintf(w, "Tier %-12s    %d\n", tier+":", n)
		}
	}
	fmt.Fprintln(w, "=========================")
}
