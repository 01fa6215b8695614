package storage

import (
	"time"

	"gridiron-predictor/internal/ensemble"
	"gridiron-predictor/internal/features"
)

// GameRecord is one matchup's feature vector plus, once the game has
// been played, its outcome. Completed records are the ground truth for
// offline evaluation.
type GameRecord struct {
	GameID     string          `json:"game_id"`
	Season     int             `json:"season"`
	Week       int             `json:"week"`
	HomeTeam   string          `json:"home_team"`
	AwayTeam   string          `json:"away_team"`
	Features   features.Vector `json:"features"`
	Completed  bool            `json:"completed"`
	HomePoints int             `json:"home_points,omitempty"`
	AwayPoints int             `json:"away_points,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// HomeWon reports whether the home team won. Only meaningful when
// Completed is true.
func (g GameRecord) HomeWon() bool {
	return g.HomePoints > g.AwayPoints
}

// ActualMargin is home points minus away points.
func (g GameRecord) ActualMargin() float64 {
	return float64(g.HomePoints - g.AwayPoints)
}

// PredictionRecord is one stored ensemble result for a game.
type PredictionRecord struct {
	GameID    string          `json:"game_id"`
	Season    int             `json:"season"`
	Result    ensemble.Result `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}
