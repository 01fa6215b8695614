package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridiron-predictor/internal/ensemble"
	"gridiron-predictor/internal/features"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func gameRecord(gameID string, season int) GameRecord {
	return GameRecord{
		GameID:   gameID,
		Season:   season,
		Week:     5,
		HomeTeam: "Ohio State",
		AwayTeam: "Michigan",
		Features: features.Vector{"elo_diff": 120, "talent_gap": 3.5},
	}
}

func TestStoreGameRoundTrip(t *testing.T) {
	s := newTestStore(t)

	rec := gameRecord("2025_OSU_MICH", 2025)
	rec.UpdatedAt = time.Now().UTC()
	require.NoError(t, s.StoreGame(rec))

	games, err := s.GamesBySeason(2025)
	require.NoError(t, err)
	require.Len(t, games, 1)

	got := games[0]
	assert.Equal(t, rec.GameID, got.GameID)
	assert.Equal(t, rec.HomeTeam, got.HomeTeam)
	assert.Equal(t, rec.Features, got.Features)
	assert.False(t, got.Completed)
}

func TestStoreGameUpsert(t *testing.T) {
	s := newTestStore(t)

	rec := gameRecord("2025_OSU_MICH", 2025)
	require.NoError(t, s.StoreGame(rec))

	rec.Completed = true
	rec.HomePoints = 31
	rec.AwayPoints = 24
	require.NoError(t, s.StoreGame(rec))

	games, err := s.GamesBySeason(2025)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.True(t, games[0].Completed)
	assert.Equal(t, 31, games[0].HomePoints)
	assert.True(t, games[0].HomeWon())
	assert.Equal(t, 7.0, games[0].ActualMargin())
}

func TestStoreGameRejectsEmptyID(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.StoreGame(GameRecord{Season: 2025}))
}

func TestGamesBySeasonSeparation(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.StoreGame(gameRecord("2024_OSU_PSU", 2024)))
	require.NoError(t, s.StoreGame(gameRecord("2025_OSU_MICH", 2025)))
	require.NoError(t, s.StoreGame(gameRecord("2025_OSU_PSU", 2025)))

	games, err := s.GamesBySeason(2025)
	require.NoError(t, err)
	assert.Len(t, games, 2)
	for _, g := range games {
		assert.Equal(t, 2025, g.Season)
	}

	games, err = s.GamesBySeason(2023)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestPredictionHistory(t *testing.T) {
	s := newTestStore(t)

	prob := 0.62
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		rec := PredictionRecord{
			GameID: "2025_OSU_MICH",
			Season: 2025,
			Result: ensemble.Result{
				WinProbability: &prob,
				ModelsRan:      2,
				Tier:           ensemble.TierHigh,
			},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.StorePrediction(rec))
	}
	// A different game must not leak into the history.
	require.NoError(t, s.StorePrediction(PredictionRecord{
		GameID:    "2025_OSU_PSU",
		Season:    2025,
		CreatedAt: base,
	}))

	recs, err := s.PredictionsForGame("2025_OSU_MICH")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	for i := 1; i < len(recs); i++ {
		assert.True(t, recs[i].CreatedAt.After(recs[i-1].CreatedAt),
			"history should come back in time order")
	}
	require.NotNil(t, recs[0].Result.WinProbability)
	assert.Equal(t, 0.62, *recs[0].Result.WinProbability)
	assert.Equal(t, ensemble.TierHigh, recs[0].Result.Tier)
}

func TestPredictionRejectsEmptyID(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.StorePrediction(PredictionRecord{Season: 2025}))
}
