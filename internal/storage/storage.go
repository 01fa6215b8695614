// Package storage provides persistent storage for the prediction
// service. It uses BoltDB to keep game feature records (with eventual
// outcomes, for offline evaluation) and the prediction history the
// service produced. The ensemble itself never touches this package;
// persistence is the orchestrator's concern.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	gamesBucket       = "games"       // Feature records keyed by season and game
	predictionsBucket = "predictions" // Prediction history keyed by game and time
)

// Store provides persistent storage backed by BoltDB. All methods are
// safe for concurrent use.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath and ensures the
// buckets exist.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "gridiron-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(gamesBucket)); err != nil {
			return fmt.Errorf("create games bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreGame upserts a game feature record. Re-storing the same game
// (for example once the final score is known) overwrites the record.
func (s *Store) StoreGame(rec GameRecord) error {
	if rec.GameID == "" {
		return fmt.Errorf("game record has no game id")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(gamesBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal game record: %w", err)
		}

		return b.Put(gameKey(rec.Season, rec.GameID), data)
	})
}

// GamesBySeason returns every stored game record for a season, in key
// order. Malformed records are skipped.
func (s *Store) GamesBySeason(season int) ([]GameRecord, error) {
	var games []GameRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(gamesBucket))
		c := b.Cursor()

		prefix := []byte(fmt.Sprintf("%04d_", season))
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec GameRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			games = append(games, rec)
		}
		return nil
	})

	return games, err
}

// StorePrediction appends a prediction record for a game.
func (s *Store) StorePrediction(rec PredictionRecord) error {
	if rec.GameID == "" {
		return fmt.Errorf("prediction record has no game id")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		key := fmt.Sprintf("%s_%d", rec.GameID, rec.CreatedAt.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// PredictionsForGame returns the stored prediction history for one game
// in time order.
func (s *Store) PredictionsForGame(gameID string) ([]PredictionRecord, error) {
	var recs []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		c := b.Cursor()

		prefix := []byte(gameID + "_")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			recs = append(recs, rec)
		}
		return nil
	})

	return recs, err
}

func gameKey(season int, gameID string) []byte {
	return []byte(fmt.Sprintf("%04d_%s", season, gameID))
}
