// Package source talks to the external feature service: a REST client
// for upcoming-game feature vectors and a WebSocket stream for live
// in-game feature updates. This package only transports features; it
// never computes or fabricates them.
package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"gridiron-predictor/internal/features"
)

// GameFeatures is one matchup's feature vector as delivered by the
// feature service.
type GameFeatures struct {
	GameID   string          `json:"game_id"`
	Season   int             `json:"season"`
	Week     int             `json:"week"`
	HomeTeam string          `json:"home_team"`
	AwayTeam string          `json:"away_team"`
	Features features.Vector `json:"features"`
}

type Client struct {
	base string
	rest *resty.Client
}

func NewClient(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Client{base: base, rest: r}
}

// UpcomingGames fetches feature vectors for the given season and week.
// Season and week are passed explicitly per call rather than held as
// client state.
func (c *Client) UpcomingGames(ctx context.Context, season, week int) ([]GameFeatures, error) {
	path := "/v1/games/features"

	var games []GameFeatures
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"season": strconv.Itoa(season),
			"week":   strconv.Itoa(week),
		}).
		SetResult(&games).
		Get(c.base + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("feature service error: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	return games, nil
}
