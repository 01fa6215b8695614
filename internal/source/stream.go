package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Stream consumes the feature service's live game feed. For every game
// in progress the feed pushes a refreshed feature vector whenever the
// game state changes, so the ensemble can recompute win probability
// mid-game.
type Stream struct{ url string }

func NewStream(u string) Stream { return Stream{url: u} }

// Run keeps the stream connected until ctx is canceled, reconnecting
// with exponential backoff on failure. Updates are delivered on updates;
// non-fatal problems are reported on errs without stopping the stream.
func (s Stream) Run(ctx context.Context, updates chan<- GameFeatures, errs chan<- error, ping time.Duration) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.streamOnce(ctx, updates, errs, ping); err != nil {
				log.Warn().Err(err).Dur("backoff", backoff).Msg("feed connection failed, reconnecting with exponential backoff...")
				select {
				case errs <- fmt.Errorf("feed reconnect: %w", err):
				default:
				}

				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return ctx.Err()
				}

				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			backoff = time.Second
		}
	}
}

func (s Stream) streamOnce(ctx context.Context, updates chan<- GameFeatures, errs chan<- error, ping time.Duration) error {
	log.Info().Str("url", s.url).Msg("establishing feed connection")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer func() {
		conn.Close()
		log.Debug().Msg("feed connection closed")
	}()

	// Unblock pending reads when the context is canceled.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watcherDone:
		}
	}()

	conn.SetReadLimit(512 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(ping)
	defer pingTicker.Stop()

	if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
		return fmt.Errorf("initial ping failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
		default:
			conn.SetReadDeadline(time.Now().Add(30 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Info().Msg("feed connection closed normally")
					return err
				}
				return fmt.Errorf("read message failed: %w", err)
			}

			var gf GameFeatures
			if err := json.Unmarshal(msg, &gf); err != nil {
				log.Debug().Err(err).Str("message", string(msg)).Msg("failed to parse feed message")
				select {
				case errs <- fmt.Errorf("parse feed message: %w", err):
				default:
				}
				continue
			}
			if gf.GameID == "" || len(gf.Features) == 0 {
				log.Debug().Str("message", string(msg)).Msg("dropping feed message without game id or features")
				continue
			}

			select {
			case updates <- gf:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
