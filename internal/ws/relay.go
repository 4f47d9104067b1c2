package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// StartGameEventSubscriber subscribes to the game events channel and
// re-broadcasts published events to this process's sockets. External
// processes (turn resolvers, other server instances) publish
// `{"gameId": ..., "payload": {...}}` and every instance delivers to the
// connections it holds for that game.
func (h *Handler) StartGameEventSubscriber(ctx context.Context, rdb *redis.Client, channel string) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; game event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, channel)
	ch := pubsub.Channel()
	go func() {
		log.Printf("[WS] game event subscriber started (channel=%s)", channel)
		for msg := range ch {
			var event struct {
				GameID  string          `json:"gameId"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("[WS] invalid game event payload: %v", err)
				continue
			}
			if event.GameID == "" || len(event.Payload) == 0 {
				log.Printf("[WS] game event missing gameId or payload")
				continue
			}

			bctx, cancel := context.WithTimeout(ctx, h.handlerTimeout)
			h.broadcastToGame(bctx, event.GameID, event.Payload)
			cancel()
		}
		log.Printf("[WS] game event subscriber stopped")
	}()
}
