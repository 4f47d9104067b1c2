// Package ws is the connection and broadcast subsystem: WebSocket
// admission, per-frame dispatch, presence updates, and stale-socket
// reaping. All coordination happens through the Connection registry in the
// store; handlers never rely on process memory for correctness.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hexclash/backend/internal/auth"
	"github.com/hexclash/backend/internal/game"
	"github.com/hexclash/backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin enforcement happens at the CORS layer
	},
}

// Registry is the persistent routing table (the store's connections table).
type Registry interface {
	Register(ctx context.Context, c *models.Connection) error
	Touch(ctx context.Context, connectionID string, now time.Time) error
	Forget(ctx context.Context, connectionID string) error
	Get(ctx context.Context, connectionID string) (*models.Connection, error)
	ListByGame(ctx context.Context, gameID string) ([]models.Connection, error)
}

// Games resolves game records; *game.Service implements it.
type Games interface {
	GetGame(ctx context.Context, gameID string) (*models.Game, error)
}

// GameStateWriter persists client-described state mutations.
type GameStateWriter interface {
	UpdateGameState(ctx context.Context, gameID string, state json.RawMessage, bumpTurn bool) error
}

// TokenVerifier validates a bearer token into an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// Handler owns the WebSocket lifecycle for one process.
type Handler struct {
	hub      *Hub
	registry Registry
	games    Games
	states   GameStateWriter
	verifier TokenVerifier

	// allowUnauthenticated admits on userId alone when no token is
	// supplied. Reduced assurance; membership is still re-checked against
	// the game record. Explicit deployment opt-in only.
	allowUnauthenticated bool
	connectionTTL        time.Duration
	handlerTimeout       time.Duration

	now func() time.Time
}

type HandlerOptions struct {
	Registry             Registry
	Games                Games
	States               GameStateWriter
	Verifier             TokenVerifier
	AllowUnauthenticated bool
	ConnectionTTL        time.Duration
}

func NewHandler(opts HandlerOptions) *Handler {
	ttl := opts.ConnectionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handler{
		hub:                  NewHub(),
		registry:             opts.Registry,
		games:                opts.Games,
		states:               opts.States,
		verifier:             opts.Verifier,
		allowUnauthenticated: opts.AllowUnauthenticated,
		connectionTTL:        ttl,
		handlerTimeout:       30 * time.Second,
		now:                  time.Now,
	}
}

// Hub exposes the broadcast transport, for wiring the event relay.
func (h *Handler) Hub() *Hub { return h.hub }

// HandleWebSocket admits one new transport connection. Any admission
// failure tears the socket down before a Connection row can leak.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	gameID := c.Query("gameId")
	userID := c.Query("userId")
	token := c.Query("token")

	if gameID == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gameId and userId are required"})
		return
	}

	ctx := c.Request.Context()

	if token != "" {
		identity, err := h.verifier.Verify(ctx, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if identity.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "token does not match userId"})
			return
		}
	} else if h.allowUnauthenticated {
		log.Printf("[WS] admitting connection without token proof for user %s (WS_ALLOW_UNAUTHENTICATED)", userID)
	} else {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	g, err := h.games.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, game.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		log.Printf("[WS] admission game lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	playerIndex := g.PlayerIndexOf(userID)
	if playerIndex == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "user is not a participant of this game"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	now := h.now().UTC()
	row := &models.Connection{
		ID:           uuid.NewString(),
		GameID:       g.ID,
		UserID:       userID,
		PlayerIndex:  playerIndex,
		ConnectedAt:  now,
		LastActivity: now,
		ExpiresAt:    now.Add(h.connectionTTL),
	}

	regCtx, cancel := context.WithTimeout(context.Background(), h.handlerTimeout)
	err = h.registry.Register(regCtx, row)
	cancel()
	if err != nil {
		log.Printf("[WS] register failed for connection %s: %v", row.ID, err)
		conn.Close()
		return
	}

	cl := h.hub.add(row.ID, conn)
	log.Printf("[WS] connection %s registered (game=%s user=%s index=%d)", row.ID, g.ID, userID, playerIndex)

	pingCtx, stopPing := context.WithCancel(context.Background())
	h.hub.startPingLoop(pingCtx, cl)

	h.broadcastPresence(g, row, "")

	go func() {
		defer stopPing()
		h.readPump(cl, row)
	}()
}

// broadcastPresence recomputes per-player presence and fans it out. include
// is unioned into the listing (§ admission), exclude subtracted
// (§ disconnect). Individual send failures never fail the caller.
func (h *Handler) broadcastPresence(g *models.Game, include *models.Connection, exclude string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.handlerTimeout)
	defer cancel()

	listed, err := h.registry.ListByGame(ctx, g.ID)
	if err != nil {
		log.Printf("[WS] presence listing failed for game %s: %v", g.ID, err)
		listed = nil
	}
	targets := presenceTargets(listed, include, exclude)
	payload := connectionStatePayload(g, targets, h.now())
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[WS] presence marshal failed: %v", err)
		return
	}
	h.broadcast(ctx, targets, data)
}

// broadcast fans a payload out to every target concurrently, reaping rows
// whose post fails terminally. It returns once every post has finished or
// the context deadline has passed.
func (h *Handler) broadcast(ctx context.Context, targets []models.Connection, payload []byte) {
	done := make(chan struct{}, len(targets))
	for _, target := range targets {
		if ctx.Err() != nil {
			// Deadline exceeded mid fan-out; the next event reconciles.
			log.Printf("[WS] abandoning fan-out: %v", ctx.Err())
			break
		}
		go func(connectionID string) {
			defer func() { done <- struct{}{} }()
			err := h.hub.Post(ctx, connectionID, payload)
			if err == nil {
				return
			}
			if IsTerminal(err) {
				log.Printf("[WS] reaping connection %s after terminal send error: %v", connectionID, err)
				if ferr := h.registry.Forget(ctx, connectionID); ferr != nil {
					log.Printf("[WS] reap failed for %s: %v", connectionID, ferr)
				}
				return
			}
			log.Printf("[WS] transient send failure for %s: %v", connectionID, err)
		}(target.ID)
	}
	for range targets {
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}

// readPump consumes inbound frames until the socket dies, then runs the
// disconnect path.
func (h *Handler) readPump(cl *client, row *models.Connection) {
	defer h.handleDisconnect(row.ID, row.GameID)

	cl.conn.SetReadLimit(maxFrame)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] unexpected close on connection %s: %v", row.ID, err)
			}
			return
		}
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))

		ctx, cancel := context.WithTimeout(context.Background(), h.handlerTimeout)
		h.dispatch(ctx, row.ID, message)
		cancel()
	}
}

// handleDisconnect removes the connection and broadcasts the recomputed
// presence to everyone still there. Safe to run after the row has already
// expired or been reaped; all steps are idempotent.
func (h *Handler) handleDisconnect(connectionID, gameID string) {
	h.hub.remove(connectionID)

	ctx, cancel := context.WithTimeout(context.Background(), h.handlerTimeout)
	defer cancel()

	row, err := h.registry.Get(ctx, connectionID)
	if err != nil {
		log.Printf("[WS] disconnect read failed for %s: %v", connectionID, err)
	}
	if row != nil {
		gameID = row.GameID
	}

	if err := h.registry.Forget(ctx, connectionID); err != nil {
		log.Printf("[WS] disconnect delete failed for %s: %v", connectionID, err)
	}
	log.Printf("[WS] connection %s disconnected (game=%s)", connectionID, gameID)

	g, err := h.games.GetGame(ctx, gameID)
	if err != nil {
		// Game deleted while sockets were still open; nothing to update.
		return
	}
	h.broadcastPresence(g, nil, connectionID)
}
