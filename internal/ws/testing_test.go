package ws

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/hexclash/backend/internal/auth"
	"github.com/hexclash/backend/internal/game"
	"github.com/hexclash/backend/internal/models"
)

// fakeRegistry is an in-memory Connection table.
type fakeRegistry struct {
	mu   sync.Mutex
	rows map[string]models.Connection
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{rows: make(map[string]models.Connection)}
}

func (f *fakeRegistry) Register(ctx context.Context, c *models.Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeRegistry) Touch(ctx context.Context, id string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.rows[id]; ok {
		c.LastActivity = now
		f.rows[id] = c
	}
	return nil
}

func (f *fakeRegistry) Forget(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeRegistry) Get(ctx context.Context, id string) (*models.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.rows[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeRegistry) ListByGame(ctx context.Context, gameID string) ([]models.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Connection
	for _, c := range f.rows {
		if c.GameID == gameID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRegistry) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeRegistry) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok
}

func (f *fakeRegistry) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id := range f.rows {
		out = append(out, id)
	}
	return out
}

// fakeGames serves game records and records state writes.
type fakeGames struct {
	mu    sync.Mutex
	games map[string]*models.Game

	lastState    json.RawMessage
	lastBumpTurn bool
	stateWrites  int
}

func newFakeGames(games ...*models.Game) *fakeGames {
	f := &fakeGames{games: make(map[string]*models.Game)}
	for _, g := range games {
		f.games[g.ID] = g
	}
	return f
}

func (f *fakeGames) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.games[gameID]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, fmt.Errorf("game %s: %w", gameID, game.ErrNotFound)
}

func (f *fakeGames) UpdateGameState(ctx context.Context, gameID string, state json.RawMessage, bumpTurn bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[gameID]
	if !ok {
		return sql.ErrNoRows
	}
	g.GameState = state
	if bumpTurn {
		g.TurnNumber++
	}
	f.lastState = state
	f.lastBumpTurn = bumpTurn
	f.stateWrites++
	return nil
}

// fakeVerifier accepts tokens of the form "token-for:<userId>".
type fakeVerifier struct{}

func (fakeVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	if userID, ok := strings.CutPrefix(token, "token-for:"); ok {
		return &auth.Identity{UserID: userID, Email: userID + "@example.com"}, nil
	}
	return nil, auth.ErrTokenInvalid
}

func activeGame(id string) *models.Game {
	now := time.Now().UTC()
	return &models.Game{
		ID:          id,
		Status:      models.GameActive,
		Player1Name: "Alice",
		Player1ID:   "uA",
		Player2Name: sql.NullString{String: "Bob", Valid: true},
		Player2ID:   sql.NullString{String: "uB", Valid: true},
		TurnNumber:  1,
		ScenarioID:  "s1",
		GameState:   json.RawMessage(`{}`),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func waitingGame(id string) *models.Game {
	g := activeGame(id)
	g.Status = models.GameWaiting
	g.Player2Name = sql.NullString{}
	g.Player2ID = sql.NullString{}
	return g
}

// testServer runs the handler behind a real HTTP server.
type testServer struct {
	*httptest.Server
	handler  *Handler
	registry *fakeRegistry
	games    *fakeGames
}

func newTestServer(t *testing.T, registry *fakeRegistry, games *fakeGames) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(HandlerOptions{
		Registry:             registry,
		Games:                games,
		States:               games,
		Verifier:             fakeVerifier{},
		AllowUnauthenticated: true,
		ConnectionTTL:        24 * time.Hour,
	})

	router := gin.New()
	router.GET("/ws", h.HandleWebSocket)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, handler: h, registry: registry, games: games}
}

func (ts *testServer) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?" + query
}

// dial opens a socket and fails the test on handshake errors.
func (ts *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(query), nil)
	require.NoError(t, err, "dial %s", query)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// dialExpectStatus asserts the handshake is refused with an HTTP status.
func (ts *testServer) dialExpectStatus(t *testing.T, query string, status int) {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(query), nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	require.Equal(t, status, resp.StatusCode)
}

// readFrame reads one JSON frame within the deadline.
func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

// readUntilType drains frames until one of the wanted type arrives.
func readUntilType(t *testing.T, conn *websocket.Conn, wanted string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		m := readFrame(t, conn)
		if m["type"] == wanted {
			return m
		}
	}
	t.Fatalf("no %q frame before deadline", wanted)
	return nil
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame interface{}) {
	t.Helper()
	data, err := json.Marshal(frame)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}
