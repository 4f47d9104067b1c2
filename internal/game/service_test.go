package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hexclash/backend/internal/models"
	"github.com/hexclash/backend/internal/store"
)

// memStore is an in-memory Store with the same contract as the SQL one:
// GetGame/GetScenario report absence as sql.ErrNoRows, JoinGame fills the
// player2 slot conditionally.
type memStore struct {
	mu        sync.Mutex
	games     map[string]*models.Game
	scenarios map[string]*models.Scenario

	lastListQuery store.GameQuery
	lastListLimit int
}

func newMemStore() *memStore {
	return &memStore{
		games:     make(map[string]*models.Game),
		scenarios: make(map[string]*models.Scenario),
	}
}

func (m *memStore) CreateGame(ctx context.Context, g *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.games[g.ID] = &cp
	return nil
}

func (m *memStore) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *g
	return &cp, nil
}

func (m *memStore) JoinGame(ctx context.Context, gameID, userID, displayName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok || g.Player2ID.Valid || g.Player1ID == userID {
		return false, nil
	}
	g.Player2ID = sql.NullString{String: userID, Valid: true}
	g.Player2Name = sql.NullString{String: displayName, Valid: true}
	g.Status = models.GameActive
	g.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *memStore) DeleteGame(ctx context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	return nil
}

func (m *memStore) ListGames(ctx context.Context, q store.GameQuery) ([]models.Game, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastListQuery = q
	m.lastListLimit = q.Limit

	var out []models.Game
	for _, g := range m.games {
		if q.PlayerID != "" {
			idx := g.PlayerIndexOf(q.PlayerID)
			if idx == 0 || (q.Role != 0 && idx != q.Role) {
				continue
			}
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		return out[:q.Limit], "more", nil
	}
	return out, "", nil
}

func (m *memStore) CreateScenario(ctx context.Context, sc *models.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sc
	m.scenarios[sc.ID] = &cp
	return nil
}

func (m *memStore) GetScenario(ctx context.Context, scenarioID string) (*models.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.scenarios[scenarioID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *sc
	return &cp, nil
}

func (m *memStore) UpdateScenario(ctx context.Context, sc *models.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.scenarios[sc.ID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Title = sc.Title
	existing.Description = sc.Description
	existing.Columns = sc.Columns
	existing.Rows = sc.Rows
	existing.TurnCount = sc.TurnCount
	existing.Hexes = sc.Hexes
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memStore) DeleteScenario(ctx context.Context, scenarioID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scenarios, scenarioID)
	return nil
}

func (m *memStore) ListScenarios(ctx context.Context, limit int, token string) ([]models.Scenario, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastListLimit = limit
	var out []models.Scenario
	for _, sc := range m.scenarios {
		out = append(out, *sc)
	}
	return out, "", nil
}

func seedScenario(t *testing.T, m *memStore) *models.Scenario {
	t.Helper()
	sc := &models.Scenario{
		ID:        "s1",
		Title:     "River Crossing",
		Columns:   12,
		Rows:      9,
		TurnCount: 20,
		Hexes:     json.RawMessage(`[{"q":0,"r":0,"terrain":"plain"}]`),
		CreatorID: "uA",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, m.CreateScenario(context.Background(), sc))
	return sc
}

func TestCreateGameSnapshotsScenario(t *testing.T) {
	m := newMemStore()
	seedScenario(t, m)
	svc := NewService(m)

	g, err := svc.CreateGame(context.Background(), "uA", "Alice", "s1")
	require.NoError(t, err)
	require.Equal(t, models.GameWaiting, g.Status)
	require.Equal(t, "uA", g.Player1ID)
	require.Equal(t, "Alice", g.Player1Name)
	require.False(t, g.Player2ID.Valid)
	require.Equal(t, 1, g.TurnNumber)
	require.JSONEq(t, `{}`, string(g.GameState))

	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(g.ScenarioSnapshot, &snap))
	require.Equal(t, "River Crossing", snap["title"])

	// Editing the scenario afterwards must not touch the snapshot.
	_, err = svc.UpdateScenario(context.Background(), "uA", &models.Scenario{ID: "s1", Title: "Renamed"})
	require.NoError(t, err)
	stored, err := svc.GetGame(context.Background(), g.ID)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(stored.ScenarioSnapshot, &snap))
	require.Equal(t, "River Crossing", snap["title"])
}

func TestCreateGameDefaultsDisplayName(t *testing.T) {
	m := newMemStore()
	seedScenario(t, m)
	svc := NewService(m)

	g, err := svc.CreateGame(context.Background(), "uA", "", "s1")
	require.NoError(t, err)
	require.Equal(t, "Player 1", g.Player1Name)
}

func TestCreateGameUnknownScenario(t *testing.T) {
	svc := NewService(newMemStore())
	_, err := svc.CreateGame(context.Background(), "uA", "Alice", "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestJoinGameActivates(t *testing.T) {
	m := newMemStore()
	seedScenario(t, m)
	svc := NewService(m)

	g, err := svc.CreateGame(context.Background(), "uA", "Alice", "s1")
	require.NoError(t, err)

	joined, err := svc.JoinGame(context.Background(), "uB", "Bob", g.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameActive, joined.Status)
	require.Equal(t, "uB", joined.Player2ID.String)
	require.Equal(t, "Bob", joined.Player2Name.String)
}

func TestJoinGameConflicts(t *testing.T) {
	m := newMemStore()
	seedScenario(t, m)
	svc := NewService(m)

	g, err := svc.CreateGame(context.Background(), "uA", "Alice", "s1")
	require.NoError(t, err)

	// Creator may not fill their own player2 slot.
	_, err = svc.JoinGame(context.Background(), "uA", "Alice again", g.ID)
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.JoinGame(context.Background(), "uB", "Bob", g.ID)
	require.NoError(t, err)

	// Third player bounces off a full game.
	_, err = svc.JoinGame(context.Background(), "uC", "Carol", g.ID)
	require.ErrorIs(t, err, ErrConflict)
}

func TestJoinGameLosesConditionalRace(t *testing.T) {
	m := newMemStore()
	seedScenario(t, m)
	svc := NewService(m)

	g, err := svc.CreateGame(context.Background(), "uA", "Alice", "s1")
	require.NoError(t, err)

	// Simulate another joiner winning between the read and the conditional
	// write: the slot fills underneath uC.
	joined, err := m.JoinGame(context.Background(), g.ID, "uB", "Bob")
	require.NoError(t, err)
	require.True(t, joined)

	_, err = svc.JoinGame(context.Background(), "uC", "Carol", g.ID)
	require.ErrorIs(t, err, ErrConflict)
}

func TestJoinGameNotFound(t *testing.T) {
	svc := NewService(newMemStore())
	_, err := svc.JoinGame(context.Background(), "uB", "Bob", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteGameCreatorOnly(t *testing.T) {
	m := newMemStore()
	seedScenario(t, m)
	svc := NewService(m)

	g, err := svc.CreateGame(context.Background(), "uA", "Alice", "s1")
	require.NoError(t, err)
	_, err = svc.JoinGame(context.Background(), "uB", "Bob", g.ID)
	require.NoError(t, err)

	err = svc.DeleteGame(context.Background(), "uB", g.ID)
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.DeleteGame(context.Background(), "uA", g.ID))
	_, err = svc.GetGame(context.Background(), g.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetGameNotFound(t *testing.T) {
	svc := NewService(newMemStore())
	_, err := svc.GetGame(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListGamesClampsLimit(t *testing.T) {
	m := newMemStore()
	svc := NewService(m)

	_, _, err := svc.ListGames(context.Background(), store.GameQuery{Limit: 1000})
	require.NoError(t, err)
	require.Equal(t, store.MaxPageSize, m.lastListLimit)

	_, _, err = svc.ListGames(context.Background(), store.GameQuery{Limit: 0})
	require.NoError(t, err)
	require.Equal(t, store.DefaultPageSize, m.lastListLimit)

	_, _, err = svc.ListGames(context.Background(), store.GameQuery{Limit: 7})
	require.NoError(t, err)
	require.Equal(t, 7, m.lastListLimit)
}

func TestListGamesFiltersByRole(t *testing.T) {
	m := newMemStore()
	seedScenario(t, m)
	svc := NewService(m)

	created, err := svc.CreateGame(context.Background(), "uA", "Alice", "s1")
	require.NoError(t, err)
	other, err := svc.CreateGame(context.Background(), "uB", "Bob", "s1")
	require.NoError(t, err)
	_, err = svc.JoinGame(context.Background(), "uA", "Alice", other.ID)
	require.NoError(t, err)

	asCreator, _, err := svc.ListGames(context.Background(), store.GameQuery{PlayerID: "uA", Role: models.PlayerIndexCreator})
	require.NoError(t, err)
	require.Len(t, asCreator, 1)
	require.Equal(t, created.ID, asCreator[0].ID)

	asJoiner, _, err := svc.ListGames(context.Background(), store.GameQuery{PlayerID: "uA", Role: models.PlayerIndexJoiner})
	require.NoError(t, err)
	require.Len(t, asJoiner, 1)
	require.Equal(t, other.ID, asJoiner[0].ID)

	any, _, err := svc.ListGames(context.Background(), store.GameQuery{PlayerID: "uA"})
	require.NoError(t, err)
	require.Len(t, any, 2)
}

func TestScenarioCreatorOnlyMutation(t *testing.T) {
	m := newMemStore()
	sc := seedScenario(t, m)
	svc := NewService(m)

	_, err := svc.UpdateScenario(context.Background(), "uB", &models.Scenario{ID: sc.ID, Title: "Hijacked"})
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.DeleteScenario(context.Background(), "uB", sc.ID)
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateScenario(context.Background(), "uA", &models.Scenario{ID: sc.ID, Title: "Renamed"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)

	require.NoError(t, svc.DeleteScenario(context.Background(), "uA", sc.ID))
	_, err = svc.GetScenario(context.Background(), sc.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateScenarioFillsDefaults(t *testing.T) {
	m := newMemStore()
	svc := NewService(m)

	sc, err := svc.CreateScenario(context.Background(), "uA", &models.Scenario{Title: "Empty Board"})
	require.NoError(t, err)
	require.NotEmpty(t, sc.ID)
	require.Equal(t, "uA", sc.CreatorID)
	require.JSONEq(t, `[]`, string(sc.Hexes))
}
