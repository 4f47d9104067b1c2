package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Game status values
const (
	GameWaiting  = "waiting"
	GameActive   = "active"
	GameFinished = "finished"
)

// Player index values: 1 is the creator, 2 the joiner
const (
	PlayerIndexCreator = 1
	PlayerIndexJoiner  = 2
)

// User is an account row created through the token authority.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Game is a match between two players. player1_id/player2_id mirror the
// userId fields inside the player pairs so they can serve as index keys.
type Game struct {
	ID               string          `db:"id"`
	Status           string          `db:"status"`
	Player1Name      string          `db:"player1_name"`
	Player1ID        string          `db:"player1_id"`
	Player2Name      sql.NullString  `db:"player2_name"`
	Player2ID        sql.NullString  `db:"player2_id"`
	TurnNumber       int             `db:"turn_number"`
	ScenarioID       string          `db:"scenario_id"`
	ScenarioSnapshot json.RawMessage `db:"scenario_snapshot"`
	GameState        json.RawMessage `db:"game_state"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// PlayerRef is the (displayName, userId) pair stored per player slot.
type PlayerRef struct {
	DisplayName string `json:"displayName"`
	UserID      string `json:"userId"`
}

// GameView is the wire representation of a Game.
type GameView struct {
	GameID           string          `json:"gameId"`
	Status           string          `json:"status"`
	Player1          PlayerRef       `json:"player1"`
	Player2          *PlayerRef      `json:"player2"`
	Player1ID        string          `json:"player1Id"`
	Player2ID        string          `json:"player2Id,omitempty"`
	TurnNumber       int             `json:"turnNumber"`
	ScenarioID       string          `json:"scenarioId"`
	ScenarioSnapshot json.RawMessage `json:"scenarioSnapshot,omitempty"`
	GameState        json.RawMessage `json:"gameState,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// View converts the row to its wire shape.
func (g *Game) View() GameView {
	v := GameView{
		GameID:           g.ID,
		Status:           g.Status,
		Player1:          PlayerRef{DisplayName: g.Player1Name, UserID: g.Player1ID},
		Player1ID:        g.Player1ID,
		TurnNumber:       g.TurnNumber,
		ScenarioID:       g.ScenarioID,
		ScenarioSnapshot: g.ScenarioSnapshot,
		GameState:        g.GameState,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
	if g.Player2ID.Valid {
		v.Player2 = &PlayerRef{DisplayName: g.Player2Name.String, UserID: g.Player2ID.String}
		v.Player2ID = g.Player2ID.String
	}
	return v
}

// PlayerIndexOf returns 1 or 2 for a participant userId, 0 otherwise.
func (g *Game) PlayerIndexOf(userID string) int {
	if userID == g.Player1ID {
		return PlayerIndexCreator
	}
	if g.Player2ID.Valid && userID == g.Player2ID.String {
		return PlayerIndexJoiner
	}
	return 0
}

// PlayerName returns the display name stored for a player index.
func (g *Game) PlayerName(index int) string {
	if index == PlayerIndexJoiner {
		return g.Player2Name.String
	}
	return g.Player1Name
}

// Scenario is a board definition owned by its creator. Read-only from the
// WebSocket layer's perspective; mutable only through the REST surface.
type Scenario struct {
	ID          string          `db:"id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Columns     int             `db:"board_columns"`
	Rows        int             `db:"board_rows"`
	TurnCount   int             `db:"turn_count"`
	Hexes       json.RawMessage `db:"hexes"`
	CreatorID   string          `db:"creator_id"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// ScenarioView is the wire representation of a Scenario.
type ScenarioView struct {
	ScenarioID  string          `json:"scenarioId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Columns     int             `json:"columns"`
	Rows        int             `json:"rows"`
	TurnCount   int             `json:"turnCount"`
	Hexes       json.RawMessage `json:"hexes"`
	CreatorID   string          `json:"creatorId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (s *Scenario) View() ScenarioView {
	return ScenarioView{
		ScenarioID:  s.ID,
		Title:       s.Title,
		Description: s.Description,
		Columns:     s.Columns,
		Rows:        s.Rows,
		TurnCount:   s.TurnCount,
		Hexes:       s.Hexes,
		CreatorID:   s.CreatorID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// PlayerGame is one (playerId, gameId, playerIndex) relationship row.
type PlayerGame struct {
	PlayerID    string    `db:"player_id" json:"playerId"`
	GameID      string    `db:"game_id" json:"gameId"`
	PlayerIndex int       `db:"player_index" json:"playerIndex"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Connection is one live WebSocket routed through the registry.
// expires_at is a safety net; explicit deletes on terminal send errors
// are the primary reaping mechanism.
type Connection struct {
	ID           string    `db:"id" json:"connectionId"`
	GameID       string    `db:"game_id" json:"gameId"`
	UserID       string    `db:"user_id" json:"userId"`
	PlayerIndex  int       `db:"player_index" json:"playerIndex"`
	ConnectedAt  time.Time `db:"connected_at" json:"connectedAt"`
	LastActivity time.Time `db:"last_activity" json:"lastActivity"`
	ExpiresAt    time.Time `db:"expires_at" json:"-"`
}
