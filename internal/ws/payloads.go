package ws

import (
	"encoding/json"
	"time"
)

// Frame is an inbound WebSocket message. The dispatch key is Action.
type Frame struct {
	Action    string          `json:"action"`
	GameID    string          `json:"gameId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Message   string          `json:"message,omitempty"`
	GameState json.RawMessage `json:"gameState,omitempty"`
}

// Outbound payload types
const (
	TypeChat            = "chat"
	TypeGameStateUpdate = "gameStateUpdate"
	TypeConnectionState = "connectionStateUpdate"
	TypeError           = "error"
)

// ChatPayload carries one chat message to every participant socket.
type ChatPayload struct {
	Type      string `json:"type"`
	GameID    string `json:"gameId"`
	Player    string `json:"player"`
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// GameStateUpdatePayload carries the mutable state only. The scenario
// snapshot is immutable and already held by every client from game
// creation; it never travels per update.
type GameStateUpdatePayload struct {
	Type      string          `json:"type"`
	GameID    string          `json:"gameId"`
	Action    string          `json:"action"`
	GameState json.RawMessage `json:"gameState"`
	Timestamp string          `json:"timestamp"`
}

// PlayerPresence is the per-player half of a connection state update.
type PlayerPresence struct {
	Connected  bool   `json:"connected"`
	UserID     string `json:"userId"`
	PlayerName string `json:"playerName"`
}

// ConnectionStatePayload reports per-player presence. Player2 is null while
// the game is waiting for a joiner.
type ConnectionStatePayload struct {
	Type        string `json:"type"`
	GameID      string `json:"gameId"`
	Connections struct {
		Player1 PlayerPresence  `json:"player1"`
		Player2 *PlayerPresence `json:"player2"`
	} `json:"connections"`
	Timestamp string `json:"timestamp"`
}

// ErrorPayload is surfaced on the sender's own connection for per-message
// failures.
type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func wsTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
