package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/hexclash/backend/internal/game"
	"github.com/hexclash/backend/internal/models"
)

// dispatch handles one inbound frame. A failure here is reported on the
// sender's own connection and never tears the socket down.
func (h *Handler) dispatch(ctx context.Context, connectionID string, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.sendError(ctx, connectionID, "invalid message", "BAD_REQUEST")
		return
	}

	conn, err := h.registry.Get(ctx, connectionID)
	if err != nil {
		log.Printf("[WS] connection lookup failed for %s: %v", connectionID, err)
		h.sendError(ctx, connectionID, "internal error", "INTERNAL")
		return
	}
	if conn == nil {
		h.sendError(ctx, connectionID, "connection not registered", "NOT_FOUND")
		return
	}

	if err := h.registry.Touch(ctx, connectionID, h.now().UTC()); err != nil {
		log.Printf("[WS] touch failed for %s: %v", connectionID, err)
	}

	switch frame.Action {
	case "":
		h.sendError(ctx, connectionID, "action is required", "BAD_REQUEST")
	case "heartbeat", "ping":
		// lastActivity already advanced; nothing to broadcast
	case "chat":
		h.handleChat(ctx, conn, frame)
	default:
		// moveUnit, selectUnit, endTurn, and any other state-changing
		// action the server forwards with the state broadcast.
		h.handleGameAction(ctx, conn, frame)
	}
}

// handleChat fans a chat message out to every connection of the game. The
// author identity comes from the frame when supplied, else from the
// Connection row.
func (h *Handler) handleChat(ctx context.Context, conn *models.Connection, frame Frame) {
	gameID := frame.GameID
	if gameID == "" {
		gameID = conn.GameID
	}
	userID := frame.UserID
	if userID == "" {
		userID = conn.UserID
	}

	playerName := ""
	if g, err := h.games.GetGame(ctx, gameID); err == nil {
		if idx := g.PlayerIndexOf(userID); idx != 0 {
			playerName = g.PlayerName(idx)
		}
	}

	payload := ChatPayload{
		Type:      TypeChat,
		GameID:    gameID,
		Player:    playerName,
		UserID:    userID,
		Message:   frame.Message,
		Timestamp: wsTimestamp(h.now()),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[WS] chat marshal failed: %v", err)
		return
	}
	h.broadcastToGame(ctx, gameID, data)
}

// handleGameAction writes the client-described state back and broadcasts a
// gameStateUpdate. Rule validation is out of scope here; the server routes
// and stores.
func (h *Handler) handleGameAction(ctx context.Context, conn *models.Connection, frame Frame) {
	gameID := frame.GameID
	if gameID == "" {
		gameID = conn.GameID
	}

	g, err := h.games.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, game.ErrNotFound) {
			h.sendError(ctx, conn.ID, "game not found", "NOT_FOUND")
			return
		}
		log.Printf("[WS] game lookup failed for %s: %v", gameID, err)
		h.sendError(ctx, conn.ID, "internal error", "INTERNAL")
		return
	}

	state := stripImmutable(frame.GameState)
	if frame.GameState != nil {
		if err := h.states.UpdateGameState(ctx, g.ID, state, frame.Action == "endTurn"); err != nil {
			log.Printf("[WS] state write failed for game %s: %v", g.ID, err)
			h.sendError(ctx, conn.ID, "failed to save game state", "INTERNAL")
			return
		}
	}

	payload := GameStateUpdatePayload{
		Type:      TypeGameStateUpdate,
		GameID:    g.ID,
		Action:    frame.Action,
		GameState: state,
		Timestamp: wsTimestamp(h.now()),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[WS] state marshal failed: %v", err)
		return
	}
	h.broadcastToGame(ctx, gameID, data)
}

// broadcastToGame fans a payload out to every connection the registry
// reports for the game.
func (h *Handler) broadcastToGame(ctx context.Context, gameID string, payload []byte) {
	targets, err := h.registry.ListByGame(ctx, gameID)
	if err != nil {
		log.Printf("[WS] listing connections failed for game %s: %v", gameID, err)
		return
	}
	h.broadcast(ctx, targets, payload)
}

// sendError surfaces a per-message failure on the sender's own connection.
func (h *Handler) sendError(ctx context.Context, connectionID, message, code string) {
	data, _ := json.Marshal(ErrorPayload{Type: TypeError, Message: message, Code: code})
	if err := h.hub.Post(ctx, connectionID, data); err != nil {
		log.Printf("[WS] error frame undeliverable to %s: %v", connectionID, err)
	}
}

// stripImmutable removes the scenario snapshot and scenario id from a
// client-supplied state blob. Updates carry the mutable state only.
func stripImmutable(state json.RawMessage) json.RawMessage {
	if state == nil {
		return json.RawMessage(`{}`)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(state, &m); err != nil {
		return state
	}
	if _, ok := m["scenarioSnapshot"]; !ok {
		if _, ok := m["scenarioId"]; !ok {
			return state
		}
	}
	delete(m, "scenarioSnapshot")
	delete(m, "scenarioId")
	out, err := json.Marshal(m)
	if err != nil {
		return state
	}
	return out
}
