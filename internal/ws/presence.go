package ws

import (
	"time"

	"github.com/hexclash/backend/internal/models"
)

// presenceTargets reconciles an eventually-consistent connection listing
// into the set of rows to broadcast to. include is unioned in (the
// just-written row may not be visible yet) and exclude is subtracted (the
// just-deleted row may still appear).
func presenceTargets(listed []models.Connection, include *models.Connection, exclude string) []models.Connection {
	targets := make([]models.Connection, 0, len(listed)+1)
	seen := make(map[string]bool, len(listed)+1)
	for _, c := range listed {
		if c.ID == exclude || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		targets = append(targets, c)
	}
	if include != nil && !seen[include.ID] && include.ID != exclude {
		targets = append(targets, *include)
	}
	return targets
}

// connectionStatePayload derives per-player presence from the reconciled
// target set: a player is connected while at least one connection with that
// playerIndex is present (multiple devices per user are expected).
func connectionStatePayload(g *models.Game, targets []models.Connection, now time.Time) ConnectionStatePayload {
	var p1Connected, p2Connected bool
	for _, c := range targets {
		switch c.PlayerIndex {
		case models.PlayerIndexCreator:
			p1Connected = true
		case models.PlayerIndexJoiner:
			p2Connected = true
		}
	}

	payload := ConnectionStatePayload{
		Type:      TypeConnectionState,
		GameID:    g.ID,
		Timestamp: wsTimestamp(now),
	}
	payload.Connections.Player1 = PlayerPresence{
		Connected:  p1Connected,
		UserID:     g.Player1ID,
		PlayerName: g.Player1Name,
	}
	if g.Player2ID.Valid {
		payload.Connections.Player2 = &PlayerPresence{
			Connected:  p2Connected,
			UserID:     g.Player2ID.String,
			PlayerName: g.Player2Name.String,
		}
	}
	return payload
}
