package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hexclash/backend/internal/models"
)

func connRow(id, gameID, userID string, index int) models.Connection {
	now := time.Now().UTC()
	return models.Connection{
		ID:           id,
		GameID:       gameID,
		UserID:       userID,
		PlayerIndex:  index,
		ConnectedAt:  now,
		LastActivity: now,
		ExpiresAt:    now.Add(time.Hour),
	}
}

func TestPresenceTargetsUnionsNewRow(t *testing.T) {
	listed := []models.Connection{
		connRow("c1", "g1", "uA", models.PlayerIndexCreator),
	}
	fresh := connRow("c2", "g1", "uB", models.PlayerIndexJoiner)

	targets := presenceTargets(listed, &fresh, "")
	require.Len(t, targets, 2)

	// A listing that already caught up must not produce a duplicate.
	targets = presenceTargets(append(listed, fresh), &fresh, "")
	require.Len(t, targets, 2)
}

func TestPresenceTargetsSubtractsDeletedRow(t *testing.T) {
	listed := []models.Connection{
		connRow("c1", "g1", "uA", models.PlayerIndexCreator),
		connRow("c2", "g1", "uB", models.PlayerIndexJoiner),
	}

	targets := presenceTargets(listed, nil, "c2")
	require.Len(t, targets, 1)
	require.Equal(t, "c1", targets[0].ID)
}

func TestPresenceTargetsExcludeBeatsInclude(t *testing.T) {
	fresh := connRow("c1", "g1", "uA", models.PlayerIndexCreator)
	targets := presenceTargets(nil, &fresh, "c1")
	require.Empty(t, targets)
}

func TestConnectionStatePayloadActiveGame(t *testing.T) {
	g := activeGame("g1")
	targets := []models.Connection{
		connRow("c1", "g1", "uA", models.PlayerIndexCreator),
	}

	p := connectionStatePayload(g, targets, time.Now())
	require.Equal(t, TypeConnectionState, p.Type)
	require.Equal(t, "g1", p.GameID)
	require.True(t, p.Connections.Player1.Connected)
	require.Equal(t, "uA", p.Connections.Player1.UserID)
	require.Equal(t, "Alice", p.Connections.Player1.PlayerName)
	require.NotNil(t, p.Connections.Player2)
	require.False(t, p.Connections.Player2.Connected)
	require.Equal(t, "Bob", p.Connections.Player2.PlayerName)
}

func TestConnectionStatePayloadWaitingGameHasNullPlayer2(t *testing.T) {
	g := waitingGame("g1")
	p := connectionStatePayload(g, nil, time.Now())
	require.False(t, p.Connections.Player1.Connected)
	require.Nil(t, p.Connections.Player2)
}

func TestConnectionStatePayloadMultiDevice(t *testing.T) {
	g := activeGame("g1")
	targets := []models.Connection{
		connRow("c1", "g1", "uA", models.PlayerIndexCreator),
		connRow("c2", "g1", "uA", models.PlayerIndexCreator),
	}

	// Both devices belong to player 1; dropping one keeps them connected.
	p := connectionStatePayload(g, presenceTargets(targets, nil, "c2"), time.Now())
	require.True(t, p.Connections.Player1.Connected)
	require.False(t, p.Connections.Player2.Connected)
}
