package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hexclash/backend/internal/models"
)

const connectionColumns = `id, game_id, user_id, player_index, connected_at, last_activity, expires_at`

// Register writes a Connection row. connectionIds are unique per socket, so
// a replay of the same registration is idempotent.
func (s *Store) Register(ctx context.Context, c *models.Connection) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, game_id, user_id, player_index, connected_at, last_activity, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET last_activity = EXCLUDED.last_activity`, s.t.Connections)
	if _, err := s.db.ExecContext(ctx, q,
		c.ID, c.GameID, c.UserID, c.PlayerIndex, c.ConnectedAt, c.LastActivity, c.ExpiresAt); err != nil {
		return fmt.Errorf("register connection %s: %w", c.ID, err)
	}
	return nil
}

// Touch advances last_activity. Missing rows are not an error; the socket
// may have been reaped while a frame was in flight.
func (s *Store) Touch(ctx context.Context, connectionID string, now time.Time) error {
	q := fmt.Sprintf(`UPDATE %s SET last_activity=$1 WHERE id=$2`, s.t.Connections)
	if _, err := s.db.ExecContext(ctx, q, now, connectionID); err != nil {
		return fmt.Errorf("touch connection %s: %w", connectionID, err)
	}
	return nil
}

// Forget deletes a Connection row. Idempotent: forgetting an absent row is
// a no-op.
func (s *Store) Forget(ctx context.Context, connectionID string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, s.t.Connections)
	if _, err := s.db.ExecContext(ctx, q, connectionID); err != nil {
		return fmt.Errorf("forget connection %s: %w", connectionID, err)
	}
	return nil
}

// Get reads one Connection by id; (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, connectionID string) (*models.Connection, error) {
	var c models.Connection
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id=$1`, connectionColumns, s.t.Connections)
	if err := s.db.GetContext(ctx, &c, q, connectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get connection %s: %w", connectionID, err)
	}
	return &c, nil
}

// ListByGame returns every live connection of a game. Callers must tolerate
// a just-written row being missing and a just-deleted row still appearing;
// presence computations compensate (see the ws package).
func (s *Store) ListByGame(ctx context.Context, gameID string) ([]models.Connection, error) {
	var conns []models.Connection
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE game_id=$1 AND expires_at > NOW()`, connectionColumns, s.t.Connections)
	if err := s.db.SelectContext(ctx, &conns, q, gameID); err != nil {
		return nil, fmt.Errorf("list connections for game %s: %w", gameID, err)
	}
	return conns, nil
}
