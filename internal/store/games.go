package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hexclash/backend/internal/models"
)

// GameQuery selects a page of games. PlayerID empty means an unfiltered
// listing; Role 0 means any player index.
type GameQuery struct {
	PlayerID string
	Role     int
	Limit    int
	Token    string
}

const gameColumns = `id, status, player1_name, player1_id, player2_name, player2_id,
	turn_number, scenario_id, scenario_snapshot, game_state, created_at, updated_at`

// CreateGame inserts the game row and its PlayerGame(1) row in one
// transaction so a game can never exist without its creator index entry.
func (s *Store) CreateGame(ctx context.Context, g *models.Game) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create game: %w", err)
	}
	defer tx.Rollback()

	insertGame := fmt.Sprintf(`INSERT INTO %s
		(id, status, player1_name, player1_id, turn_number, scenario_id, scenario_snapshot, game_state, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`, s.t.Games)
	if _, err := tx.ExecContext(ctx, insertGame,
		g.ID, g.Status, g.Player1Name, g.Player1ID, g.TurnNumber,
		g.ScenarioID, g.ScenarioSnapshot, g.GameState, g.CreatedAt, g.UpdatedAt); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	insertPG := fmt.Sprintf(`INSERT INTO %s (player_id, game_id, player_index, created_at)
		VALUES ($1,$2,$3,$4)`, s.t.PlayerGames)
	if _, err := tx.ExecContext(ctx, insertPG, g.Player1ID, g.ID, models.PlayerIndexCreator, g.CreatedAt); err != nil {
		return fmt.Errorf("insert player game: %w", err)
	}

	return tx.Commit()
}

// GetGame is a point read by primary key. Returns sql.ErrNoRows (wrapped)
// when the game does not exist.
func (s *Store) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	var g models.Game
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id=$1`, gameColumns, s.t.Games)
	if err := s.db.GetContext(ctx, &g, q, gameID); err != nil {
		return nil, fmt.Errorf("get game %s: %w", gameID, err)
	}
	return &g, nil
}

// JoinGame fills the player2 slot with a conditional update. The predicate
// requires player2_id to still be absent, so of two concurrent joiners
// exactly one observes joined=true. The PlayerGame(2) row is written in the
// same transaction.
func (s *Store) JoinGame(ctx context.Context, gameID, userID, displayName string) (joined bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin join game: %w", err)
	}
	defer tx.Rollback()

	update := fmt.Sprintf(`UPDATE %s
		SET player2_name=$1, player2_id=$2, status=$3, updated_at=NOW()
		WHERE id=$4 AND player2_id IS NULL AND player1_id <> $2`, s.t.Games)
	res, err := tx.ExecContext(ctx, update, displayName, userID, models.GameActive, gameID)
	if err != nil {
		return false, fmt.Errorf("join game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("join game rows: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	insertPG := fmt.Sprintf(`INSERT INTO %s (player_id, game_id, player_index, created_at)
		VALUES ($1,$2,$3,NOW())`, s.t.PlayerGames)
	if _, err := tx.ExecContext(ctx, insertPG, userID, gameID, models.PlayerIndexJoiner); err != nil {
		return false, fmt.Errorf("insert joiner player game: %w", err)
	}

	return true, tx.Commit()
}

// DeleteGame removes the game and sweeps its PlayerGame rows atomically.
func (s *Store) DeleteGame(ctx context.Context, gameID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete game: %w", err)
	}
	defer tx.Rollback()

	delPG := fmt.Sprintf(`DELETE FROM %s WHERE game_id=$1`, s.t.PlayerGames)
	if _, err := tx.ExecContext(ctx, delPG, gameID); err != nil {
		return fmt.Errorf("delete player games: %w", err)
	}

	delGame := fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, s.t.Games)
	if _, err := tx.ExecContext(ctx, delGame, gameID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}

	return tx.Commit()
}

// UpdateGameState writes back the mutable state blob. bumpTurn additionally
// increments turn_number (end-of-turn bookkeeping).
func (s *Store) UpdateGameState(ctx context.Context, gameID string, state json.RawMessage, bumpTurn bool) error {
	q := fmt.Sprintf(`UPDATE %s SET game_state=$1, updated_at=NOW() WHERE id=$2`, s.t.Games)
	if bumpTurn {
		q = fmt.Sprintf(`UPDATE %s SET game_state=$1, turn_number=turn_number+1, updated_at=NOW() WHERE id=$2`, s.t.Games)
	}
	if _, err := s.db.ExecContext(ctx, q, state, gameID); err != nil {
		return fmt.Errorf("update game state %s: %w", gameID, err)
	}
	return nil
}

// ListGames returns one page ordered by (created_at DESC, id DESC) plus the
// continuation token for the next page, empty when the listing is exhausted.
func (s *Store) ListGames(ctx context.Context, q GameQuery) ([]models.Game, string, error) {
	limit := ClampLimit(q.Limit)

	var (
		sqlq string
		args []interface{}
	)
	if q.PlayerID != "" {
		sqlq = fmt.Sprintf(`SELECT %s FROM %s g JOIN %s pg ON pg.game_id = g.id
			WHERE pg.player_id = $1`, prefixColumns("g", gameColumns), s.t.Games, s.t.PlayerGames)
		args = append(args, q.PlayerID)
		if q.Role == models.PlayerIndexCreator || q.Role == models.PlayerIndexJoiner {
			args = append(args, q.Role)
			sqlq += fmt.Sprintf(` AND pg.player_index = $%d`, len(args))
		}
	} else {
		sqlq = fmt.Sprintf(`SELECT %s FROM %s g WHERE TRUE`, prefixColumns("g", gameColumns), s.t.Games)
	}

	if q.Token != "" {
		cu, err := decodeCursor(q.Token)
		if err != nil {
			return nil, "", err
		}
		args = append(args, cu.CreatedAt, cu.ID)
		sqlq += fmt.Sprintf(` AND (g.created_at, g.id) < ($%d, $%d)`, len(args)-1, len(args))
	}

	args = append(args, limit+1)
	sqlq += fmt.Sprintf(` ORDER BY g.created_at DESC, g.id DESC LIMIT $%d`, len(args))

	var games []models.Game
	if err := s.db.SelectContext(ctx, &games, sqlq, args...); err != nil {
		return nil, "", fmt.Errorf("list games: %w", err)
	}

	var next string
	if len(games) > limit {
		games = games[:limit]
		last := games[len(games)-1]
		next = encodeCursor(cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return games, next, nil
}

// ListPlayersOfGame reads the game-keyed side of the player/game index.
func (s *Store) ListPlayersOfGame(ctx context.Context, gameID string) ([]models.PlayerGame, error) {
	var rows []models.PlayerGame
	q := fmt.Sprintf(`SELECT player_id, game_id, player_index, created_at FROM %s
		WHERE game_id=$1 ORDER BY player_index`, s.t.PlayerGames)
	if err := s.db.SelectContext(ctx, &rows, q, gameID); err != nil {
		return nil, fmt.Errorf("list players of game %s: %w", gameID, err)
	}
	return rows, nil
}
