package store

import (
	"context"
	"fmt"

	"github.com/hexclash/backend/internal/models"
)

const scenarioColumns = `id, title, description, board_columns, board_rows, turn_count,
	hexes, creator_id, created_at, updated_at`

func (s *Store) CreateScenario(ctx context.Context, sc *models.Scenario) error {
	q := fmt.Sprintf(`INSERT INTO %s
		(id, title, description, board_columns, board_rows, turn_count, hexes, creator_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`, s.t.Scenarios)
	if _, err := s.db.ExecContext(ctx, q,
		sc.ID, sc.Title, sc.Description, sc.Columns, sc.Rows, sc.TurnCount,
		sc.Hexes, sc.CreatorID, sc.CreatedAt, sc.UpdatedAt); err != nil {
		return fmt.Errorf("insert scenario: %w", err)
	}
	return nil
}

func (s *Store) GetScenario(ctx context.Context, scenarioID string) (*models.Scenario, error) {
	var sc models.Scenario
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id=$1`, scenarioColumns, s.t.Scenarios)
	if err := s.db.GetContext(ctx, &sc, q, scenarioID); err != nil {
		return nil, fmt.Errorf("get scenario %s: %w", scenarioID, err)
	}
	return &sc, nil
}

func (s *Store) UpdateScenario(ctx context.Context, sc *models.Scenario) error {
	q := fmt.Sprintf(`UPDATE %s SET title=$1, description=$2, board_columns=$3, board_rows=$4,
		turn_count=$5, hexes=$6, updated_at=NOW() WHERE id=$7`, s.t.Scenarios)
	if _, err := s.db.ExecContext(ctx, q,
		sc.Title, sc.Description, sc.Columns, sc.Rows, sc.TurnCount, sc.Hexes, sc.ID); err != nil {
		return fmt.Errorf("update scenario %s: %w", sc.ID, err)
	}
	return nil
}

func (s *Store) DeleteScenario(ctx context.Context, scenarioID string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, s.t.Scenarios)
	if _, err := s.db.ExecContext(ctx, q, scenarioID); err != nil {
		return fmt.Errorf("delete scenario %s: %w", scenarioID, err)
	}
	return nil
}

// ListScenarios pages through all scenarios ordered by createdAt descending,
// served from the (created_at, id) index rather than a blind scan.
func (s *Store) ListScenarios(ctx context.Context, limit int, token string) ([]models.Scenario, string, error) {
	limit = ClampLimit(limit)

	sqlq := fmt.Sprintf(`SELECT %s FROM %s WHERE TRUE`, scenarioColumns, s.t.Scenarios)
	var args []interface{}
	if token != "" {
		cu, err := decodeCursor(token)
		if err != nil {
			return nil, "", err
		}
		args = append(args, cu.CreatedAt, cu.ID)
		sqlq += fmt.Sprintf(` AND (created_at, id) < ($%d, $%d)`, len(args)-1, len(args))
	}
	args = append(args, limit+1)
	sqlq += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	var scenarios []models.Scenario
	if err := s.db.SelectContext(ctx, &scenarios, sqlq, args...); err != nil {
		return nil, "", fmt.Errorf("list scenarios: %w", err)
	}

	var next string
	if len(scenarios) > limit {
		scenarios = scenarios[:limit]
		last := scenarios[len(scenarios)-1]
		next = encodeCursor(cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return scenarios, next, nil
}
