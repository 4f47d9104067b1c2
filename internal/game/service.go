// Package game implements the game and scenario resource operations:
// creation, joining, ownership-checked mutation, and paginated listing by
// player role. It routes and stores; it does not judge move legality.
package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hexclash/backend/internal/models"
	"github.com/hexclash/backend/internal/store"
)

// Store is the persistence surface the service needs. *store.Store
// implements it.
type Store interface {
	CreateGame(ctx context.Context, g *models.Game) error
	GetGame(ctx context.Context, gameID string) (*models.Game, error)
	JoinGame(ctx context.Context, gameID, userID, displayName string) (bool, error)
	DeleteGame(ctx context.Context, gameID string) error
	ListGames(ctx context.Context, q store.GameQuery) ([]models.Game, string, error)

	CreateScenario(ctx context.Context, sc *models.Scenario) error
	GetScenario(ctx context.Context, scenarioID string) (*models.Scenario, error)
	UpdateScenario(ctx context.Context, sc *models.Scenario) error
	DeleteScenario(ctx context.Context, scenarioID string) error
	ListScenarios(ctx context.Context, limit int, token string) ([]models.Scenario, string, error)
}

type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

// CreateGame creates a waiting game owned by userID. The scenario is
// snapshotted into the game row at creation and never mutated afterwards.
func (s *Service) CreateGame(ctx context.Context, userID, displayName, scenarioID string) (*models.Game, error) {
	if displayName == "" {
		displayName = "Player 1"
	}

	sc, err := s.store.GetScenario(ctx, scenarioID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("scenario %s: %w", scenarioID, ErrNotFound)
		}
		return nil, err
	}

	snapshot, err := json.Marshal(sc.View())
	if err != nil {
		return nil, fmt.Errorf("snapshot scenario: %w", err)
	}

	now := time.Now().UTC()
	g := &models.Game{
		ID:               uuid.NewString(),
		Status:           models.GameWaiting,
		Player1Name:      displayName,
		Player1ID:        userID,
		TurnNumber:       1,
		ScenarioID:       sc.ID,
		ScenarioSnapshot: snapshot,
		GameState:        json.RawMessage(`{}`),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateGame(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// JoinGame fills the player2 slot. Exactly one of two concurrent joiners
// succeeds; the loser, a second joiner, and the creator all get ErrConflict.
func (s *Service) JoinGame(ctx context.Context, userID, displayName, gameID string) (*models.Game, error) {
	if displayName == "" {
		displayName = "Player 2"
	}

	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Player1ID == userID {
		return nil, fmt.Errorf("creator cannot join own game: %w", ErrConflict)
	}
	if g.Player2ID.Valid {
		return nil, fmt.Errorf("game already has two players: %w", ErrConflict)
	}

	joined, err := s.store.JoinGame(ctx, gameID, userID, displayName)
	if err != nil {
		return nil, err
	}
	if !joined {
		// Lost the conditional update race.
		return nil, fmt.Errorf("game already has two players: %w", ErrConflict)
	}

	return s.GetGame(ctx, gameID)
}

// GetGame is visible to any authenticated user; there is no access check.
func (s *Service) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		return nil, err
	}
	return g, nil
}

// DeleteGame destroys a game. Only the creator may do so; the store sweeps
// the PlayerGame rows in the same transaction.
func (s *Service) DeleteGame(ctx context.Context, userID, gameID string) error {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if g.Player1ID != userID {
		return fmt.Errorf("only the creator may delete a game: %w", ErrForbidden)
	}
	return s.store.DeleteGame(ctx, gameID)
}

// ListGames returns one page of games, optionally filtered by a player and
// the role that player holds.
func (s *Service) ListGames(ctx context.Context, q store.GameQuery) ([]models.Game, string, error) {
	q.Limit = store.ClampLimit(q.Limit)
	return s.store.ListGames(ctx, q)
}

// CreateScenario stores a new board definition owned by userID.
func (s *Service) CreateScenario(ctx context.Context, userID string, sc *models.Scenario) (*models.Scenario, error) {
	now := time.Now().UTC()
	sc.ID = uuid.NewString()
	sc.CreatorID = userID
	sc.CreatedAt = now
	sc.UpdatedAt = now
	if sc.Hexes == nil {
		sc.Hexes = json.RawMessage(`[]`)
	}
	if err := s.store.CreateScenario(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Service) GetScenario(ctx context.Context, scenarioID string) (*models.Scenario, error) {
	sc, err := s.store.GetScenario(ctx, scenarioID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("scenario %s: %w", scenarioID, ErrNotFound)
		}
		return nil, err
	}
	return sc, nil
}

// UpdateScenario applies creator-only edits to a scenario.
func (s *Service) UpdateScenario(ctx context.Context, userID string, sc *models.Scenario) (*models.Scenario, error) {
	existing, err := s.GetScenario(ctx, sc.ID)
	if err != nil {
		return nil, err
	}
	if existing.CreatorID != userID {
		return nil, fmt.Errorf("only the creator may edit a scenario: %w", ErrForbidden)
	}
	if sc.Hexes == nil {
		sc.Hexes = existing.Hexes
	}
	if err := s.store.UpdateScenario(ctx, sc); err != nil {
		return nil, err
	}
	return s.GetScenario(ctx, sc.ID)
}

// DeleteScenario removes a scenario, creator only.
func (s *Service) DeleteScenario(ctx context.Context, userID, scenarioID string) error {
	existing, err := s.GetScenario(ctx, scenarioID)
	if err != nil {
		return err
	}
	if existing.CreatorID != userID {
		return fmt.Errorf("only the creator may delete a scenario: %w", ErrForbidden)
	}
	return s.store.DeleteScenario(ctx, scenarioID)
}

// ListScenarios pages through all scenarios, newest first.
func (s *Service) ListScenarios(ctx context.Context, limit int, token string) ([]models.Scenario, string, error) {
	return s.store.ListScenarios(ctx, store.ClampLimit(limit), token)
}
