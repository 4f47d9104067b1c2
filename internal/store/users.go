package store

import (
	"context"
	"fmt"

	"github.com/hexclash/backend/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, email, display_name, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5)`, s.t.Users)
	if _, err := s.db.ExecContext(ctx, q, u.ID, u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	q := fmt.Sprintf(`SELECT id, email, display_name, password_hash, created_at FROM %s WHERE email=$1`, s.t.Users)
	if err := s.db.GetContext(ctx, &u, q, email); err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}
