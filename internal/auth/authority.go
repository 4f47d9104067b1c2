package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hexclash/backend/internal/models"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const tokenLifetime = 24 * time.Hour

// Users is the account persistence the authority needs. *store.Store
// implements it; GetUserByEmail reports absence as sql.ErrNoRows.
type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Authority creates accounts and issues the HS256 tokens the Verifier
// accepts. It stands in for the external identity provider in deployments
// that have not federated one.
type Authority struct {
	store     Users
	allowlist *Allowlist
	secret    []byte
	issuer    string
	audience  string
}

func NewAuthority(s Users, allowlist *Allowlist, secret, issuer, audience string) *Authority {
	return &Authority{store: s, allowlist: allowlist, secret: []byte(secret), issuer: issuer, audience: audience}
}

// Register runs the pre-account-creation allowlist hook, creates the user,
// and returns a signed token.
func (a *Authority) Register(ctx context.Context, email, displayName, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}
	if err := a.allowlist.Check(email); err != nil {
		return nil, "", err
	}

	if _, err := a.store.GetUserByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.CreateUser(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := a.issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies the password and returns a fresh token.
func (a *Authority) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := a.issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (a *Authority) issue(u *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"name":  u.DisplayName,
		"iss":   a.issuer,
		"aud":   a.audience,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
