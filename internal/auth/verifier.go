// Package auth is the identity layer: bearer-token verification, the
// signup allowlist, and a token authority that issues the JWTs the rest of
// the system trusts. The immutable subject claim is the single source of
// truth for user identity everywhere; no handler accepts a userId from a
// request body for authorisation.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
)

// Verification failure kinds. Handlers map all of them to 401.
var (
	ErrTokenMissing = errors.New("missing bearer token")
	ErrTokenInvalid = errors.New("invalid bearer token")
)

// Identity is the verified claim set of a bearer token.
type Identity struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Verifier checks bearer tokens against the configured issuer (user-pool
// id) and audience (client id). Verified identities may be cached in Redis
// for the token's remaining lifetime.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	cache    *redis.Client
}

func NewVerifier(secret, issuer, audience string, cache *redis.Client) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, audience: audience, cache: cache}
}

// Verify validates signature, expiry, issuer, and audience, and returns the
// identity carried by the token.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	if id := v.cached(ctx, tokenString); id != nil {
		return id, nil
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: wrong issuer", ErrTokenInvalid)
	}
	if !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("%w: wrong audience", ErrTokenInvalid)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	id := &Identity{UserID: sub, Email: email, DisplayName: name}
	v.store(ctx, tokenString, id, claims)
	return id, nil
}

func cacheKey(tokenString string) string {
	h := sha256.Sum256([]byte(tokenString))
	return "tokencache:" + hex.EncodeToString(h[:])
}

func (v *Verifier) cached(ctx context.Context, tokenString string) *Identity {
	if v.cache == nil {
		return nil
	}
	val, err := v.cache.Get(ctx, cacheKey(tokenString)).Result()
	if err != nil {
		return nil
	}
	var id Identity
	if err := json.Unmarshal([]byte(val), &id); err != nil {
		return nil
	}
	return &id
}

func (v *Verifier) store(ctx context.Context, tokenString string, id *Identity, claims jwt.MapClaims) {
	if v.cache == nil {
		return
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return
	}
	ttl := time.Until(time.Unix(int64(exp), 0))
	if ttl <= 0 {
		return
	}
	b, _ := json.Marshal(id)
	if err := v.cache.Set(ctx, cacheKey(tokenString), b, ttl).Err(); err != nil {
		log.Printf("[AUTH] token cache write failed: %v", err)
	}
}
