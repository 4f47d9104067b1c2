package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Listing limits are clamped to [1,100] with a default of 100.
const (
	MaxPageSize     = 100
	DefaultPageSize = 100
)

// cursor is the keyset position behind an opaque continuation token.
// Listings order by (created_at DESC, id DESC); the cursor names the last
// row the previous page returned.
type cursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"id"`
}

func encodeCursor(cu cursor) string {
	b, _ := json.Marshal(cu)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(token string) (cursor, error) {
	var cu cursor
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return cu, fmt.Errorf("invalid continuation token: %w", err)
	}
	if err := json.Unmarshal(b, &cu); err != nil {
		return cu, fmt.Errorf("invalid continuation token: %w", err)
	}
	return cu, nil
}

// ClampLimit normalizes a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
