// Package store is the persistence layer: games, scenarios, the
// player/game index, the live connection registry, and user accounts.
// All cross-handler coordination goes through these tables; handlers
// rehydrate from the store on every invocation and never share memory.
package store

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

// Tables carries the configured table names so the same artifact can run
// against any environment by varying configuration only.
type Tables struct {
	Games       string
	PlayerGames string
	Scenarios   string
	Connections string
	Users       string
}

// DefaultTables returns the table names used by the migrations.
func DefaultTables() Tables {
	return Tables{
		Games:       "games",
		PlayerGames: "player_games",
		Scenarios:   "scenarios",
		Connections: "connections",
		Users:       "users",
	}
}

// Store wraps the database with typed accessors.
type Store struct {
	db *sqlx.DB
	t  Tables
}

func New(db *sqlx.DB, t Tables) *Store {
	if t.Games == "" {
		t = DefaultTables()
	}
	return &Store{db: db, t: t}
}

// prefixColumns qualifies each column in a comma-separated list with a
// table alias, for queries that join.
func prefixColumns(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
