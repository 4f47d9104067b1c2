package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Table names (same artifact runs against any environment)
	GamesTable       string
	PlayerGamesTable string
	ScenariosTable   string
	ConnectionsTable string
	UsersTable       string

	// Identity provider
	AuthIssuer   string // user-pool id
	AuthAudience string // client id
	JWTSecret    string

	// WebSocket
	AllowUnauthenticatedWS bool // reduced-assurance admission, explicit opt-in
	GameEventsChannel      string
	ConnectionTTLHours     int
	ConnectionSweepMinutes int

	// Signup allowlist
	AllowedDomains string
	AllowedEmails  string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/hexclash?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Tables
		GamesTable:       getEnv("GAMES_TABLE", "games"),
		PlayerGamesTable: getEnv("PLAYER_GAMES_TABLE", "player_games"),
		ScenariosTable:   getEnv("SCENARIOS_TABLE", "scenarios"),
		ConnectionsTable: getEnv("CONNECTIONS_TABLE", "connections"),
		UsersTable:       getEnv("USERS_TABLE", "users"),

		// Identity provider
		AuthIssuer:   getEnv("AUTH_USER_POOL_ID", "hexclash-local"),
		AuthAudience: getEnv("AUTH_CLIENT_ID", "hexclash-web"),
		JWTSecret:    getEnv("JWT_SECRET", "change-me-in-production"),

		// WebSocket
		AllowUnauthenticatedWS: getEnvBool("WS_ALLOW_UNAUTHENTICATED", false),
		GameEventsChannel:      getEnv("GAME_EVENTS_CHANNEL", "game_events"),
		ConnectionTTLHours:     getEnvInt("CONNECTION_TTL_HOURS", 24),
		ConnectionSweepMinutes: getEnvInt("CONNECTION_SWEEP_MINUTES", 10),

		// Signup allowlist
		AllowedDomains: getEnv("ALLOWED_DOMAINS", ""),
		AllowedEmails:  getEnv("ALLOWED_EMAILS", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
