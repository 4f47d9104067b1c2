package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hexclash/backend/internal/api"
	"github.com/hexclash/backend/internal/auth"
	"github.com/hexclash/backend/internal/config"
	"github.com/hexclash/backend/internal/database"
	"github.com/hexclash/backend/internal/game"
	"github.com/hexclash/backend/internal/migrations"
	"github.com/hexclash/backend/internal/redis"
	"github.com/hexclash/backend/internal/store"
	"github.com/hexclash/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis (verification cache + game event relay); optional
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable (%v) - token caching and the event relay are disabled", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Persistence layer
	st := store.New(db, store.Tables{
		Games:       cfg.GamesTable,
		PlayerGames: cfg.PlayerGamesTable,
		Scenarios:   cfg.ScenariosTable,
		Connections: cfg.ConnectionsTable,
		Users:       cfg.UsersTable,
	})

	// Background reaping of expired connection rows
	st.StartConnectionSweeper(context.Background(), time.Duration(cfg.ConnectionSweepMinutes)*time.Minute)

	// Identity layer
	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.AuthIssuer, cfg.AuthAudience, rdb)
	allowlist := auth.NewAllowlist(cfg.AllowedDomains, cfg.AllowedEmails)
	authority := auth.NewAuthority(st, allowlist, cfg.JWTSecret, cfg.AuthIssuer, cfg.AuthAudience)

	// Game service
	svc := game.NewService(st)

	// WebSocket layer
	if cfg.AllowUnauthenticatedWS {
		log.Println("[WS] WARNING: WS_ALLOW_UNAUTHENTICATED is set - connections are admitted without token proof")
	}
	wsHandler := ws.NewHandler(ws.HandlerOptions{
		Registry:             st,
		Games:                svc,
		States:               st,
		Verifier:             verifier,
		AllowUnauthenticated: cfg.AllowUnauthenticatedWS,
		ConnectionTTL:        time.Duration(cfg.ConnectionTTLHours) * time.Hour,
	})
	wsHandler.StartGameEventSubscriber(context.Background(), rdb, cfg.GameEventsChannel)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	api.SetupRoutes(router, api.Deps{
		Config:    cfg,
		Games:     svc,
		Verifier:  verifier,
		Authority: authority,
		WS:        wsHandler,
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting Hexclash server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
