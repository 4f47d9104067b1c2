package api

import (
	"github.com/gin-gonic/gin"

	"github.com/hexclash/backend/internal/api/handlers"
	"github.com/hexclash/backend/internal/auth"
	"github.com/hexclash/backend/internal/config"
	"github.com/hexclash/backend/internal/game"
	"github.com/hexclash/backend/internal/middleware"
	"github.com/hexclash/backend/internal/models"
	"github.com/hexclash/backend/internal/ws"
)

// Deps carries everything the routes need.
type Deps struct {
	Config    *config.Config
	Games     *game.Service
	Verifier  *auth.Verifier
	Authority *auth.Authority
	WS        *ws.Handler
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	router.Use(middleware.CORSMiddleware(d.Config))

	// Unauthenticated: health, docs, token authority
	router.GET("/health", handlers.HealthCheck)
	router.GET("/docs", handlers.Docs)
	router.GET("/docs/openapi.yaml", handlers.OpenAPISpec)
	router.POST("/auth/register", handlers.Register(d.Authority))
	router.POST("/auth/login", handlers.Login(d.Authority))

	// WebSocket admission does its own token check (the token rides a
	// query parameter, not the Authorization header).
	router.GET("/ws", handlers.HandleGameWebSocket(d.WS))

	// Everything below requires a verified bearer token.
	authed := router.Group("/", auth.Middleware(d.Verifier))

	authed.GET("/test", handlers.TestIdentity)

	games := authed.Group("/games")
	{
		games.POST("", handlers.CreateGame(d.Games))
		games.GET("", handlers.ListGames(d.Games))
		games.GET("/my", handlers.ListMyGames(d.Games, 0))
		games.GET("/my/player1", handlers.ListMyGames(d.Games, models.PlayerIndexCreator))
		games.GET("/my/player2", handlers.ListMyGames(d.Games, models.PlayerIndexJoiner))
		games.GET("/players/:playerId", handlers.ListPlayerGames(d.Games, 0))
		games.GET("/player1/:playerId", handlers.ListPlayerGames(d.Games, models.PlayerIndexCreator))
		games.GET("/player2/:playerId", handlers.ListPlayerGames(d.Games, models.PlayerIndexJoiner))
		games.GET("/:gameId", handlers.GetGame(d.Games))
		games.POST("/:gameId/join", handlers.JoinGame(d.Games))
		games.DELETE("/:gameId", handlers.DeleteGame(d.Games))
	}

	scenarios := authed.Group("/scenarios")
	{
		scenarios.POST("", handlers.CreateScenario(d.Games))
		scenarios.GET("", handlers.ListScenarios(d.Games))
		scenarios.GET("/:scenarioId", handlers.GetScenario(d.Games))
		scenarios.PUT("/:scenarioId", handlers.UpdateScenario(d.Games))
		scenarios.DELETE("/:scenarioId", handlers.DeleteScenario(d.Games))
	}
}
