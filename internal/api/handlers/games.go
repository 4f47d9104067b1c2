package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hexclash/backend/internal/auth"
	"github.com/hexclash/backend/internal/game"
	"github.com/hexclash/backend/internal/models"
	"github.com/hexclash/backend/internal/store"
)

// CreateGame creates a waiting game owned by the authenticated user.
func CreateGame(svc *game.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerName string `json:"playerName"`
			ScenarioID string `json:"scenarioId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scenarioId is required"})
			return
		}

		id := auth.IdentityFrom(c)
		name := req.PlayerName
		if name == "" {
			name = id.DisplayName
		}

		g, err := svc.CreateGame(c.Request.Context(), id.UserID, name, req.ScenarioID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"gameId": g.ID, "game": g.View()})
	}
}

// GetGame reads one game. Visibility is public within authenticated users.
func GetGame(svc *game.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, err := svc.GetGame(c.Request.Context(), c.Param("gameId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"game": g.View()})
	}
}

// JoinGame admits the authenticated user as player2.
func JoinGame(svc *game.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerName string `json:"playerName"`
		}
		c.ShouldBindJSON(&req) // body optional

		id := auth.IdentityFrom(c)
		name := req.PlayerName
		if name == "" {
			name = id.DisplayName
		}

		g, err := svc.JoinGame(c.Request.Context(), id.UserID, name, c.Param("gameId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"game": g.View(), "message": "Game is now active!"})
	}
}

// DeleteGame destroys a game; creator only.
func DeleteGame(svc *game.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := auth.IdentityFrom(c)
		if err := svc.DeleteGame(c.Request.Context(), id.UserID, c.Param("gameId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
	}
}

// ListGames returns a paginated unfiltered listing.
func ListGames(svc *game.Service) gin.HandlerFunc {
	return listGamesWith(svc, func(c *gin.Context) (string, int) { return "", 0 })
}

// ListMyGames lists the authenticated user's games; role 0 means either
// player index.
func ListMyGames(svc *game.Service, role int) gin.HandlerFunc {
	return listGamesWith(svc, func(c *gin.Context) (string, int) {
		return auth.IdentityFrom(c).UserID, role
	})
}

// ListPlayerGames lists an arbitrary player's games by path parameter.
func ListPlayerGames(svc *game.Service, role int) gin.HandlerFunc {
	return listGamesWith(svc, func(c *gin.Context) (string, int) {
		return c.Param("playerId"), role
	})
}

func listGamesWith(svc *game.Service, selector func(*gin.Context) (string, int)) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, token := listParams(c)
		playerID, role := selector(c)

		games, next, err := svc.ListGames(c.Request.Context(), store.GameQuery{
			PlayerID: playerID,
			Role:     role,
			Limit:    limit,
			Token:    token,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		views := make([]models.GameView, 0, len(games))
		for i := range games {
			views = append(views, games[i].View())
		}
		c.JSON(http.StatusOK, gin.H{
			"games":     views,
			"count":     len(views),
			"hasMore":   next != "",
			"nextToken": next,
		})
	}
}
