package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hexclash/backend/internal/auth"
	"github.com/hexclash/backend/internal/game"
	"github.com/hexclash/backend/internal/models"
)

type scenarioRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Columns     int             `json:"columns" binding:"required"`
	Rows        int             `json:"rows" binding:"required"`
	TurnCount   int             `json:"turnCount" binding:"required"`
	Hexes       json.RawMessage `json:"hexes"`
}

// CreateScenario stores a new board definition owned by the caller.
func CreateScenario(svc *game.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scenarioRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title, columns, rows, and turnCount are required"})
			return
		}

		id := auth.IdentityFrom(c)
		sc, err := svc.CreateScenario(c.Request.Context(), id.UserID, &models.Scenario{
			Title:       req.Title,
			Description: req.Description,
			Columns:     req.Columns,
			Rows:        req.Rows,
			TurnCount:   req.TurnCount,
			Hexes:       req.Hexes,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"scenarioId": sc.ID, "scenario": sc.View()})
	}
}

// GetScenario reads one scenario.
func GetScenario(svc *game.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, err := svc.GetScenario(c.Request.Context(), c.Param("scenarioId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"scenario": sc.View()})
	}
}

// UpdateScenario applies creator-only edits.
func UpdateScenario(svc *game.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scenarioRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title, columns, rows, and turnCount are required"})
			return
		}

		id := auth.IdentityFrom(c)
		sc, err := svc.UpdateScenario(c.Request.Context(), id.UserID, &models.Scenario{
			ID:          c.Param("scenarioId"),
			Title:       req.Title,
			Description: req.Description,
			Columns:     req.Columns,
			Rows:        req.Rows,
			TurnCount:   req.TurnCount,
			Hexes:       req.Hexes,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"scenario": sc.View()})
	}
}

// DeleteScenario removes a scenario; creator only.
func DeleteScenario(svc *game.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := auth.IdentityFrom(c)
		if err := svc.DeleteScenario(c.Request.Context(), id.UserID, c.Param("scenarioId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Scenario deleted"})
	}
}

// ListScenarios pages through all scenarios, newest first.
func ListScenarios(svc *game.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, token := listParams(c)
		scenarios, next, err := svc.ListScenarios(c.Request.Context(), limit, token)
		if err != nil {
			respondError(c, err)
			return
		}

		views := make([]models.ScenarioView, 0, len(scenarios))
		for i := range scenarios {
			views = append(views, scenarios[i].View())
		}
		c.JSON(http.StatusOK, gin.H{
			"scenarios": views,
			"count":     len(views),
			"hasMore":   next != "",
			"nextToken": next,
		})
	}
}
