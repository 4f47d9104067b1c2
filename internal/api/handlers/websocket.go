package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/hexclash/backend/internal/ws"
)

// HandleGameWebSocket handles real-time game communication
func HandleGameWebSocket(h *ws.Handler) gin.HandlerFunc {
	return h.HandleWebSocket
}
