package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hexclash/backend/internal/auth"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "hexclash-api",
		"version": version,
		"uptime":  time.Since(startTime).String(),
	})
}

// TestIdentity echoes the verified identity back; a liveness check that
// also exercises the token path end to end.
func TestIdentity(c *gin.Context) {
	id := auth.IdentityFrom(c)
	c.JSON(http.StatusOK, gin.H{"user": id})
}
