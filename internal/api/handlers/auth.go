package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hexclash/backend/internal/auth"
)

// Register runs the signup allowlist hook, creates the account, and
// returns a signed token.
func Register(authority *auth.Authority) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email       string `json:"email" binding:"required"`
			DisplayName string `json:"displayName"`
			Password    string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		u, token, err := authority.Register(c.Request.Context(), req.Email, req.DisplayName, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrNotInvited):
				c.JSON(http.StatusForbidden, gin.H{"error": auth.ErrNotInvited.Error()})
			case errors.Is(err, auth.ErrEmailTaken):
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			case errors.Is(err, auth.ErrInvalidCredentials):
				c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			default:
				respondError(c, err)
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
	}
}

// Login verifies credentials and returns a fresh token.
func Login(authority *auth.Authority) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		u, token, err := authority.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
	}
}
