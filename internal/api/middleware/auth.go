// Package middleware provides HTTP middleware for the DNSProxy management
// API: API key authentication and structured request logging.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dnsproxy/internal/api/models"
)

// RequireAPIKey enforces a shared-secret API key sent as X-API-Key.
func RequireAPIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-API-Key")
		if expected == "" || got == expected {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
	}
}
