package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"wolontariat/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID      = "userID"
	ContextDisplayName = "displayName"
	ContextRole        = "role"
)

// AuthMiddleware verifies the JWT and puts the caller's identity in the context.
// Browsers cannot set headers on websocket upgrades, so a "token" query
// parameter is accepted as a fallback.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid Authorization token format"})
				return
			}
			token = parts[1]
		} else {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization token"})
			return
		}

		claims, err := utils.ParseJWTToken(secret, token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, utils.ErrTokenExpired) {
				msg = "Token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextDisplayName, claims.DisplayName)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// SelfOnly rejects requests whose path parameter does not name the caller
func SelfOnly(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param(param) != c.GetString(ContextUserID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You can only access your own data"})
			return
		}
		c.Next()
	}
}
