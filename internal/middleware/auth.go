package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dezobq/snapgram/internal/auth"
	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/session"
	"github.com/dezobq/snapgram/internal/utils"
)

func AuthMiddleware(tokens *auth.Tokens, sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token requis"})
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		}

		sess, err := sessions.Get(c.Request.Context(), claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expirée"})
			logs.LogJSON("WARN", "Session lookup failed", map[string]interface{}{
				"route":  c.FullPath(),
				"userID": claims.Subject,
				"error":  err.Error(),
			})
			return
		}

		c.Set(utils.KeyUserID, claims.Subject)
		c.Set(utils.KeySessionID, claims.SessionID)
		c.Set(utils.KeySession, sess)
		c.Next()
	}
}
