package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dezobq/snapgram/internal/auth"
	"github.com/dezobq/snapgram/internal/session"
	"github.com/dezobq/snapgram/internal/utils"
)

// OptionalAuthMiddleware renseigne l'utilisateur quand un jeton valide est
// fourni et laisse passer la requête dans tous les cas.
func OptionalAuthMiddleware(tokens *auth.Tokens, sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.Next()
			return
		}

		if sess, err := sessions.Get(c.Request.Context(), claims.SessionID); err == nil {
			c.Set(utils.KeyUserID, claims.Subject)
			c.Set(utils.KeySessionID, claims.SessionID)
			c.Set(utils.KeySession, sess)
		}

		c.Next()
	}
}
