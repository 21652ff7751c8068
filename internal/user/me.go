package user

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dezobq/snapgram/internal/query"
	"github.com/dezobq/snapgram/internal/utils"
)

// GetMe GET /api/me
func (h *Handler) GetMe(c *gin.Context) {
	me, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": me})
}

// CurrentUser résout le profil de la session courante, via le cache.
func (h *Handler) CurrentUser(c *gin.Context) (*User, error) {
	sess, sid := utils.Session(c)
	return query.Fetch(c.Request.Context(), h.queries, query.Key{query.GetCurrentUser, sid},
		func(ctx context.Context) (*User, error) {
			return h.users.GetCurrentUser(ctx, sess)
		})
}

// CurrentUserID renvoie l'id du profil de la session courante.
func (h *Handler) CurrentUserID(c *gin.Context) (string, error) {
	me, err := h.CurrentUser(c)
	if err != nil {
		return "", err
	}
	return me.ID, nil
}

func (h *Handler) currentUser(c *gin.Context) (*User, bool) {
	me, err := h.CurrentUser(c)
	if err != nil {
		utils.RespondError(c, err, "Utilisateur non trouvé", nil)
		return nil, false
	}
	return me, true
}
