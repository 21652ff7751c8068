package save

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/post"
	"github.com/dezobq/snapgram/internal/query"
	"github.com/dezobq/snapgram/internal/utils"
)

type Handler struct {
	saves   *Repo
	queries *query.Client
	me      post.CurrentUserID
}

func NewHandler(saves *Repo, queries *query.Client, me post.CurrentUserID) *Handler {
	return &Handler{saves: saves, queries: queries, me: me}
}

// invalidates liste les clés touchées par un enregistrement. Seule l'entrée
// utilisateur courant de la session appelante est concernée.
func invalidates(c *gin.Context) []query.Key {
	_, sid := utils.Session(c)
	return []query.Key{
		{query.GetRecentPosts},
		{query.GetInfinitePosts},
		{query.GetCurrentUser, sid},
		{query.GetSavedPosts},
	}
}

// SavePost POST /api/posts/:id/save
func (h *Handler) SavePost(c *gin.Context) {
	postID := c.Param("id")

	userID, err := h.me(c)
	if err != nil {
		utils.RespondError(c, err, "Utilisateur non trouvé", nil)
		return
	}

	s, err := query.Mutate(c.Request.Context(), h.queries, func(ctx context.Context) (*Save, error) {
		return h.saves.SavePost(ctx, userID, postID)
	}, invalidates(c)...)
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de l'enregistrement du post", map[string]interface{}{
			"postID": postID,
		})
		return
	}

	logs.LogJSON("INFO", "Post saved", map[string]interface{}{
		"route":  c.FullPath(),
		"userID": utils.UserID(c),
		"postID": postID,
	})
	c.JSON(http.StatusCreated, gin.H{"save": s})
}

// DeleteSavedPost DELETE /api/saves/:id
func (h *Handler) DeleteSavedPost(c *gin.Context) {
	saveID := c.Param("id")

	userID, err := h.me(c)
	if err != nil {
		utils.RespondError(c, err, "Utilisateur non trouvé", nil)
		return
	}
	existing, err := h.saves.GetSave(c.Request.Context(), saveID)
	if err != nil {
		utils.RespondError(c, err, "Enregistrement non trouvé", map[string]interface{}{
			"saveID": saveID,
		})
		return
	}
	if existing.User.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Enregistrement d'un autre utilisateur"})
		return
	}

	_, err = query.Mutate(c.Request.Context(), h.queries, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.saves.DeleteSavedPost(ctx, saveID)
	}, invalidates(c)...)
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de la suppression de l'enregistrement", map[string]interface{}{
			"saveID": saveID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Enregistrement supprimé"})
}
