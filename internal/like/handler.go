package like

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
	likes   *Repo
	posts   *post.Repo
	queries *query.Client
	me      post.CurrentUserID
}

func NewHandler(likes *Repo, posts *post.Repo, queries *query.Client, me post.CurrentUserID) *Handler {
	return &Handler{likes: likes, posts: posts, queries: queries, me: me}
}

// LikePost PUT /api/posts/:id/likes
func (h *Handler) LikePost(c *gin.Context) {
	postID := c.Param("id")

	var input struct {
		Likes []string `json:"likes"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	_, sid := utils.Session(c)
	updated, err := query.Mutate(c.Request.Context(), h.queries, func(ctx context.Context) (*post.Post, error) {
		return h.likes.LikePost(ctx, postID, input.Likes)
	},
		query.Key{query.GetPostByID, postID},
		query.Key{query.GetRecentPosts},
		query.Key{query.GetInfinitePosts},
		query.Key{query.GetCurrentUser, sid},
	)
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de la mise à jour des likes", map[string]interface{}{
			"postID": postID,
		})
		return
	}

	logs.LogJSON("INFO", "Likes updated", map[string]interface{}{
		"route":  c.FullPath(),
		"userID": utils.UserID(c),
		"postID": postID,
		"count":  len(updated.Likes),
	})
	c.JSON(http.StatusOK, h.status(c, postID, updated.Likes))
}

// GetLikeStatus GET /api/posts/:id/likes
func (h *Handler) GetLikeStatus(c *gin.Context) {
	postID := c.Param("id")

	p, err := query.Fetch(c.Request.Context(), h.queries, query.Key{query.GetPostByID, postID},
		func(ctx context.Context) (*post.Post, error) {
			return h.posts.GetPostByID(ctx, postID)
		})
	if err != nil {
		utils.RespondError(c, err, "Post non trouvé", map[string]interface{}{
			"postID": postID,
		})
		return
	}

	c.JSON(http.StatusOK, h.status(c, postID, p.Likes))
}

// status calcule is_liked pour le profil courant ; anonyme si inconnu.
func (h *Handler) status(c *gin.Context, postID string, likes []string) Status {
	me := ""
	if utils.UserID(c) != "" {
		if id, err := h.me(c); err == nil {
			me = id
		}
	}
	return NewStatus(postID, me, likes)
}
