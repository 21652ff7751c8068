package user

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/post"
	"github.com/dezobq/snapgram/internal/query"
	"github.com/dezobq/snapgram/internal/save"
	"github.com/dezobq/snapgram/internal/utils"
)

type Handler struct {
	users   *Repo
	posts   *post.Repo
	saves   *save.Repo
	queries *query.Client
}

func NewHandler(users *Repo, posts *post.Repo, saves *save.Repo, queries *query.Client) *Handler {
	return &Handler{users: users, posts: posts, saves: saves, queries: queries}
}

// GetUsers GET /api/users?limit=
func (h *Handler) GetUsers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultUsersLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre limit invalide"})
		return
	}
	limit = min(limit, MaxUsersLimit)

	users, err := query.Fetch(c.Request.Context(), h.queries, query.Key{query.GetUsers, strconv.Itoa(limit)},
		func(ctx context.Context) ([]*User, error) {
			return h.users.GetUsers(ctx, limit)
		})
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de la récupération des utilisateurs", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser GET /api/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	id := c.Param("id")

	u, err := query.Fetch(c.Request.Context(), h.queries, query.Key{query.GetUserByID, id},
		func(ctx context.Context) (*User, error) {
			return h.users.GetUserByID(ctx, id)
		})
	if err != nil {
		utils.RespondError(c, err, "Utilisateur non trouvé", map[string]interface{}{
			"extra": fmt.Sprintf("User not found : %s", id),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u})
	logs.LogJSON("INFO", "User fetched successfully", map[string]interface{}{
		"route":  c.FullPath(),
		"userID": utils.UserID(c),
		"extra":  fmt.Sprintf("User fetched successfully : %s", id),
	})
}

// GetUserPosts GET /api/users/:id/posts
func (h *Handler) GetUserPosts(c *gin.Context) {
	id := c.Param("id")

	posts, err := query.Fetch(c.Request.Context(), h.queries, query.Key{query.GetUserPosts, id},
		func(ctx context.Context) ([]*post.Post, error) {
			return h.posts.GetUserPosts(ctx, id)
		})
	if err != nil {
		utils.RespondError(c, err, "Erreur de récupération des posts", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetSavedPosts GET /api/users/:id/saves
func (h *Handler) GetSavedPosts(c *gin.Context) {
	id := c.Param("id")

	me, ok := h.currentUser(c)
	if !ok {
		return
	}
	if me.ID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé au propriétaire"})
		logs.LogJSON("WARN", "Saved posts requested for another user", map[string]interface{}{
			"route":  c.FullPath(),
			"userID": utils.UserID(c),
			"extra":  id,
		})
		return
	}

	saved, err := query.Fetch(c.Request.Context(), h.queries, query.Key{query.GetSavedPosts, id},
		func(ctx context.Context) ([]save.SavedPost, error) {
			return h.saves.GetSavedPosts(ctx, id)
		})
	if err != nil {
		utils.RespondError(c, err, "Erreur de récupération des posts enregistrés", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saves": saved})
}
