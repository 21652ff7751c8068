package user

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/post"
	"github.com/dezobq/snapgram/internal/query"
	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/utils"
)

// GetUserByUsername cherche un profil par son nom d'utilisateur exact.
func (r *Repo) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	const op = "getUserByUsername"

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errs.Validation(op, "username is required")
	}

	list, err := r.svc.Databases.ListDocuments(ctx, r.svc.UserCollection,
		remote.Equal("username", username),
		remote.Limit(1),
	)
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	if len(list.Documents) == 0 {
		return nil, errs.NotFound(op, errors.New("no user named "+username))
	}
	return decode(op, list.Documents[0])
}

// GetUserByUsername GET /api/users/username/:username
func (h *Handler) GetUserByUsername(c *gin.Context) {
	username := c.Param("username")

	u, err := query.Fetch(c.Request.Context(), h.queries, query.Key{query.GetUsers, "username", username},
		func(ctx context.Context) (*User, error) {
			return h.users.GetUserByUsername(ctx, username)
		})
	if err != nil {
		utils.RespondError(c, err, "Utilisateur non trouvé", map[string]interface{}{
			"username": username,
		})
		return
	}

	// On retourne uniquement les champs publics
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"$id":      u.ID,
			"name":     u.Name,
			"username": u.Username,
			"imageUrl": u.ImageURL,
			"bio":      u.Bio,
		},
		"is_me": u.ID != "" && c.GetString(utils.KeyUserID) == u.AccountID,
	})
	logs.LogJSON("INFO", "User fetched by username", map[string]interface{}{
		"route":    c.FullPath(),
		"userID":   utils.UserID(c),
		"username": username,
	})
}

// GetPostsByUsername GET /api/users/username/:username/posts
func (h *Handler) GetPostsByUsername(c *gin.Context) {
	username := c.Param("username")
	ctx := c.Request.Context()

	u, err := query.Fetch(ctx, h.queries, query.Key{query.GetUsers, "username", username},
		func(ctx context.Context) (*User, error) {
			return h.users.GetUserByUsername(ctx, username)
		})
	if err != nil {
		utils.RespondError(c, err, "Utilisateur introuvable", map[string]interface{}{
			"username": username,
		})
		return
	}

	posts, err := query.Fetch(ctx, h.queries, query.Key{query.GetUserPosts, u.ID},
		func(ctx context.Context) ([]*post.Post, error) {
			return h.posts.GetUserPosts(ctx, u.ID)
		})
	if err != nil {
		utils.RespondError(c, err, "Erreur de récupération des posts", map[string]interface{}{
			"username": username,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
