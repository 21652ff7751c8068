package post

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/query"
	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/utils"
)

// CurrentUserID résout l'id du profil de l'utilisateur authentifié.
type CurrentUserID func(c *gin.Context) (string, error)

type Handler struct {
	posts   *Repo
	queries *query.Client
	me      CurrentUserID
}

func NewHandler(posts *Repo, queries *query.Client, me CurrentUserID) *Handler {
	return &Handler{posts: posts, queries: queries, me: me}
}

var validExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".webp": true, ".heic": true, ".svg": true,
}

// GetRecentPosts GET /api/posts/recent
func (h *Handler) GetRecentPosts(c *gin.Context) {
	posts, err := query.Fetch(c.Request.Context(), h.queries, query.Key{query.GetRecentPosts},
		func(ctx context.Context) ([]*Post, error) {
			return h.posts.GetRecentPosts(ctx)
		})
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de la récupération des posts", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetInfinitePosts GET /api/posts?cursor=
func (h *Handler) GetInfinitePosts(c *gin.Context) {
	page, err := query.FetchPage(c.Request.Context(), h.queries, query.Key{query.GetInfinitePosts},
		c.Query("cursor"), InfinitePostsLimit, postID, h.posts.GetInfinitePosts)
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de la récupération des posts", map[string]interface{}{
			"cursor": c.Query("cursor"),
		})
		return
	}
	c.JSON(http.StatusOK, page)
}

// SearchPosts GET /api/posts/search?q=
func (h *Handler) SearchPosts(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Terme de recherche manquant"})
		return
	}

	posts, err := query.Fetch(c.Request.Context(), h.queries, query.Key{query.SearchPosts, term},
		func(ctx context.Context) ([]*Post, error) {
			return h.posts.SearchPosts(ctx, term)
		})
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de la recherche", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPostByID GET /api/posts/:id
func (h *Handler) GetPostByID(c *gin.Context) {
	p, err := h.fetchPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err, "Post non trouvé", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": p})
}

// CreatePost POST /api/posts
func (h *Handler) CreatePost(c *gin.Context) {
	userID, err := h.me(c)
	if err != nil {
		utils.RespondError(c, err, "Utilisateur non trouvé", nil)
		return
	}

	upload, closeFn, ok := readUpload(c, true)
	if !ok {
		return
	}
	defer closeFn()

	in := NewPost{
		UserID:   userID,
		Caption:  c.PostForm("caption"),
		Location: c.PostForm("location"),
		Tags:     c.PostForm("tags"),
		File:     *upload,
	}
	created, err := query.Mutate(c.Request.Context(), h.queries, func(ctx context.Context) (*Post, error) {
		return h.posts.CreatePost(ctx, in)
	}, query.Key{query.GetRecentPosts}, query.Key{query.GetInfinitePosts}, query.Key{query.GetUserPosts})
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de la création du post", nil)
		return
	}

	logs.LogJSON("INFO", "Post created", map[string]interface{}{
		"route":  c.FullPath(),
		"userID": utils.UserID(c),
		"postID": created.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Post créé avec succès",
		"post":    created,
	})
}

// UpdatePost PATCH /api/posts/:id
func (h *Handler) UpdatePost(c *gin.Context) {
	id := c.Param("id")
	current, ok := h.ownedPost(c, id)
	if !ok {
		return
	}

	in := UpdatePost{
		PostID:   id,
		Caption:  c.DefaultPostForm("caption", current.Caption),
		Location: c.DefaultPostForm("location", current.Location),
		Tags:     c.DefaultPostForm("tags", strings.Join(current.Tags, ",")),
		ImageID:  current.ImageID,
		ImageURL: current.ImageURL,
	}
	upload, closeFn, ok := readUpload(c, false)
	if !ok {
		return
	}
	defer closeFn()
	in.File = upload

	updated, err := query.Mutate(c.Request.Context(), h.queries, func(ctx context.Context) (*Post, error) {
		return h.posts.UpdatePost(ctx, in)
	}, query.Key{query.GetPostByID, id}, query.Key{query.GetRecentPosts}, query.Key{query.GetInfinitePosts})
	if err != nil && updated != nil {
		// Le post est à jour ; seule l'ancienne image n'a pas pu être supprimée.
		logs.LogJSON("ERROR", "Old image left behind", map[string]interface{}{
			"route":     c.FullPath(),
			"userID":    utils.UserID(c),
			"postID":    id,
			"error":     err.Error(),
			"resources": errs.ResourcesOf(err),
		})
		c.JSON(http.StatusOK, gin.H{
			"message":  "Post mis à jour",
			"post":     updated,
			"warning":  "L'ancienne image n'a pas pu être supprimée",
			"orphaned": errs.ResourcesOf(err),
		})
		return
	}
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de la mise à jour du post", map[string]interface{}{
			"postID": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post mis à jour",
		"post":    updated,
	})
}

// DeletePost DELETE /api/posts/:id?imageId=
func (h *Handler) DeletePost(c *gin.Context) {
	id := c.Param("id")
	imageID := c.Query("imageId")
	if id == "" || imageID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiants du post et de l'image requis"})
		return
	}

	current, ok := h.ownedPost(c, id)
	if !ok {
		return
	}
	if current.ImageID != imageID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "L'image ne correspond pas au post"})
		return
	}

	_, err := query.Mutate(c.Request.Context(), h.queries, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.posts.DeletePost(ctx, id, imageID)
	}, query.Key{query.GetRecentPosts}, query.Key{query.GetInfinitePosts}, query.Key{query.GetPostByID, id}, query.Key{query.GetUserPosts})
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de la suppression du post", map[string]interface{}{
			"postID": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post supprimé avec succès",
	})
}

func (h *Handler) fetchPost(ctx context.Context, id string) (*Post, error) {
	return query.Fetch(ctx, h.queries, query.Key{query.GetPostByID, id},
		func(ctx context.Context) (*Post, error) {
			return h.posts.GetPostByID(ctx, id)
		})
}

// ownedPost charge le post et vérifie qu'il appartient à l'utilisateur.
func (h *Handler) ownedPost(c *gin.Context, id string) (*Post, bool) {
	userID, err := h.me(c)
	if err != nil {
		utils.RespondError(c, err, "Utilisateur non trouvé", nil)
		return nil, false
	}
	p, err := h.fetchPost(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err, "Post non trouvé", nil)
		return nil, false
	}
	if p.Creator.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Vous n'êtes pas autorisé à modifier ce post"})
		logs.LogJSON("WARN", "Post owned by another user", map[string]interface{}{
			"route":  c.FullPath(),
			"userID": utils.UserID(c),
			"postID": id,
		})
		return nil, false
	}
	return p, true
}

// readUpload lit le champ "file" du formulaire. Sans fichier, required
// décide entre une erreur 400 et un upload nil.
func readUpload(c *gin.Context, required bool) (*remote.Upload, func(), bool) {
	noop := func() {}

	header, err := c.FormFile("file")
	if (errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)) && !required {
		return nil, noop, true
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucune image fournie", "details": err.Error()})
		return nil, noop, false
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !validExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Extension de fichier invalide"})
		return nil, noop, false
	}

	var file multipart.File
	if file, err = header.Open(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image illisible", "details": err.Error()})
		return nil, noop, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = fmt.Sprintf("image/%s", strings.TrimPrefix(ext, "."))
	}
	return &remote.Upload{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}, func() { file.Close() }, true
}

func postID(p *Post) string { return p.ID }
