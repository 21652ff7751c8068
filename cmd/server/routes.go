package main

import (
	"github.com/gin-gonic/gin"

	"github.com/dezobq/snapgram/internal/auth"
	"github.com/dezobq/snapgram/internal/like"
	"github.com/dezobq/snapgram/internal/middleware"
	"github.com/dezobq/snapgram/internal/observability"
	"github.com/dezobq/snapgram/internal/post"
	"github.com/dezobq/snapgram/internal/query"
	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/save"
	"github.com/dezobq/snapgram/internal/session"
	"github.com/dezobq/snapgram/internal/user"
)

func setupRouter(svc *remote.Service, sessions session.Store, tokens *auth.Tokens, queries *query.Client) *gin.Engine {
	users := user.NewRepo(svc)
	posts := post.NewRepo(svc)
	saves := save.NewRepo(svc, posts)
	likes := like.NewRepo(svc)

	userHandler := user.NewHandler(users, posts, saves, queries)
	authHandler := auth.NewHandler(users, sessions, tokens, queries)
	postHandler := post.NewHandler(posts, queries, userHandler.CurrentUserID)
	likeHandler := like.NewHandler(likes, posts, queries, userHandler.CurrentUserID)
	saveHandler := save.NewHandler(saves, queries, userHandler.CurrentUserID)

	r := gin.Default()
	r.Use(observability.Middleware(nil))

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Inscription & Connexion
	api.POST("/signup", authHandler.Signup)
	api.POST("/login", authHandler.Login)

	// Lecture publique, enrichie si un token est présent
	public := api.Group("", middleware.OptionalAuthMiddleware(tokens, sessions))
	public.GET("/posts/recent", postHandler.GetRecentPosts)
	public.GET("/posts", postHandler.GetInfinitePosts)
	public.GET("/posts/search", postHandler.SearchPosts)
	public.GET("/posts/:id", postHandler.GetPostByID)
	public.GET("/posts/:id/likes", likeHandler.GetLikeStatus)
	public.GET("/users", userHandler.GetUsers)
	public.GET("/users/:id", userHandler.GetUser)
	public.GET("/users/username/:username", userHandler.GetUserByUsername)
	public.GET("/users/username/:username/posts", userHandler.GetPostsByUsername)
	public.GET("/users/:id/posts", userHandler.GetUserPosts)

	private := api.Group("", middleware.AuthMiddleware(tokens, sessions))
	private.POST("/logout", authHandler.Logout)
	private.GET("/me", userHandler.GetMe)
	private.GET("/users/:id/saves", userHandler.GetSavedPosts)

	private.POST("/posts", postHandler.CreatePost)
	private.PATCH("/posts/:id", postHandler.UpdatePost)
	private.DELETE("/posts/:id", postHandler.DeletePost)
	private.PUT("/posts/:id/likes", likeHandler.LikePost)
	private.POST("/posts/:id/save", saveHandler.SavePost)
	private.DELETE("/saves/:id", saveHandler.DeleteSavedPost)

	return r
}
