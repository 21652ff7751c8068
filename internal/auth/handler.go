package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/query"
	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/session"
	"github.com/dezobq/snapgram/internal/user"
	"github.com/dezobq/snapgram/internal/utils"
)

type Handler struct {
	users    *user.Repo
	sessions session.Store
	tokens   *Tokens
	queries  *query.Client
}

func NewHandler(users *user.Repo, sessions session.Store, tokens *Tokens, queries *query.Client) *Handler {
	return &Handler{users: users, sessions: sessions, tokens: tokens, queries: queries}
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Signup POST /api/signup
func (h *Handler) Signup(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	ctx := c.Request.Context()
	newUser := user.NewUser{Name: input.Name, Username: input.Username, Email: input.Email, Password: input.Password}
	created, err := query.Mutate(ctx, h.queries, func(ctx context.Context) (*user.User, error) {
		return h.users.CreateAccount(ctx, newUser)
	}, query.Key{query.GetUsers})
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de l'inscription", map[string]interface{}{
			"email": input.Email,
		})
		return
	}

	// L'inscription ouvre directement une session.
	sess, err := h.users.SignIn(ctx, user.Credentials{Email: input.Email, Password: input.Password})
	if err != nil {
		utils.RespondError(c, err, "Utilisateur inscrit mais connexion impossible", map[string]interface{}{
			"accountID": created.AccountID,
		})
		return
	}
	tok, err := h.open(c, sess)
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de l'ouverture de session", nil)
		return
	}

	logs.LogJSON("INFO", "User signed up", map[string]interface{}{
		"route":  c.FullPath(),
		"userID": created.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Utilisateur inscrit",
		"user":         created,
		"access_token": tok.AccessToken,
		"expires_at":   tok.ExpiresAt,
	})
}

// Login POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	sess, err := h.users.SignIn(c.Request.Context(), user.Credentials{Email: input.Email, Password: input.Password})
	if err != nil {
		utils.RespondError(c, err, "Identifiants invalides", map[string]interface{}{
			"email": input.Email,
		})
		return
	}

	tok, err := h.open(c, sess)
	if err != nil {
		utils.RespondError(c, err, "Erreur lors de l'ouverture de session", nil)
		return
	}
	c.JSON(http.StatusOK, tok)
}

// Logout POST /api/logout
func (h *Handler) Logout(c *gin.Context) {
	sess, sid := utils.Session(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	ctx := c.Request.Context()
	if err := h.users.SignOut(ctx, sess); err != nil && !errs.IsKind(err, errs.ErrNotFound, errs.ErrUnauthorized) {
		utils.RespondError(c, err, "Erreur lors de la déconnexion", nil)
		return
	}
	if err := h.sessions.Delete(ctx, sid); err != nil {
		utils.RespondError(c, err, "Erreur lors de la déconnexion", nil)
		return
	}
	h.queries.Remove(query.Key{query.GetCurrentUser, sid})

	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

func (h *Handler) open(c *gin.Context, sess *remote.Session) (tokenResponse, error) {
	exp := h.tokens.Expiry(sess.Expire)
	ttl := exp.Sub(h.tokens.now())
	if ttl <= 0 {
		return tokenResponse{}, errs.Unauthorized("openSession", errors.New("platform session already expired"))
	}

	sid := uuid.NewString()
	if err := h.sessions.Put(c.Request.Context(), sid, sess, ttl); err != nil {
		return tokenResponse{}, err
	}
	token, exp, err := h.tokens.IssueUntil(sess.UserID, sid, exp)
	if err != nil {
		return tokenResponse{}, errs.Remote("issueToken", err)
	}
	h.queries.Invalidate(query.Key{query.GetCurrentUser, sid})
	return tokenResponse{AccessToken: token, ExpiresAt: exp}, nil
}
