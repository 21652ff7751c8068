package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dezobq/snapgram/internal/auth"
	"github.com/dezobq/snapgram/internal/middleware"
	"github.com/dezobq/snapgram/internal/query"
	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/remote/remotetest"
	"github.com/dezobq/snapgram/internal/session"
	"github.com/dezobq/snapgram/internal/user"
)

func setupRouter(t *testing.T) (*gin.Engine, *remotetest.Platform) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p := remotetest.New()
	queries, err := query.New(query.Options{})
	require.NoError(t, err)
	tokens := auth.NewTokens("secret", time.Hour)
	sessions := session.NewMemoryStore()
	h := auth.NewHandler(user.NewRepo(p.Service()), sessions, tokens, queries)

	r := gin.New()
	r.POST("/api/signup", h.Signup)
	r.POST("/api/login", h.Login)
	r.POST("/api/logout", middleware.AuthMiddleware(tokens, sessions), h.Logout)
	r.GET("/api/ping", middleware.AuthMiddleware(tokens, sessions), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, p
}

func do(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupLoginLogout(t *testing.T) {
	r, p := setupRouter(t)

	w := do(r, http.MethodPost, "/api/signup", "", gin.H{
		"name": "Ada Lovelace", "username": "ada", "email": "ada@example.com", "password": "analytical",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var signup struct {
		User        user.User `json:"user"`
		AccessToken string    `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))
	assert.Equal(t, "ada", signup.User.Username)
	assert.NotEmpty(t, signup.AccessToken)
	assert.Equal(t, 1, p.DocCount("users"))

	w = do(r, http.MethodPost, "/api/login", "", gin.H{"email": "ada@example.com", "password": "analytical"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/api/ping", login.AccessToken, nil).Code)

	w = do(r, http.MethodPost, "/api/logout", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/ping", login.AccessToken, nil).Code)

	// La session ouverte à l'inscription reste valide.
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/api/ping", signup.AccessToken, nil).Code)
}

func TestSignupErrors(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"Missing fields", gin.H{"email": "a@b.c"}, http.StatusBadRequest},
		{"Malformed body", "nope", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/signup", "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}

	ok := gin.H{"name": "Ada", "email": "ada@example.com", "password": "pw"}
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/signup", "", ok).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/signup", "", ok).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	r, _ := setupRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/signup", "", gin.H{
		"name": "Ada", "email": "ada@example.com", "password": "pw",
	}).Code)

	w := do(r, http.MethodPost, "/api/login", "", gin.H{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Identifiants invalides")
}

// ttlStore retient la durée demandée au dernier Put.
type ttlStore struct {
	*session.MemoryStore
	ttl time.Duration
}

func (s *ttlStore) Put(ctx context.Context, id string, sess *remote.Session, ttl time.Duration) error {
	s.ttl = ttl
	return s.MemoryStore.Put(ctx, id, sess, ttl)
}

func TestLoginBoundedByPlatformSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := remotetest.New()
	p.SessionLifetime = time.Minute
	queries, err := query.New(query.Options{})
	require.NoError(t, err)
	store := &ttlStore{MemoryStore: session.NewMemoryStore()}
	h := auth.NewHandler(user.NewRepo(p.Service()), store, auth.NewTokens("secret", time.Hour), queries)

	r := gin.New()
	r.POST("/api/signup", h.Signup)
	r.POST("/api/login", h.Login)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/signup", "", gin.H{
		"name": "Ada", "email": "ada@example.com", "password": "pw",
	}).Code)

	w := do(r, http.MethodPost, "/api/login", "", gin.H{"email": "ada@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	assert.WithinDuration(t, time.Now().Add(time.Minute), login.ExpiresAt, 5*time.Second)
	assert.LessOrEqual(t, store.ttl, time.Minute)
	assert.Greater(t, store.ttl, 50*time.Second)
}

func TestLoginRejectsExpiredPlatformSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := remotetest.New()
	p.SessionLifetime = -time.Second
	queries, err := query.New(query.Options{})
	require.NoError(t, err)
	h := auth.NewHandler(user.NewRepo(p.Service()), session.NewMemoryStore(), auth.NewTokens("secret", time.Hour), queries)

	r := gin.New()
	r.POST("/api/login", h.Login)
	_, err = p.Create(context.Background(), "", "ada@example.com", "pw", "Ada")
	require.NoError(t, err)

	w := do(r, http.MethodPost, "/api/login", "", gin.H{"email": "ada@example.com", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
