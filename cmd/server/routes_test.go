package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dezobq/snapgram/internal/auth"
	"github.com/dezobq/snapgram/internal/query"
	"github.com/dezobq/snapgram/internal/remote/remotetest"
	"github.com/dezobq/snapgram/internal/session"
)

func newTestRouter(t *testing.T) (*gin.Engine, *remotetest.Platform) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p := remotetest.New()
	queries, err := query.New(query.Options{})
	require.NoError(t, err)

	return setupRouter(p.Service(), session.NewMemoryStore(), auth.NewTokens("secret", time.Hour), queries), p
}

func do(r http.Handler, method, path, token, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/me"},
		{http.MethodPost, "/api/logout"},
		{http.MethodPost, "/api/posts"},
		{http.MethodPatch, "/api/posts/p1"},
		{http.MethodDelete, "/api/posts/p1?imageId=f1"},
		{http.MethodPut, "/api/posts/p1/likes"},
		{http.MethodPost, "/api/posts/p1/save"},
		{http.MethodDelete, "/api/saves/s1"},
		{http.MethodGet, "/api/users/u1/saves"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, do(r, tt.method, tt.path, "", "", nil).Code)
		})
	}
}

func TestUserJourney(t *testing.T) {
	r, p := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/signup", "", "application/json", jsonBody(t, map[string]string{
		"name": "Ada Lovelace", "username": "ada", "email": "ada@example.com", "password": "analytical",
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var signup struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"$id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))
	token := signup.AccessToken
	require.NotEmpty(t, token)

	// Publication
	form := &bytes.Buffer{}
	mw := multipart.NewWriter(form)
	fw, err := mw.CreateFormFile("file", "sunset.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("pixels"))
	require.NoError(t, mw.WriteField("caption", "Golden hour"))
	require.NoError(t, mw.WriteField("location", "Paris"))
	require.NoError(t, mw.WriteField("tags", "sun, sky"))
	require.NoError(t, mw.Close())

	w = do(r, http.MethodPost, "/api/posts", token, mw.FormDataContentType(), form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, p.FileCount())

	w = do(r, http.MethodGet, "/api/posts/recent", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recent struct {
		Posts []struct {
			ID      string   `json:"$id"`
			Caption string   `json:"caption"`
			Tags    []string `json:"tags"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recent))
	require.Len(t, recent.Posts, 1)
	assert.Equal(t, "Golden hour", recent.Posts[0].Caption)
	assert.Equal(t, []string{"sun", "sky"}, recent.Posts[0].Tags)
	postID := recent.Posts[0].ID

	w = do(r, http.MethodPut, "/api/posts/"+postID+"/likes", token, "application/json", jsonBody(t, map[string][]string{"likes": {signup.User.ID}}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/posts/"+postID+"/likes", token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_liked":true`)

	w = do(r, http.MethodPost, "/api/posts/"+postID+"/save", token, "", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/users/"+signup.User.ID+"/saves", token, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), postID)

	w = do(r, http.MethodGet, "/api/posts/search?q="+strings.ToLower("golden"), "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), postID)

	// Déconnexion : le token ne donne plus accès.
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/logout", token, "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/me", token, "", nil).Code)
}
