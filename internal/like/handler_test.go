package like

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/post"
	"github.com/dezobq/snapgram/internal/query"
	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/remote/remotetest"
	"github.com/dezobq/snapgram/internal/utils"
)

func TestLikeHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := remotetest.New()
	posts := post.NewRepo(p.Service())
	queries, err := query.New(query.Options{})
	require.NoError(t, err)

	me := func(c *gin.Context) (string, error) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			return id, nil
		}
		return "", errs.NotFound("getCurrentUser", errors.New("no session"))
	}
	h := NewHandler(NewRepo(p.Service()), posts, queries, me)

	// Simule le middleware d'authentification.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(utils.KeyUserID, "acc-"+id)
		}
	})
	r.PUT("/api/posts/:id/likes", h.LikePost)
	r.GET("/api/posts/:id/likes", h.GetLikeStatus)

	target, err := posts.CreatePost(context.Background(), post.NewPost{
		UserID: "author",
		File:   remote.Upload{Name: "a.png", Body: strings.NewReader("png")},
	})
	require.NoError(t, err)

	call := func(method, path, as, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if as != "" {
			req.Header.Set("X-Test-User", as)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	tests := []struct {
		name       string
		method     string
		path       string
		as         string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"Like", http.MethodPut, "/api/posts/" + target.ID + "/likes", "u1", `{"likes":["u1","u2"]}`, http.StatusOK, `"is_liked":true`},
		{"Status for other user", http.MethodGet, "/api/posts/" + target.ID + "/likes", "u3", "", http.StatusOK, `"likes_count":2`},
		{"Overwrite", http.MethodPut, "/api/posts/" + target.ID + "/likes", "u1", `{"likes":["u2"]}`, http.StatusOK, `"is_liked":false`},
		{"Anonymous status", http.MethodGet, "/api/posts/" + target.ID + "/likes", "", "", http.StatusOK, `"likes":["u2"]`},
		{"Clear", http.MethodPut, "/api/posts/" + target.ID + "/likes", "u2", `{"likes":[]}`, http.StatusOK, `"likes_count":0`},
		{"Malformed body", http.MethodPut, "/api/posts/" + target.ID + "/likes", "u1", `{`, http.StatusBadRequest, "Requête invalide"},
		{"Unknown post", http.MethodPut, "/api/posts/missing/likes", "u1", `{"likes":[]}`, http.StatusNotFound, "error"},
		{"Unknown post status", http.MethodGet, "/api/posts/missing/likes", "", "", http.StatusNotFound, "Post non trouvé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(tt.method, tt.path, tt.as, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestLikeInvalidatesOnlyCallerSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := remotetest.New()
	posts := post.NewRepo(p.Service())
	queries, err := query.New(query.Options{StaleTime: time.Hour})
	require.NoError(t, err)
	me := func(c *gin.Context) (string, error) { return "u1", nil }
	h := NewHandler(NewRepo(p.Service()), posts, queries, me)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(utils.KeyUserID, "acc-u1")
		c.Set(utils.KeySession, &remote.Session{ID: "s1", UserID: "acc-u1"})
		c.Set(utils.KeySessionID, "sid-mine")
	})
	r.PUT("/api/posts/:id/likes", h.LikePost)

	target, err := posts.CreatePost(context.Background(), post.NewPost{
		UserID: "author",
		File:   remote.Upload{Name: "a.png", Body: strings.NewReader("png")},
	})
	require.NoError(t, err)

	mine := query.Key{query.GetCurrentUser, "sid-mine"}
	other := query.Key{query.GetCurrentUser, "sid-other"}
	queries.SetData(mine, "me")
	queries.SetData(other, "someone")

	req := httptest.NewRequest(http.MethodPut, "/api/posts/"+target.ID+"/likes", bytes.NewBufferString(`{"likes":["u1"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.True(t, queries.State(mine).Stale)
	assert.False(t, queries.State(other).Stale)
}
