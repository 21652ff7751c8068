package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/remote"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func accessToken(t *testing.T, sub, sid string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        sub,
		"session_id": sid,
		"exp":        exp.Unix(),
	})
	s, err := tok.SignedString([]byte("gotrue-secret"))
	require.NoError(t, err)
	return s
}

func newTestAuth(t *testing.T, handler http.HandlerFunc) *Auth {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAuth(Config{URL: srv.URL + "/", AnonKey: "anon", ServiceRoleKey: "service"})
}

func TestCreateUsesServiceRole(t *testing.T) {
	auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		assert.Equal(t, "service", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, true, body["email_confirm"])

		writeJSON(w, http.StatusOK, map[string]any{
			"id":            "0b6c8e52-4b0b-4a8f-9a0e-7f1d7c1a9c11",
			"email":         "ada@example.com",
			"user_metadata": map[string]any{"name": "Ada"},
		})
	})

	acc, err := auth.Create(context.Background(), "ignored", "ada@example.com", "pw", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "0b6c8e52-4b0b-4a8f-9a0e-7f1d7c1a9c11", acc.ID)
	assert.Equal(t, "Ada", acc.Name)
}

func TestDeleteUser(t *testing.T) {
	auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/auth/v1/admin/users/u1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	require.NoError(t, auth.Delete(context.Background(), "u1"))
}

func TestSessionLifecycle(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := accessToken(t, "u1", "sid-1", exp)

	auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "anon", r.Header.Get("apikey"))
			writeJSON(w, http.StatusOK, map[string]any{"access_token": token, "user": map[string]any{"id": "u1"}})
		case "/auth/v1/user":
			assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{"id": "u1", "email": "ada@example.com"})
		case "/auth/v1/logout":
			assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	s, err := auth.CreateEmailSession(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "sid-1", s.ID)
	assert.Equal(t, "u1", s.UserID)
	assert.True(t, exp.Equal(s.Expire))

	acc, err := auth.Get(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", acc.Email)

	require.NoError(t, auth.DeleteSession(ctx, s))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
		want   error
	}{
		{"Wrong password legacy", http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Invalid login credentials"}, errs.ErrUnauthorized},
		{"Wrong password", http.StatusBadRequest, map[string]any{"code": 400, "error_code": "invalid_credentials", "msg": "Invalid login credentials"}, errs.ErrUnauthorized},
		{"Email taken", http.StatusUnprocessableEntity, map[string]any{"code": 422, "error_code": "email_exists", "msg": "already registered"}, errs.ErrValidation},
		{"Unknown user", http.StatusNotFound, map[string]any{"code": 404, "error_code": "user_not_found", "msg": "User not found"}, errs.ErrNotFound},
		{"Outage", http.StatusInternalServerError, map[string]any{"msg": "boom"}, errs.ErrRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := auth.CreateEmailSession(context.Background(), "ada@example.com", "pw")
			require.Error(t, err)
			assert.ErrorIs(t, remote.Classify("signIn", err), tt.want)
		})
	}
}

func TestGetWithoutSession(t *testing.T) {
	auth := NewAuth(Config{URL: "http://127.0.0.1:1"})
	_, err := auth.Get(context.Background(), nil)
	assert.True(t, remote.IsUnauthorized(err))
	assert.NoError(t, auth.DeleteSession(context.Background(), nil))
}

func TestInitialsURL(t *testing.T) {
	auth := NewAuth(Config{})
	assert.Equal(t, "https://ui-avatars.com/api/?name=Ada+Lovelace", auth.InitialsURL("Ada Lovelace"))

	custom := NewAuth(Config{AvatarURL: "https://avatars.example.com/initials"})
	assert.Equal(t, "https://avatars.example.com/initials?name=Ada", custom.InitialsURL("Ada"))
}
