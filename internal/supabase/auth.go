// Package supabase adosse les comptes et sessions à l'API GoTrue de Supabase.
// Les documents passent par internal/database et les fichiers par
// internal/storage.
package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/utils"
)

const defaultAvatarURL = "https://ui-avatars.com/api/"

type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	Timeout        time.Duration
	RPS            float64
	// AvatarURL sert les avatars à initiales, ui-avatars par défaut.
	AvatarURL string
}

// Auth implémente remote.Accounts et remote.Avatars.
type Auth struct {
	cfg  Config
	http *resty.Client
}

var (
	_ remote.Accounts = (*Auth)(nil)
	_ remote.Avatars  = (*Auth)(nil)
)

func NewAuth(cfg Config) *Auth {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.AvatarURL == "" {
		cfg.AvatarURL = defaultAvatarURL
	}

	c := resty.New().
		SetBaseURL(cfg.URL+"/auth/v1").
		SetHeader("apikey", cfg.AnonKey).
		SetError(&gotrueError{})
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	if cfg.RPS > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), max(1, int(cfg.RPS)))
		c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return limiter.Wait(r.Context())
		})
	}
	return &Auth{cfg: cfg, http: c}
}

type gotrueUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	UserMetadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
}

func (u *gotrueUser) account() *remote.Account {
	return &remote.Account{ID: u.ID, Name: u.UserMetadata.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   int64      `json:"expires_at"`
	User        gotrueUser `json:"user"`
}

// gotrueError couvre les deux formes d'erreur de GoTrue.
type gotrueError struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Err              string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// admin passe la clé service_role, requise par /admin/*.
func (a *Auth) admin(ctx context.Context) *resty.Request {
	return a.http.R().
		SetContext(ctx).
		SetHeader("apikey", a.cfg.ServiceRoleKey).
		SetAuthToken(a.cfg.ServiceRoleKey)
}

// L'identifiant proposé est ignoré : GoTrue attribue ses propres UUID.
func (a *Auth) Create(ctx context.Context, _ string, email, password, name string) (*remote.Account, error) {
	var u gotrueUser
	resp, err := a.admin(ctx).
		SetBody(map[string]any{
			"email":         email,
			"password":      password,
			"email_confirm": true,
			"user_metadata": map[string]string{"name": name},
		}).
		SetResult(&u).
		Post("/admin/users")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return u.account(), nil
}

func (a *Auth) Delete(ctx context.Context, id string) error {
	resp, err := a.admin(ctx).Delete("/admin/users/" + id)
	return check(resp, err)
}

func (a *Auth) CreateEmailSession(ctx context.Context, email, password string) (*remote.Session, error) {
	var tok tokenResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&tok).
		Post("/token")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return sessionFromToken(tok), nil
}

func (a *Auth) Get(ctx context.Context, session *remote.Session) (*remote.Account, error) {
	if session == nil {
		return nil, &remote.APIError{Status: http.StatusUnauthorized, Type: "no_session", Message: "no session"}
	}
	var u gotrueUser
	resp, err := a.http.R().SetContext(ctx).SetAuthToken(session.Secret).SetResult(&u).Get("/user")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return u.account(), nil
}

func (a *Auth) DeleteSession(ctx context.Context, session *remote.Session) error {
	if session == nil {
		return nil
	}
	resp, err := a.http.R().SetContext(ctx).SetAuthToken(session.Secret).Post("/logout")
	return check(resp, err)
}

func (a *Auth) InitialsURL(name string) string {
	return a.cfg.AvatarURL + "?" + url.Values{"name": {name}}.Encode()
}

// sessionFromToken reprend sid et exp des claims du jeton d'accès.
func sessionFromToken(tok tokenResponse) *remote.Session {
	claims := utils.ParseJWTClaims(tok.AccessToken)

	s := &remote.Session{UserID: tok.User.ID, Secret: tok.AccessToken}
	if sid, ok := claims["session_id"].(string); ok {
		s.ID = sid
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.Expire = exp.Time
	} else if tok.ExpiresAt > 0 {
		s.Expire = time.Unix(tok.ExpiresAt, 0)
	}
	if s.UserID == "" {
		s.UserID, _ = claims.GetSubject()
	}
	return s
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("gotrue: %w", err)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &remote.APIError{Status: resp.StatusCode(), Type: "http_error", Message: resp.Status()}
	if e, ok := resp.Error().(*gotrueError); ok && e != nil {
		if e.ErrorCode != "" {
			apiErr.Type = e.ErrorCode
		} else if e.Err != "" {
			apiErr.Type = e.Err
		}
		if e.Msg != "" {
			apiErr.Message = e.Msg
		} else if e.ErrorDescription != "" {
			apiErr.Message = e.ErrorDescription
		}
	}
	// GoTrue répond 400 invalid_grant sur un mauvais mot de passe.
	if apiErr.Status == http.StatusBadRequest && (apiErr.Type == "invalid_grant" || apiErr.Type == "invalid_credentials") {
		apiErr.Status = http.StatusUnauthorized
	}
	return apiErr
}
