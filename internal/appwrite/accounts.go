package appwrite

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/dezobq/snapgram/internal/remote"
)

type accounts struct{ c *Client }

func (a *accounts) Create(ctx context.Context, id, email, password, name string) (*remote.Account, error) {
	var acc remote.Account
	err := a.c.do(ctx, a.c.server, http.MethodPost, "/users", &acc, func(r *resty.Request) {
		r.SetBody(map[string]any{
			"userId":   id,
			"email":    email,
			"password": password,
			"name":     name,
		})
	})
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (a *accounts) Delete(ctx context.Context, id string) error {
	return a.c.do(ctx, a.c.server, http.MethodDelete, "/users/"+id, nil, nil)
}

// CreateEmailSession passe par le client serveur : avec la clé API, Appwrite
// renvoie le secret de session.
func (a *accounts) CreateEmailSession(ctx context.Context, email, password string) (*remote.Session, error) {
	var s remote.Session
	err := a.c.do(ctx, a.c.server, http.MethodPost, "/account/sessions/email", &s, func(r *resty.Request) {
		r.SetBody(map[string]any{"email": email, "password": password})
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *accounts) Get(ctx context.Context, session *remote.Session) (*remote.Account, error) {
	var acc remote.Account
	if err := a.c.do(ctx, a.c.account, http.MethodGet, "/account", &acc, withSession(session)); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (a *accounts) DeleteSession(ctx context.Context, session *remote.Session) error {
	return a.c.do(ctx, a.c.account, http.MethodDelete, "/account/sessions/current", nil, withSession(session))
}

func withSession(s *remote.Session) func(*resty.Request) {
	return func(r *resty.Request) {
		if s != nil {
			r.SetHeader("X-Appwrite-Session", s.Secret)
		}
	}
}
