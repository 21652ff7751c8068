// Package appwrite implémente le contrat remote sur l'API REST d'Appwrite.
package appwrite

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/dezobq/snapgram/internal/remote"
)

type Config struct {
	Endpoint   string // ex. https://cloud.appwrite.io/v1
	ProjectID  string
	APIKey     string
	DatabaseID string
	BucketID   string

	UserCollectionID  string
	PostCollectionID  string
	SavesCollectionID string

	Timeout time.Duration
	// RPS borne le débit des requêtes sortantes, 0 pour ne pas limiter.
	RPS float64
}

// Client porte deux clients HTTP : l'un authentifié par la clé serveur,
// l'autre par le secret de session de l'utilisateur.
type Client struct {
	cfg     Config
	server  *resty.Client
	account *resty.Client
}

func New(cfg Config) *Client {
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	server := newHTTP(cfg, limiter)
	if cfg.APIKey != "" {
		server.SetHeader("X-Appwrite-Key", cfg.APIKey)
	}

	return &Client{cfg: cfg, server: server, account: newHTTP(cfg, limiter)}
}

func newHTTP(cfg Config, limiter *rate.Limiter) *resty.Client {
	c := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetHeader("X-Appwrite-Project", cfg.ProjectID).
		SetHeader("X-Appwrite-Response-Format", "1.5.0").
		SetError(&remote.APIError{})
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	if limiter != nil {
		c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return limiter.Wait(r.Context())
		})
	}
	return c
}

// Service assemble les handles remote adossés à ce client.
func (c *Client) Service() remote.Service {
	return remote.Service{
		Accounts:        &accounts{c},
		Databases:       &databases{c},
		Storage:         &files{c},
		Avatars:         &avatars{c},
		UserCollection:  c.cfg.UserCollectionID,
		PostCollection:  c.cfg.PostCollectionID,
		SavesCollection: c.cfg.SavesCollectionID,
	}
}

func (c *Client) do(ctx context.Context, hc *resty.Client, method, path string, out any, build func(*resty.Request)) error {
	req := hc.R().SetContext(ctx)
	if out != nil {
		req.SetResult(out)
	}
	if build != nil {
		build(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *resty.Response) error {
	if e, ok := resp.Error().(*remote.APIError); ok && e != nil && (e.Status != 0 || e.Message != "") {
		if e.Status == 0 {
			e.Status = resp.StatusCode()
		}
		return e
	}
	return &remote.APIError{Status: resp.StatusCode(), Type: "http_error", Message: resp.Status()}
}

// publicURL construit une URL absolue signée par l'identifiant de projet.
func (c *Client) publicURL(path string, q url.Values) string {
	q.Set("project", c.cfg.ProjectID)
	return c.cfg.Endpoint + path + "?" + q.Encode()
}
