package appwrite

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/dezobq/snapgram/internal/remote"
)

type files struct{ c *Client }

func (f *files) path() string {
	return fmt.Sprintf("/storage/buckets/%s/files", f.c.cfg.BucketID)
}

func (f *files) CreateFile(ctx context.Context, id string, upload remote.Upload) (*remote.File, error) {
	if upload.Body == nil {
		return nil, &remote.APIError{Status: http.StatusBadRequest, Type: "storage_file_empty", Message: "no file body"}
	}

	var file remote.File
	err := f.c.do(ctx, f.c.server, http.MethodPost, f.path(), &file, func(r *resty.Request) {
		r.SetFormData(map[string]string{"fileId": id}).
			SetMultipartField("file", upload.Name, upload.ContentType, upload.Body)
	})
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *files) GetFile(ctx context.Context, id string) (*remote.File, error) {
	var file remote.File
	if err := f.c.do(ctx, f.c.server, http.MethodGet, f.path()+"/"+id, &file, nil); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *files) DeleteFile(ctx context.Context, id string) error {
	return f.c.do(ctx, f.c.server, http.MethodDelete, f.path()+"/"+id, nil, nil)
}

func (f *files) PreviewURL(id string, opts remote.Preview) (string, error) {
	if id == "" {
		return "", fmt.Errorf("preview: identifiant de fichier vide")
	}

	q := url.Values{}
	if opts.Width > 0 {
		q.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Gravity != "" {
		q.Set("gravity", opts.Gravity)
	}
	if opts.Quality > 0 {
		q.Set("quality", strconv.Itoa(opts.Quality))
	}
	return f.c.publicURL(f.path()+"/"+id+"/preview", q), nil
}

type avatars struct{ c *Client }

func (a *avatars) InitialsURL(name string) string {
	return a.c.publicURL("/avatars/initials", url.Values{"name": {name}})
}
