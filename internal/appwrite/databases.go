package appwrite

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/dezobq/snapgram/internal/remote"
)

type databases struct{ c *Client }

func (d *databases) path(collection string) string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents", d.c.cfg.DatabaseID, collection)
}

func (d *databases) CreateDocument(ctx context.Context, collection, id string, data map[string]any) (*remote.Document, error) {
	var doc remote.Document
	err := d.c.do(ctx, d.c.server, http.MethodPost, d.path(collection), &doc, func(r *resty.Request) {
		r.SetBody(map[string]any{"documentId": id, "data": data})
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *databases) GetDocument(ctx context.Context, collection, id string) (*remote.Document, error) {
	var doc remote.Document
	if err := d.c.do(ctx, d.c.server, http.MethodGet, d.path(collection)+"/"+id, &doc, nil); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *databases) UpdateDocument(ctx context.Context, collection, id string, data map[string]any) (*remote.Document, error) {
	var doc remote.Document
	err := d.c.do(ctx, d.c.server, http.MethodPatch, d.path(collection)+"/"+id, &doc, func(r *resty.Request) {
		r.SetBody(map[string]any{"data": data})
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *databases) DeleteDocument(ctx context.Context, collection, id string) error {
	return d.c.do(ctx, d.c.server, http.MethodDelete, d.path(collection)+"/"+id, nil, nil)
}

func (d *databases) ListDocuments(ctx context.Context, collection string, queries ...remote.Query) (*remote.DocumentList, error) {
	var list remote.DocumentList
	err := d.c.do(ctx, d.c.server, http.MethodGet, d.path(collection), &list, func(r *resty.Request) {
		if len(queries) == 0 {
			return
		}
		values := url.Values{}
		for _, q := range queries {
			values.Add("queries[]", q.String())
		}
		r.SetQueryParamsFromValues(values)
	})
	if err != nil {
		return nil, err
	}
	if list.Documents == nil {
		list.Documents = []*remote.Document{}
	}
	return &list, nil
}
