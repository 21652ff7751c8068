package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"

	"github.com/dezobq/snapgram/internal/remote"
)

// GCS range les images dans un bucket Google Cloud Storage. Les identifiants
// viennent de l'environnement (GOOGLE_APPLICATION_CREDENTIALS).
type GCS struct {
	client *gcs.Client
	bucket string
	urls   urlBuilder
}

var _ remote.Storage = (*GCS)(nil)

type GCSConfig struct {
	Bucket    string
	PublicURL string
	Folder    string
}

func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("client GCS: %w", err)
	}

	base := cfg.PublicURL
	if base == "" {
		base = "https://storage.googleapis.com/" + cfg.Bucket
	}
	return &GCS{client: client, bucket: cfg.Bucket, urls: urlBuilder{base: base, folder: cfg.Folder}}, nil
}

func (s *GCS) CreateFile(ctx context.Context, id string, upload remote.Upload) (*remote.File, error) {
	if upload.Body == nil {
		return nil, &remote.APIError{Status: http.StatusBadRequest, Type: "storage_file_empty", Message: "no file body"}
	}

	w := s.client.Bucket(s.bucket).Object(s.urls.key(id)).NewWriter(ctx)
	w.ContentType = contentTypeOr(upload.ContentType, upload.Name)
	w.Metadata = map[string]string{"name": upload.Name}

	size, err := io.Copy(w, upload.Body)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("upload échoué: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("upload échoué: %w", err)
	}

	return &remote.File{ID: id, BucketID: s.bucket, Name: upload.Name, MimeType: w.ContentType, Size: size}, nil
}

func (s *GCS) GetFile(ctx context.Context, id string) (*remote.File, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(s.urls.key(id)).Attrs(ctx)
	if err != nil {
		return nil, gcsError(id, err)
	}
	return &remote.File{
		ID:        id,
		BucketID:  s.bucket,
		Name:      attrs.Metadata["name"],
		MimeType:  attrs.ContentType,
		Size:      attrs.Size,
		CreatedAt: attrs.Created,
	}, nil
}

func (s *GCS) DeleteFile(ctx context.Context, id string) error {
	if err := s.client.Bucket(s.bucket).Object(s.urls.key(id)).Delete(ctx); err != nil {
		return fmt.Errorf("erreur suppression GCS : %w", gcsError(id, err))
	}
	return nil
}

func (s *GCS) PreviewURL(id string, opts remote.Preview) (string, error) {
	return s.urls.preview(id, opts)
}

func (s *GCS) Close() error {
	return s.client.Close()
}

func gcsError(id string, err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return &remote.APIError{Status: http.StatusNotFound, Type: "storage_file_not_found", Message: id}
	}
	return err
}
