package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dezobq/snapgram/internal/remote"
)

// S3 range les images dans un bucket S3 (ou compatible : MinIO, R2...).
type S3 struct {
	client *s3.Client
	bucket string
	urls   urlBuilder
}

var _ remote.Storage = (*S3)(nil)

type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint remplace l'endpoint AWS (MinIO, LocalStack).
	Endpoint string
	// PublicURL remplace l'URL publique https://<bucket>.s3.<region>.amazonaws.com.
	PublicURL string
	Folder    string
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("chargement config AWS: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := cfg.PublicURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3{client: client, bucket: cfg.Bucket, urls: urlBuilder{base: base, folder: cfg.Folder}}, nil
}

func (s *S3) CreateFile(ctx context.Context, id string, upload remote.Upload) (*remote.File, error) {
	body, size, err := seekable(upload)
	if err != nil {
		return nil, err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.urls.key(id)),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentTypeOr(upload.ContentType, upload.Name)),
		Metadata:      map[string]string{"name": upload.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("upload échoué: %w", err)
	}

	return &remote.File{ID: id, BucketID: s.bucket, Name: upload.Name, MimeType: upload.ContentType, Size: size}, nil
}

func (s *S3) GetFile(ctx context.Context, id string) (*remote.File, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.urls.key(id)),
	})
	if err != nil {
		return nil, s3Error(id, err)
	}

	f := &remote.File{ID: id, BucketID: s.bucket, Name: out.Metadata["name"], MimeType: aws.ToString(out.ContentType), Size: aws.ToInt64(out.ContentLength)}
	if out.LastModified != nil {
		f.CreatedAt = *out.LastModified
	}
	return f, nil
}

func (s *S3) DeleteFile(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.urls.key(id)),
	})
	if err != nil {
		return fmt.Errorf("erreur suppression S3 : %w", s3Error(id, err))
	}
	return nil
}

func (s *S3) PreviewURL(id string, opts remote.Preview) (string, error) {
	return s.urls.preview(id, opts)
}

func s3Error(id string, err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return &remote.APIError{Status: http.StatusNotFound, Type: "storage_file_not_found", Message: id}
	}
	return err
}

// seekable renvoie un corps relisible : le SDK doit pouvoir calculer la
// somme de contrôle avant l'envoi.
func seekable(upload remote.Upload) (io.ReadSeeker, int64, error) {
	if upload.Body == nil {
		return nil, 0, &remote.APIError{Status: http.StatusBadRequest, Type: "storage_file_empty", Message: "no file body"}
	}
	if rs, ok := upload.Body.(io.ReadSeeker); ok && upload.Size > 0 {
		return rs, upload.Size, nil
	}
	b, err := io.ReadAll(upload.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("lecture du fichier: %w", err)
	}
	return bytes.NewReader(b), int64(len(b)), nil
}

func contentTypeOr(ct, name string) string {
	if ct != "" {
		return ct
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		return "image/" + strings.ToLower(name[i+1:])
	}
	return "application/octet-stream"
}
