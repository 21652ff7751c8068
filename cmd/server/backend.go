package main

import (
	"context"
	"fmt"

	"github.com/dezobq/snapgram/internal/appwrite"
	"github.com/dezobq/snapgram/internal/config"
	"github.com/dezobq/snapgram/internal/database"
	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/session"
	"github.com/dezobq/snapgram/internal/storage"
	"github.com/dezobq/snapgram/internal/supabase"
)

// newService assemble le backend choisi par BACKEND.
func newService(ctx context.Context, cfg *config.Config) (*remote.Service, func(), error) {
	switch cfg.Backend {
	case config.BackendAppwrite:
		svc := appwrite.New(appwrite.Config{
			Endpoint:          cfg.Appwrite.Endpoint,
			ProjectID:         cfg.Appwrite.ProjectID,
			APIKey:            cfg.Appwrite.APIKey,
			DatabaseID:        cfg.Appwrite.DatabaseID,
			BucketID:          cfg.Appwrite.StorageID,
			UserCollectionID:  cfg.Appwrite.UserCollectionID,
			PostCollectionID:  cfg.Appwrite.PostCollectionID,
			SavesCollectionID: cfg.Appwrite.SavesCollectionID,
			Timeout:           cfg.RemoteTimeout,
			RPS:               cfg.RemoteRPS,
		}).Service()
		return &svc, func() {}, nil

	case config.BackendSupabase:
		return newSupabaseService(ctx, cfg)
	}
	return nil, nil, fmt.Errorf("BACKEND inconnu : %s", cfg.Backend)
}

func newSupabaseService(ctx context.Context, cfg *config.Config) (*remote.Service, func(), error) {
	db, err := database.Connect(cfg.Supabase.DBUrl, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	docs := database.NewDocuments(db)
	if err := docs.Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("migration documents: %w", err)
	}

	files, closeFiles, err := newFileStorage(ctx, cfg.Files)
	if err != nil {
		return nil, nil, err
	}

	auth := supabase.NewAuth(supabase.Config{
		URL:            cfg.Supabase.URL,
		AnonKey:        cfg.Supabase.AnonKey,
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
		Timeout:        cfg.RemoteTimeout,
		RPS:            cfg.RemoteRPS,
	})

	svc := &remote.Service{
		Accounts:        auth,
		Databases:       docs,
		Storage:         files,
		Avatars:         auth,
		UserCollection:  cfg.Appwrite.UserCollectionID,
		PostCollection:  cfg.Appwrite.PostCollectionID,
		SavesCollection: cfg.Appwrite.SavesCollectionID,
	}

	cleanup := func() {
		closeFiles()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return svc, cleanup, nil
}

func newFileStorage(ctx context.Context, cfg config.Files) (remote.Storage, func(), error) {
	switch cfg.Backend {
	case config.FileBackendGCS:
		s, err := storage.NewGCS(ctx, storage.GCSConfig{Bucket: cfg.GCSBucket, PublicURL: cfg.PublicURLPrefix})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.AWSBucket,
			Region:    cfg.AWSRegion,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
			Endpoint:  cfg.AWSEndpoint,
			PublicURL: cfg.PublicURLPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

// newSessionStore partage les sessions via Redis quand REDIS_ADDR est défini.
func newSessionStore(ctx context.Context, cfg config.Redis) (session.Store, func()) {
	if cfg.Addr == "" {
		return session.NewMemoryStore(), func() {}
	}

	store := session.NewRedisStore(cfg.Addr, cfg.Password, cfg.DB)
	if err := store.Ping(ctx); err != nil {
		logs.LogJSON("WARN", "Redis unreachable at startup", map[string]interface{}{
			"addr":  cfg.Addr,
			"error": err.Error(),
		})
	}
	return store, func() { _ = store.Close() }
}
