package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/remote"
)

// RedisStore partage les sessions entre plusieurs instances de l'API.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *RedisStore) Put(ctx context.Context, id string, sess *remote.Session, ttl time.Duration) error {
	if id == "" || sess == nil {
		return errs.Validation("session.put", "id and session are required")
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return errs.Remote("session.put", err)
	}
	if err := s.client.Set(ctx, key(id), b, ttl).Err(); err != nil {
		return errs.Remote("session.put", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*remote.Session, error) {
	b, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.NotFound("session.get", errNoSession)
	}
	if err != nil {
		return nil, errs.Remote("session.get", err)
	}
	var sess remote.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, errs.Remote("session.get", err)
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return errs.Remote("session.delete", err)
	}
	return nil
}
