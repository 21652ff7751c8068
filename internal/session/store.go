// Package session keeps the platform sessions opened through the API, keyed by
// the id carried in the API token.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/remote"
)

var errNoSession = errors.New("session not found or expired")

type Store interface {
	Put(ctx context.Context, id string, s *remote.Session, ttl time.Duration) error
	// Get returns an errs.ErrNotFound error for unknown or expired ids.
	Get(ctx context.Context, id string) (*remote.Session, error)
	Delete(ctx context.Context, id string) error
}

type memoryItem struct {
	session *remote.Session
	expires time.Time
}

// MemoryStore garde les sessions en mémoire ; elles sont perdues au redémarrage.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]memoryItem{}, now: time.Now}
}

func (m *MemoryStore) Put(_ context.Context, id string, s *remote.Session, ttl time.Duration) error {
	if id == "" || s == nil {
		return errs.Validation("session.put", "id and session are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = memoryItem{session: s, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*remote.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, errs.NotFound("session.get", errNoSession)
	}
	if !m.now().Before(it.expires) {
		delete(m.items, id)
		return nil, errs.NotFound("session.get", errNoSession)
	}
	out := *it.session
	return &out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}
