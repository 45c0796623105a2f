package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/juthworks/webapp/internal/core/domain"
)

// MemoryStore keeps sessions in process memory. Same semantics as RedisStore
// minus durability; used in development (SESSION_STORE=memory) and as the
// substitutable store in unit tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context, sid string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return buildSession(s.data[key(sid, fieldUser)], s.data[key(sid, fieldToken)]), nil
}

func (s *MemoryStore) Login(_ context.Context, sid string, user json.RawMessage, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key(sid, fieldUser)] = string(user)
	s.data[key(sid, fieldToken)] = token
	return nil
}

func (s *MemoryStore) Logout(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key(sid, fieldUser))
	delete(s.data, key(sid, fieldToken))
	return nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, sid string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, ok := mergeUser(s.data[key(sid, fieldUser)], patch)
	if !ok {
		return nil
	}
	s.data[key(sid, fieldUser)] = merged
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sid, k string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key(sid, k)], nil
}

func (s *MemoryStore) Set(_ context.Context, sid, k, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key(sid, k)] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sid, k string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key(sid, k))
	return nil
}

// Seed writes a raw value directly, bypassing the API. Test helper for
// exercising malformed persisted data.
func (s *MemoryStore) Seed(sid, field, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key(sid, field)] = raw
}
