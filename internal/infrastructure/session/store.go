// Package session implements the durable session store behind
// ports.SessionStore: a Redis-backed store for deployments and an in-memory
// twin with identical semantics for development and tests.
//
// Key layout (per session ID):
//
//	sess:<sid>:user    JSON-serialised user record (the backend's raw shape)
//	sess:<sid>:token   credential string, possibly quote-wrapped by history
//	sess:<sid>:<key>   UI flags (onboarding_seen, dark_mode, ...) as strings
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/juthworks/webapp/internal/core/domain"
)

const (
	fieldUser  = "user"
	fieldToken = "token"
)

func key(sid, field string) string {
	return fmt.Sprintf("sess:%s:%s", sid, field)
}

// decodeUser parses a stored user record. Malformed data reads as no user:
// a broken record means "logged out", never a crash.
func decodeUser(raw string) *domain.User {
	if raw == "" {
		return nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	return &u
}

// mergeUser shallow-merges patch into the stored record at the JSON level so
// profile fields the gateway does not model survive the write. Returns ok
// false when there is no (decodable) record to merge into.
func mergeUser(raw string, patch map[string]any) (string, bool) {
	if raw == "" {
		return "", false
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return "", false
	}
	for k, v := range patch {
		rec[k] = v
	}
	merged, err := json.Marshal(rec)
	if err != nil {
		return "", false
	}
	return string(merged), true
}

// buildSession assembles a Session from the two persisted fields, enforcing
// the invariant that a token without a user is dropped, and sanitising the
// token on every read.
func buildSession(rawUser, rawToken string) *domain.Session {
	user := decodeUser(rawUser)
	if user == nil {
		return &domain.Session{}
	}
	return &domain.Session{User: user, Token: domain.SanitizeToken(rawToken)}
}

// RedisStore persists sessions in Redis with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, sid string) (*domain.Session, error) {
	vals, err := s.client.MGet(ctx, key(sid, fieldUser), key(sid, fieldToken)).Result()
	if err != nil {
		return nil, fmt.Errorf("session load: %w", err)
	}
	rawUser, _ := vals[0].(string)
	rawToken, _ := vals[1].(string)
	return buildSession(rawUser, rawToken), nil
}

// Login writes user and token in one pipeline so a reader never observes the
// new user next to a stale token.
func (s *RedisStore) Login(ctx context.Context, sid string, user json.RawMessage, token string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key(sid, fieldUser), string(user), s.ttl)
	pipe.Set(ctx, key(sid, fieldToken), token, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session login: %w", err)
	}
	return nil
}

// Logout deletes the identity fields. Deleting an absent session is a no-op,
// so calling this when already logged out is safe. UI flags are left alone:
// they are preferences, not credentials.
func (s *RedisStore) Logout(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, key(sid, fieldUser), key(sid, fieldToken)).Err(); err != nil {
		return fmt.Errorf("session logout: %w", err)
	}
	return nil
}

func (s *RedisStore) UpdateUser(ctx context.Context, sid string, patch map[string]any) error {
	raw, err := s.client.Get(ctx, key(sid, fieldUser)).Result()
	if err == redis.Nil {
		return nil // no user present: stale caller, deliberately a no-op
	}
	if err != nil {
		return fmt.Errorf("session update: %w", err)
	}
	merged, ok := mergeUser(raw, patch)
	if !ok {
		return nil
	}
	if err := s.client.Set(ctx, key(sid, fieldUser), merged, s.ttl).Err(); err != nil {
		return fmt.Errorf("session update: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sid, k string) (string, error) {
	v, err := s.client.Get(ctx, key(sid, k)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session get %s: %w", k, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, k, value string) error {
	if err := s.client.Set(ctx, key(sid, k), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("session set %s: %w", k, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sid, k string) error {
	if err := s.client.Del(ctx, key(sid, k)).Err(); err != nil {
		return fmt.Errorf("session delete %s: %w", k, err)
	}
	return nil
}
