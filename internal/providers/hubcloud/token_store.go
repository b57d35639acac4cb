package hubcloud

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore holds the hub-cloud access token. It is injected at construction
// so tests substitute fresh instances and deployments can share one token
// across service instances.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
}

// MemoryTokenStore keeps the token in process memory behind a mutex.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore returns an empty in-process store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Token returns the current token, empty when none has been set.
func (s *MemoryTokenStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

// SetToken replaces the current token.
func (s *MemoryTokenStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

const redisTokenKey = "hubcloud:accesstoken"

// RedisTokenStore shares the access token between instances so each token
// refresh benefits every replica instead of triggering redundant exchanges.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTokenStore returns a redis-backed store. TTL should sit below the
// upstream token lifetime so an expired token is never served from cache.
func NewRedisTokenStore(client *redis.Client, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{client: client, ttl: ttl}
}

// Token returns the shared token, empty when the key is absent or expired.
func (s *RedisTokenStore) Token(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, redisTokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// SetToken stores the shared token. An empty token deletes the key.
func (s *RedisTokenStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.client.Del(ctx, redisTokenKey).Err()
	}
	return s.client.Set(ctx, redisTokenKey, token, s.ttl).Err()
}
