package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"book-search/internal/models"
)

// DefaultPrefix namespaces session status keys.
const DefaultPrefix = "booksearch:status:"

// RedisStatusStore stores session status in Redis.
type RedisStatusStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStatusStore initializes a Redis-backed StatusStore.
func NewRedisStatusStore(addr, prefix string, ttl time.Duration) *RedisStatusStore {
	return NewRedisStatusStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

// NewRedisStatusStoreWithClient wraps an existing client.
func NewRedisStatusStoreWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStatusStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStatusStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Close closes the Redis client.
func (s *RedisStatusStore) Close() error {
	return s.client.Close()
}

// Ping checks that Redis is reachable.
func (s *RedisStatusStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SetStatus writes the status record to Redis.
func (s *RedisStatusStore) SetStatus(ctx context.Context, status models.SessionStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(status.SessionID), payload, s.ttl).Err()
}

// GetStatus reads the status record from Redis.
func (s *RedisStatusStore) GetStatus(ctx context.Context, sessionID string) (models.SessionStatus, bool, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.SessionStatus{}, false, nil
		}
		return models.SessionStatus{}, false, err
	}

	var status models.SessionStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return models.SessionStatus{}, false, err
	}

	return status, true, nil
}

func (s *RedisStatusStore) key(sessionID string) string {
	return s.prefix + sessionID
}
