package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aqagent/aqagent/pkg/models"
)

// RedisStore is a Store backed by github.com/redis/go-redis/v9, sourced
// from the wider example pack (the teacher itself has no Redis client).
// Keys are namespaced as "<namespace>:<key>"; TTL semantics mirror Redis's
// SETEX. Any connection error is logged and degrades to a cache miss —
// never surfaced to the caller — per spec's stated failure mode.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore wraps an existing redis.Client. The caller owns the
// client's lifecycle (construction, auth, and Close).
func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, logger: logger}
}

func redisKey(namespace, key string) string {
	return namespace + ":" + key
}

// Get reads a value, treating any Redis error (including a miss) as a
// miss.
func (s *RedisStore) Get(ctx context.Context, namespace, key string) (models.CacheEntry, bool) {
	val, err := s.client.Get(ctx, redisKey(namespace, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("cache: redis get failed, treating as miss", "namespace", namespace, "error", err)
		}
		return models.CacheEntry{}, false
	}
	ttl, err := s.client.TTL(ctx, redisKey(namespace, key)).Result()
	if err != nil {
		ttl = 0
	}
	return models.CacheEntry{
		Namespace: namespace,
		Key:       key,
		Value:     val,
		CreatedAt: time.Now().Add(-1), // best-effort; Redis doesn't track creation time
		TTL:       ttl,
	}, true
}

// Set stores a value with a TTL. A zero or negative ttl is stored without
// expiry.
func (s *RedisStore) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, redisKey(namespace, key), value, ttl).Err(); err != nil {
		s.logger.Warn("cache: redis set failed", "namespace", namespace, "error", err)
	}
}

// Delete removes a single key.
func (s *RedisStore) Delete(ctx context.Context, namespace, key string) {
	if err := s.client.Del(ctx, redisKey(namespace, key)).Err(); err != nil {
		s.logger.Warn("cache: redis delete failed", "namespace", namespace, "error", err)
	}
}

// ClearNamespace scans and deletes every key under a namespace prefix.
// SCAN is used instead of KEYS to avoid blocking the server on a large
// keyspace.
func (s *RedisStore) ClearNamespace(ctx context.Context, namespace string) {
	iter := s.client.Scan(ctx, 0, namespace+":*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn("cache: redis scan failed during namespace clear", "namespace", namespace, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("cache: redis namespace clear failed", "namespace", namespace, "error", err)
	}
}
