// Package cache is a small Redis-backed key/value and lock service,
// adapted from the teacher's internal/infrastructure/services/redis_cache.go
// (generalized off its common.CacheService interface, which this tree drops
// — see DESIGN.md). Used here for two narrow purposes the domain stack
// names: the Credential Manager's refresh-stampede lock (internal/credentials)
// and the Scheduler's tick-overlap dedup (internal/application/scheduler).
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service is a thin Redis wrapper: simple key/value, plus a SETNX-based
// distributed lock.
type Service struct {
	client *redis.Client
}

func New(client *redis.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cache: get: %w", err)
	}
	return val, nil
}

func (s *Service) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}

// Lock acquires a best-effort distributed lock using SET NX with a TTL —
// the lock self-expires, so a crashed holder can never wedge it forever.
func (s *Service) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, "lock:"+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: lock: %w", err)
	}
	return acquired, nil
}

func (s *Service) Unlock(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, "lock:"+key).Err(); err != nil {
		return fmt.Errorf("cache: unlock: %w", err)
	}
	return nil
}
