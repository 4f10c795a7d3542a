package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "partshelf:cache:version"

// Store wraps Redis based read-through caching with versioned invalidation.
// A nil Store (or a Store without a client) degrades to calling the loader
// directly, so components can run without Redis in tests.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore instantiates the cache helper.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising it when missing.
func (s *Store) Version(ctx context.Context) (int64, error) {
	if s == nil || s.client == nil {
		return 0, nil
	}
	ver, err := s.client.Get(ctx, versionKey).Int64()
	if err == redis.Nil {
		if err := s.client.Set(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes a cache key carrying the current version, so a single
// version bump invalidates every derived entry at once.
func (s *Store) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if s == nil || s.client == nil {
		return joined, nil
	}
	ver, err := s.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (s *Store) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if s == nil || s.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if err != redis.Nil {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates all derived entries by incrementing the global version.
func (s *Store) Bump(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Incr(ctx, versionKey).Err()
}
