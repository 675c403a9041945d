package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL constants
const (
	TTLMember  = 2 * time.Minute // membership lookups, invalidated on change
	TTLDefault = 5 * time.Minute
)

// Key prefixes
const (
	PrefixMember = "member:"
)

// ErrMiss is returned by Get when the key is absent or Redis is unavailable
var ErrMiss = errors.New("cache miss")

// Service Redis cache service
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Membership cache keyed by (workspace, user)
	MemberKey(workspaceID, userID uint64) string
	InvalidateMember(ctx context.Context, workspaceID, userID uint64) error
	InvalidateWorkspaceMembers(ctx context.Context, workspaceID uint64) error

	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache Redis backed cache
type redisCache struct {
	client *redis.Client
}

// NewService creates a cache service. A nil client yields a no-op cache.
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable reports whether Redis is configured
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Ping checks the Redis connection
func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get reads a JSON value
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set stores a JSON value
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes keys
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) MemberKey(workspaceID, userID uint64) string {
	return fmt.Sprintf("%s%d:%d", PrefixMember, workspaceID, userID)
}

func (c *redisCache) InvalidateMember(ctx context.Context, workspaceID, userID uint64) error {
	return c.Delete(ctx, c.MemberKey(workspaceID, userID))
}

func (c *redisCache) InvalidateWorkspaceMembers(ctx context.Context, workspaceID uint64) error {
	if c.client == nil {
		return nil
	}
	return c.deleteByPattern(ctx, fmt.Sprintf("%s%d:*", PrefixMember, workspaceID))
}

// deleteByPattern removes keys matching a pattern using SCAN
func (c *redisCache) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
