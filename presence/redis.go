package presence

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const onlineSetKey = "presence:online"

// RedisCache mirrors the online set into Redis so sibling processes (and
// the REST layer of other instances) can read presence without a database
// round trip.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) SetOnline(ctx context.Context, userID string) error {
	return c.client.SAdd(ctx, onlineSetKey, userID).Err()
}

func (c *RedisCache) SetOffline(ctx context.Context, userID string) error {
	return c.client.SRem(ctx, onlineSetKey, userID).Err()
}

// IsOnline reads the shared view directly.
func (c *RedisCache) IsOnline(ctx context.Context, userID string) (bool, error) {
	return c.client.SIsMember(ctx, onlineSetKey, userID).Result()
}
