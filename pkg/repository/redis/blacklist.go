package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "token:blacklist:"

// Blacklist stores revoked refresh-token ids in Redis with a TTL equal
// to the residual token lifetime, so entries expire on their own.
type Blacklist struct {
	client *redis.Client
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

func (b *Blacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	return b.client.Set(ctx, blacklistPrefix+jti, time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

func (b *Blacklist) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
