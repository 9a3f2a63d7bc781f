package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// incrWithTTL 计数并在首次写入时设置过期；若之前的 Expire 丢失（TTL 为 -1）则补设，
// 避免计数键永久存在导致账号被一直限流。
func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
		return count, nil
	}
	if remaining, err := client.TTL(ctx, key).Result(); err == nil && remaining == -1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
