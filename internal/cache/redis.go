package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend：基于 go-redis 的后端
type RedisBackend struct {
	rc *redis.Client
}

func NewRedisBackend(rc *redis.Client) *RedisBackend { return &RedisBackend{rc: rc} }

func (b *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	s, err := b.rc.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	return s, nil
}

// Set：ttl<=0 时写入不过期键（对应 SET 无 EX）
func (b *RedisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return b.rc.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBackend) Del(ctx context.Context, key string) error {
	return b.rc.Del(ctx, key).Err()
}
