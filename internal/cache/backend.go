// 包 cache：键值缓存存储（JSON 序列化、可选过期、故障放行）与负向检查登记
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss：键不存在或已过期
var ErrMiss = errors.New("cache: miss")

// Backend：字符串键 → 字符串值的外部存储，支持逐键过期
// 约束：ttl=0 表示不过期；实现需并发安全；Get 未命中返回 ErrMiss，其余错误视为后端故障
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
