package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"geo-api/internal/logger"
	"geo-api/internal/metrics"
)

const defaultWriteTimeout = 2 * time.Second

// Store：带 JSON 序列化的缓存门面
// 约束：任何后端故障或解码失败都视为未命中，不向调用方返回错误（故障放行）
// 约束：nil *Store 表示缓存关闭，读取恒为未命中、写入恒为 false
type Store struct {
	b            Backend
	writeTimeout time.Duration
}

func NewStore(b Backend, writeTimeout time.Duration) *Store {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Store{b: b, writeTimeout: writeTimeout}
}

// Get：读取并反序列化
func Get[T any](ctx context.Context, s *Store, key string) (T, bool) {
	var zero T
	raw, ok := s.getRaw(ctx, key)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues(domainOf(key), "decode").Inc()
		logger.L().Warn("cache_decode_fail", "key", key, "err", err)
		return zero, false
	}
	metrics.CacheHitsTotal.WithLabelValues(domainOf(key)).Inc()
	return v, true
}

// Set：序列化并写入；ttl=0 表示不过期
// 背景：写入与请求取消解耦，请求结束后仍尽力完成，保持缓存温热
func Set[T any](ctx context.Context, s *Store, key string, v T, ttl time.Duration) bool {
	if s == nil || s.b == nil {
		return false
	}
	b, err := json.Marshal(v)
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues(domainOf(key), "encode").Inc()
		logger.L().Warn("cache_encode_fail", "key", key, "err", err)
		return false
	}
	return s.setRaw(ctx, key, string(b), ttl)
}

// Has：仅判断键是否存在（不解码）
func (s *Store) Has(ctx context.Context, key string) bool {
	_, ok := s.getRaw(ctx, key)
	if ok {
		metrics.CacheHitsTotal.WithLabelValues(domainOf(key)).Inc()
	}
	return ok
}

func (s *Store) Del(ctx context.Context, key string) bool {
	if s == nil || s.b == nil {
		return false
	}
	if err := s.b.Del(ctx, key); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues(domainOf(key), "del").Inc()
		logger.L().Warn("cache_del_fail", "key", key, "err", err)
		return false
	}
	return true
}

func (s *Store) getRaw(ctx context.Context, key string) (string, bool) {
	if s == nil || s.b == nil {
		return "", false
	}
	raw, err := s.b.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			metrics.CacheErrorsTotal.WithLabelValues(domainOf(key), "get").Inc()
			logger.L().Warn("cache_get_fail", "key", key, "err", err)
		}
		metrics.CacheMissesTotal.WithLabelValues(domainOf(key)).Inc()
		return "", false
	}
	return raw, true
}

func (s *Store) setRaw(ctx context.Context, key, val string, ttl time.Duration) bool {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	if err := s.b.Set(wctx, key, val, ttl); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues(domainOf(key), "set").Inc()
		logger.L().Warn("cache_set_fail", "key", key, "err", err)
		return false
	}
	logger.L().Debug("cache_set", "key", key, "ttl_s", int64(ttl/time.Second))
	return true
}

// domainOf：键首段作为指标标签（place_51.5_-0.1 → place）
func domainOf(key string) string {
	if i := strings.IndexByte(key, '_'); i > 0 {
		return key[:i]
	}
	return key
}
