package resolver

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"geo-api/internal/cache"
	"geo-api/internal/logger"
)

// DomainConfig：一个数据域的级联参数
type DomainConfig[Req, T any] struct {
	Domain string
	Key    func(Req) string
	// TTL：0 表示不过期
	TTL   time.Duration
	Fetch func(context.Context, Req) (T, error)
	// OnHit：命中缓存后的域内处理（如时区推进、星历年龄），作用于副本
	OnHit func(Req, T) T
	// Cacheable：为 nil 时总是回写；列表域用它避免缓存空结果
	Cacheable    func(T) bool
	SingleFlight bool
}

// Cascade：缓存 → 上游 → 回写
// 约束：上游失败不写缓存；缓存故障透明降级为未命中
type Cascade[Req, T any] struct {
	cfg   DomainConfig[Req, T]
	store *cache.Store
	sf    *singleflight.Group
}

func NewCascade[Req, T any](store *cache.Store, cfg DomainConfig[Req, T]) *Cascade[Req, T] {
	c := &Cascade[Req, T]{cfg: cfg, store: store}
	if cfg.SingleFlight {
		c.sf = &singleflight.Group{}
	}
	return c
}

func (c *Cascade[Req, T]) Domain() string { return c.cfg.Domain }

func (c *Cascade[Req, T]) Key(req Req) string { return c.cfg.Key(req) }

// Resolve：对外边界；失败折叠为 ok=false
func (c *Cascade[Req, T]) Resolve(ctx context.Context, req Req) (v T, ok bool, cached bool) {
	v, cached, err := c.Lookup(ctx, req)
	if err != nil {
		logger.L().Info("resolver_unresolved", "domain", c.cfg.Domain, "kind", Kind(err), "err", err)
		return v, false, false
	}
	return v, true, cached
}

// Lookup：保留错误分类的内部形式
func (c *Cascade[Req, T]) Lookup(ctx context.Context, req Req) (T, bool, error) {
	if v, ok := c.Peek(ctx, req); ok {
		return v, true, nil
	}
	v, err := c.fetch(ctx, c.cfg.Key(req), req)
	return v, false, err
}

// Peek：只读缓存；命中时同样经过 OnHit
func (c *Cascade[Req, T]) Peek(ctx context.Context, req Req) (T, bool) {
	key := c.cfg.Key(req)
	v, ok := cache.Get[T](ctx, c.store, key)
	if !ok {
		return v, false
	}
	if c.cfg.OnHit != nil {
		v = c.cfg.OnHit(req, v)
	}
	logger.L().Debug("cache_hit", "domain", c.cfg.Domain, "key", key)
	return v, true
}

// Put：直接写入（重写已变更的结果或旁路获得的同域数据）
func (c *Cascade[Req, T]) Put(ctx context.Context, req Req, v T) bool {
	return cache.Set(ctx, c.store, c.cfg.Key(req), v, c.cfg.TTL)
}

func (c *Cascade[Req, T]) fetch(ctx context.Context, key string, req Req) (T, error) {
	run := func() (T, error) {
		v, err := c.cfg.Fetch(ctx, req)
		if err != nil {
			return v, err
		}
		if c.cfg.Cacheable == nil || c.cfg.Cacheable(v) {
			cache.Set(ctx, c.store, key, v, c.cfg.TTL)
		}
		return v, nil
	}
	if c.sf == nil {
		return run()
	}
	out, err, _ := c.sf.Do(key, func() (any, error) { return run() })
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func nonEmpty[E any](s []E) bool { return len(s) > 0 }
