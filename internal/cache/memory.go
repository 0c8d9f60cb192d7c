package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend：进程内 TTL 映射
// 背景：未配置 Redis 时的替代后端，也用于测试；热点坐标在单实例内仍可复用
// 约束：仅按 TTL 过期，不做容量淘汰；过期项在读取时惰性删除
type MemoryBackend struct {
	mu   sync.Mutex
	now  func() time.Time
	dict map[string]memItem
}

type memItem struct {
	v   string
	exp time.Time // 零值表示不过期
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{now: time.Now, dict: make(map[string]memItem)}
}

// WithClock：替换时钟（测试用）
func (m *MemoryBackend) WithClock(now func() time.Time) *MemoryBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.dict[key]
	if !ok {
		return "", ErrMiss
	}
	if !it.exp.IsZero() && !m.now().Before(it.exp) {
		delete(m.dict, key)
		return "", ErrMiss
	}
	return it.v, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := memItem{v: value}
	if ttl > 0 {
		it.exp = m.now().Add(ttl)
	}
	m.dict[key] = it
	return nil
}

func (m *MemoryBackend) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dict, key)
	return nil
}

// Len：当前条目数（含未被读到的过期项）
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dict)
}
