// 包 providers：上游数据源注册与健康心跳
package providers

import (
	"context"
	"sort"
	"sync"
	"time"

	"geo-api/internal/logger"
	"geo-api/internal/metrics"
)

// Provider：可被心跳探测的上游
// 约束：Heartbeat 应轻量且有超时；失败仅影响健康展示与指标，不摘除解析路径（解析失败由熔断器处理）
type Provider interface {
	Name() string
	Heartbeat(ctx context.Context) error
}

// Status：最近一次心跳结果
type Status struct {
	Name    string    `json:"name"`
	Healthy bool      `json:"healthy"`
	Last    time.Time `json:"last"`
	Error   string    `json:"error,omitempty"`
}

// Registry：上游注册表
// 背景：统一登记各数据源，周期心跳更新健康状态供 /health 与指标使用
// 约束：心跳默认 30s；线程安全读写；心跳在锁外执行，慢上游不阻塞读取
type Registry struct {
	mu         sync.RWMutex
	ps         map[string]Provider
	st         map[string]Status
	hbInterval time.Duration
	hbTimeout  time.Duration
}

func NewRegistry(every time.Duration) *Registry {
	if every <= 0 {
		every = 30 * time.Second
	}
	return &Registry{ps: make(map[string]Provider), st: make(map[string]Status), hbInterval: every, hbTimeout: 5 * time.Second}
}

// Register：注册后默认视为健康
func (m *Registry) Register(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ps[p.Name()] = p
	m.st[p.Name()] = Status{Name: p.Name(), Healthy: true, Last: time.Now()}
	logger.L().Info("provider_registered", "name", p.Name())
}

// Statuses：按名称排序的快照
func (m *Registry) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, 0, len(m.st))
	for _, s := range m.st {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Healthy：全部上游健康
func (m *Registry) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.st {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// Start：启动心跳循环；ctx 取消时停止
func (m *Registry) Start(ctx context.Context) {
	t := time.NewTicker(m.hbInterval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.Beat(ctx)
			}
		}
	}()
}

// Beat：执行一轮心跳
func (m *Registry) Beat(ctx context.Context) {
	m.mu.RLock()
	ps := make([]Provider, 0, len(m.ps))
	for _, p := range m.ps {
		ps = append(ps, p)
	}
	m.mu.RUnlock()

	for _, p := range ps {
		hctx, cancel := context.WithTimeout(ctx, m.hbTimeout)
		err := p.Heartbeat(hctx)
		cancel()
		s := Status{Name: p.Name(), Healthy: err == nil, Last: time.Now()}
		if err != nil {
			s.Error = err.Error()
			logger.L().Debug("provider_heartbeat_fail", "name", p.Name(), "err", err)
			metrics.ProviderHeartbeatTotal.WithLabelValues(p.Name(), "fail").Inc()
		} else {
			logger.L().Debug("provider_heartbeat_ok", "name", p.Name())
			metrics.ProviderHeartbeatTotal.WithLabelValues(p.Name(), "ok").Inc()
		}
		m.mu.Lock()
		m.st[p.Name()] = s
		m.mu.Unlock()
	}
}
