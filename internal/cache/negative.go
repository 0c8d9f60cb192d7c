package cache

import (
	"context"
	"strings"
	"time"
	"unicode"

	"geo-api/internal/metrics"
)

// DefaultCheckTTL：负向检查标记默认保留 183 天
const DefaultCheckTTL = 183 * 24 * time.Hour

const checkPrefix = "address_check_"

// NegativeRegistry：记录“已尝试过的昂贵查询”，与正向结果缓存分离
// 背景：许多邮编在上游确实没有地址列表，反复请求只增加成本与限流风险
type NegativeRegistry struct {
	s   *Store
	ttl time.Duration
}

// NewNegativeRegistry：ttl<=0 时使用 DefaultCheckTTL
func NewNegativeRegistry(s *Store, ttl time.Duration) *NegativeRegistry {
	if ttl <= 0 {
		ttl = DefaultCheckTTL
	}
	return &NegativeRegistry{s: s, ttl: ttl}
}

func (r *NegativeRegistry) TTL() time.Duration { return r.ttl }

// HasBeenChecked：标记存在即视为已检查；后端故障时返回 false（允许重试）
func (r *NegativeRegistry) HasBeenChecked(ctx context.Context, id string) bool {
	if r == nil {
		return false
	}
	return r.s.Has(ctx, CheckKey(id))
}

// MarkChecked：写入标记；ttl<=0 时使用登记器默认值
func (r *NegativeRegistry) MarkChecked(ctx context.Context, id string, ttl time.Duration) bool {
	if r == nil {
		return false
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	ok := Set(ctx, r.s, CheckKey(id), 1, ttl)
	if ok {
		metrics.NegativeMarksTotal.Inc()
	}
	return ok
}

// CheckKey：规范化身份并生成键；首尾空白去除，内部每段空白替换为单个下划线
// 例：" SW1A  1AA " → address_check_SW1A_1AA
func CheckKey(id string) string {
	return checkPrefix + strings.Join(strings.FieldsFunc(id, unicode.IsSpace), "_")
}
