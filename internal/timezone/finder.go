package timezone

import (
	"fmt"
	"sync"

	"github.com/ringsaturn/tzf"
)

// Finder：本地坐标 → IANA 时区名（tzf 内置多边形数据）
// 背景：缓存的地点缺少 zoneName 时用作时区查询提示，减少按坐标查询的上游负担
type Finder struct {
	f tzf.F
}

var (
	defaultFinder *Finder
	finderOnce    sync.Once
	finderErr     error
)

// DefaultFinder：进程内单例（多边形数据加载一次，约数十 MB）
func DefaultFinder() (*Finder, error) {
	finderOnce.Do(func() {
		f, err := tzf.NewDefaultFinder()
		if err != nil {
			finderErr = fmt.Errorf("timezone: init finder: %w", err)
			return
		}
		defaultFinder = &Finder{f: f}
	})
	return defaultFinder, finderErr
}

// ZoneName：未找到或 Finder 为空时返回空串
func (f *Finder) ZoneName(lat, lng float64) string {
	if f == nil || f.f == nil {
		return ""
	}
	return f.f.GetTimezoneName(lng, lat)
}
