// 包 timezone：时区快照协调（按缓存的 DST 周期推进到目标时刻）、太阳时偏移与日期解析
package timezone

import (
	"math"
	"time"

	"geo-api/internal/model"
)

// Layout：无时区后缀的秒级 ISO 时间
const Layout = "2006-01-02T15:04:05"

// Reconcile：把缓存的时区快照推进到 target（nil 时取 now()）
// 约束：在副本上计算，不修改入参；若 period.start <= target，偏移切换为 period.nextGmtOffset（缺省保持不变）
// 约束：abbreviation、dst、period 保持缓存值，直到下次上游刷新
func Reconcile(s model.TzSnapshot, target *int64, now func() time.Time) model.TzSnapshot {
	out := s.Clone()
	var ts int64
	if target != nil {
		ts = *target
	} else {
		if now == nil {
			now = time.Now
		}
		ts = now().Unix()
	}
	if p := out.Period; p != nil && p.Start != nil && *p.Start <= ts && p.NextGmtOffset != nil {
		out.GmtOffset = *p.NextGmtOffset
	}
	local := time.Unix(ts+out.GmtOffset, 0).UTC()
	out.LocalDt = local.Format(Layout)
	out.UTC = time.Unix(ts, 0).UTC().Format(Layout)
	out.WeekDay = ISOWeekday(local)
	out.RefUnix = ts
	return out
}

// ISOWeekday：周一=1 … 周日=7
func ISOWeekday(t time.Time) uint8 {
	wd := t.Weekday()
	if wd == time.Sunday {
		return 7
	}
	return uint8(wd)
}

// SolarOffsetSeconds：仅由经度推算的太阳时偏移
// 公式：分钟 = ((lng + 540) mod 360 − 180) × 4；±180 两侧均落在 −720 分钟
func SolarOffsetSeconds(lng float64) int64 {
	m := (math.Mod(lng+540, 360) - 180) * 4
	return int64(math.Round(m * 60))
}

// WithSolarOffset：已知经度时总是重算 solarUtcOffset，无论快照是否来自缓存
func WithSolarOffset(s model.TzSnapshot, lng float64) model.TzSnapshot {
	s.SolarUtcOffset = SolarOffsetSeconds(lng)
	return s
}
