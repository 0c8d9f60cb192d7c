package model

// TzPeriod：下一次时区切换（DST）描述
type TzPeriod struct {
	Start         *int64 `json:"start"`
	End           *int64 `json:"end,omitempty"`
	NextGmtOffset *int64 `json:"nextGmtOffset,omitempty"`
}

// TzSnapshot：某一时刻的时区状态
// 约束：缓存命中后由 timezone.Reconcile 在副本上推进到目标时刻，推进结果不回写缓存
type TzSnapshot struct {
	Abbreviation   string    `json:"abbreviation"`
	CountryCode    string    `json:"countryCode"`
	DST            bool      `json:"dst"`
	GmtOffset      int64     `json:"gmtOffset"`
	LocalDt        string    `json:"localDt"`
	Period         *TzPeriod `json:"period,omitempty"`
	RefUnix        int64     `json:"refUnix"`
	SolarUtcOffset int64     `json:"solarUtcOffset"`
	UTC            string    `json:"utc"`
	WeekDay        uint8     `json:"weekDay"`
	ZoneName       string    `json:"zone_name"`
}

// Clone：深拷贝 Period，避免协调时改动共享指针
func (s TzSnapshot) Clone() TzSnapshot {
	if s.Period == nil {
		return s
	}
	p := *s.Period
	p.Start = cloneInt(p.Start)
	p.End = cloneInt(p.End)
	p.NextGmtOffset = cloneInt(p.NextGmtOffset)
	s.Period = &p
	return s
}

func cloneInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

// Int64：构造可选整数
func Int64(v int64) *int64 { return &v }
