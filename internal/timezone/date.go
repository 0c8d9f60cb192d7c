package timezone

import (
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// ParseDate：宽松解析请求中的 dt（ISO 日期、日期时间、常见格式），无时区信息时按 UTC
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// DateKey：时区缓存键的日期段；无有效日期时为 "c"（当前）
// 约束：除去首尾空白外不做任何规范化，不同写法视为不同键
func DateKey(dt string) string {
	dt = strings.TrimSpace(dt)
	if dt == "" {
		return "c"
	}
	if _, ok := ParseDate(dt); !ok {
		return "c"
	}
	return dt
}

// IsValidZoneName：IANA 风格名称（Area/Location），仅允许字母数字与 / _ - +
func IsValidZoneName(zn string) bool {
	if len(zn) < 3 || !strings.Contains(zn, "/") || strings.HasPrefix(zn, "/") || strings.HasSuffix(zn, "/") {
		return zn == "UTC" || zn == "GMT"
	}
	for _, r := range zn {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("/_-+", r)) {
			return false
		}
	}
	return true
}
