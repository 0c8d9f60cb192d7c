package astro

import "math"

// 1970-01-01T00:00:00Z 的儒略日
const unixEpochJD = 2440587.5

// JulianDay：unix 秒 → 儒略日
func JulianDay(unix int64) float64 {
	return float64(unix)/86400 + unixEpochJD
}

// UnixFromJulian：儒略日 → unix 秒（四舍五入到秒）
func UnixFromJulian(jd float64) int64 {
	return int64(math.Round((jd - unixEpochJD) * 86400))
}
