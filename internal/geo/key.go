package geo

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxPlaces：键精度上限（7 位小数约 1cm）
const MaxPlaces = 7

// KeyOption：键修饰项；无论传入顺序，输出固定为 radius 在前、limit 在后
type KeyOption func(*keyMods)

type keyMods struct {
	radius    float64
	hasRadius bool
	limit     int
	hasLimit  bool
}

func WithRadius(km float64) KeyOption {
	return func(m *keyMods) { m.radius, m.hasRadius = km, true }
}

func WithLimit(n int) KeyOption {
	return func(m *keyMods) { m.limit, m.hasLimit = n, true }
}

// DeriveKey：近似缓存键 <prefix>_<lat>_<lng>[_<radius>][_<limit>]
// 背景：连续坐标按域精度取整后碰撞到同一键，以此约束缓存基数
// 约束：纯函数；取整为十进制最短表示上的“四舍五入（远离零）”，输出固定 places 位小数、不使用指数记法
func DeriveKey(prefix string, c Coordinate, places int, opts ...KeyOption) string {
	var m keyMods
	for _, o := range opts {
		o(&m)
	}
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('_')
	b.WriteString(ApproxKey(c, places))
	if m.hasRadius {
		b.WriteByte('_')
		b.WriteString(strconv.FormatFloat(m.radius, 'f', -1, 64))
	}
	if m.hasLimit {
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(m.limit))
	}
	return b.String()
}

// ApproxKey：键主体 <lat>_<lng>，供自带后缀的域（时区日期桶、天文时间桶）组合
func ApproxKey(c Coordinate, places int) string {
	return RoundFixed(c.Lat, places) + "_" + RoundFixed(c.Lng, places)
}

// RoundFixed：按 places 位小数取整并定宽输出；负零输出为 0
func RoundFixed(v float64, places int) string {
	if places < 0 {
		places = 0
	}
	if places > MaxPlaces {
		places = MaxPlaces
	}
	p := int32(places)
	return decimal.NewFromFloat(v).Round(p).StringFixed(p)
}
