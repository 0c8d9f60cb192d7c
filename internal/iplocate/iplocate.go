// 包 iplocate：请求未携带坐标时，按来访 IP 查询 GeoIP2 City 库得到近似坐标
package iplocate

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"

	"geo-api/internal/geo"
)

var (
	ErrInvalidDatabase = errors.New("iplocate: invalid database file")
	ErrInvalidIP       = errors.New("iplocate: ip empty or invalid")
	ErrNoLocation      = errors.New("iplocate: no location for ip")
)

// Locator：只读，可并发使用
type Locator struct {
	db *geoip2.Reader
}

// Open：库文件缺失或格式错误统一为 ErrInvalidDatabase
func Open(path string) (*Locator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) || errors.As(err, &maxminddb.InvalidDatabaseError{}) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDatabase, path)
		}
		return nil, fmt.Errorf("iplocate: open %s: %w", path, err)
	}
	return &Locator{db: db}, nil
}

func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Locate：IP → 城市级坐标；库中无坐标（0,0 且无精度半径）视为无结果
func (l *Locator) Locate(ip string) (geo.Coordinate, error) {
	if l == nil || l.db == nil {
		return geo.Coordinate{}, ErrNoLocation
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return geo.Coordinate{}, ErrInvalidIP
	}
	rec, err := l.db.City(parsed)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("iplocate: lookup %s: %w", ip, err)
	}
	loc := rec.Location
	if loc.Latitude == 0 && loc.Longitude == 0 && loc.AccuracyRadius == 0 {
		return geo.Coordinate{}, ErrNoLocation
	}
	return geo.New(loc.Latitude, loc.Longitude), nil
}

// ClientIP：来访 IP
// 背景：多层代理下依次取常见反向代理头，最后回退远端地址
// 约束：头部可被伪造，仅用于近似定位，不做鉴权
func ClientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(x)
		}
	}
	if x := h.Get("forwarded"); x != "" {
		if i := strings.Index(strings.ToLower(x), "for="); i >= 0 {
			y := strings.Trim(x[i+4:], "\" ")
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			return strings.Trim(y, "\" ")
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// 边缘节点注入的地理头（EdgeOne、Cloudflare）
var headerPairs = [][2]string{
	{"X-EO-Geo-Latitude", "X-EO-Geo-Longitude"},
	{"CF-IPLatitude", "CF-IPLongitude"},
}

// FromHeaders：CDN 已按来访 IP 定位时直接取其坐标，免去本地库查询
// 约束：解析失败或越界视为不存在
func FromHeaders(r *http.Request) (geo.Coordinate, bool) {
	for _, p := range headerPairs {
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(r.Header.Get(p[0])), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(r.Header.Get(p[1])), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		c := geo.New(lat, lng)
		if c.Validate() == nil {
			return c, true
		}
	}
	return geo.Coordinate{}, false
}
