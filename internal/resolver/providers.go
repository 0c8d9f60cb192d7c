package resolver

import (
	"context"

	"geo-api/internal/geo"
	"geo-api/internal/model"
)

// 上游能力接口；实现位于 internal/providers，测试使用内存假实现
// 约束：失败返回包装了 ErrUnavailable / ErrMalformed / ErrEmpty 的错误

// GeoTimeProvider：地点 + 时区服务
type GeoTimeProvider interface {
	// GeoTime：坐标最近地点与该地时区（同一次上游调用）；dt 为空表示当前
	GeoTime(ctx context.Context, c geo.Coordinate, dt string) (model.PlaceSnapshot, *model.TzSnapshot, error)
	// Timezone：zone 非空时按时区名查询，否则按坐标
	Timezone(ctx context.Context, c geo.Coordinate, zone, dt string) (model.TzSnapshot, error)
}

// ZoneProvider：邮编区地理检索（半径内、由近及远、限定条数）
type ZoneProvider interface {
	NearbyZones(ctx context.Context, c geo.Coordinate, km float64, limit int) ([]model.PcZone, error)
	NearbyPostcodes(ctx context.Context, c geo.Coordinate, km float64, limit int) ([]model.PcRow, error)
	ZoneByCode(ctx context.Context, pc string) (model.PcZone, error)
	SaveAddresses(ctx context.Context, pc string, addresses []string) error
}

// AddressProvider：按邮编获取街道地址（昂贵、限流敏感）
type AddressProvider interface {
	Addresses(ctx context.Context, pc string) ([]string, error)
}

type WeatherProvider interface {
	Weather(ctx context.Context, c geo.Coordinate) (model.WeatherReport, error)
}

type POIProvider interface {
	PlacesOfInterest(ctx context.Context, c geo.Coordinate) ([]model.PlaceOfInterest, error)
}

type WikiProvider interface {
	WikiSummaries(ctx context.Context, c geo.Coordinate) ([]model.WikipediaSummary, error)
}

// AstroProvider：ts 为 nil 表示当前时刻
type AstroProvider interface {
	Astro(ctx context.Context, c geo.Coordinate, ts *int64) (model.AstroData, error)
}

// Providers：按需注入；缺失的能力在对应域上表现为 ErrUnavailable
type Providers struct {
	GeoTime   GeoTimeProvider
	Zones     ZoneProvider
	Addresses AddressProvider
	Weather   WeatherProvider
	POI       POIProvider
	Wiki      WikiProvider
	Astro     AstroProvider
}
