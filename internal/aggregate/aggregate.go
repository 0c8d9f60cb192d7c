// 包 aggregate：把各数据域组合成对外文档（坐标聚合 LocationInfo、地点 + 时区 GeoTimeInfo）
package aggregate

import (
	"context"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"geo-api/internal/geo"
	"geo-api/internal/logger"
	"geo-api/internal/model"
	"geo-api/internal/resolver"
	"geo-api/internal/timezone"
)

// 邮编区聚合的默认检索范围
const (
	DefaultZoneKm    = 5.0
	DefaultZoneLimit = 20
)

// ZoneFinder：本地时区名提示（tzf），可为空
type ZoneFinder interface {
	ZoneName(lat, lng float64) string
}

type Options struct {
	// PostalZoneCountries：邮编区数据可用的国家代码；为空表示不做邮编区聚合
	PostalZoneCountries []string
	// PostalZonesWhenUnknown：地点无法解析时仍尝试邮编区
	PostalZonesWhenUnknown bool
	ZoneKm                 float64
	ZoneLimit              int
	Finder                 ZoneFinder
}

type Aggregator struct {
	r         *resolver.Resolvers
	countries map[string]struct{}
	o         Options
}

func New(r *resolver.Resolvers, o Options) *Aggregator {
	if o.ZoneKm <= 0 {
		o.ZoneKm = DefaultZoneKm
	}
	if o.ZoneLimit <= 0 {
		o.ZoneLimit = DefaultZoneLimit
	}
	set := make(map[string]struct{}, len(o.PostalZoneCountries))
	for _, cc := range o.PostalZoneCountries {
		set[strings.ToUpper(strings.TrimSpace(cc))] = struct{}{}
	}
	return &Aggregator{r: r, countries: set, o: o}
}

// Locate：坐标聚合文档
// 约束：任何单域失败都不影响整体返回；Cached 只反映地点域
func (a *Aggregator) Locate(ctx context.Context, c geo.Coordinate) model.LocationInfo {
	start := time.Now()
	place, placeOK, cached := a.r.Place.Resolve(ctx, resolver.PlaceReq{Coord: c})

	var zones []model.PcZone
	if a.wantZones(place, placeOK) {
		zones = a.zones(ctx, c, place, placeOK)
	}

	var (
		weather *model.WeatherReport
		poi     []model.PlaceOfInterest
		wiki    []model.WikipediaSummary
		g       errgroup.Group
	)
	g.Go(func() error {
		if w, ok, _ := a.r.Weather.Resolve(ctx, c); ok {
			weather = &w
		}
		return nil
	})
	g.Go(func() error {
		poi, _, _ = a.r.POI.Resolve(ctx, c)
		return nil
	})
	g.Go(func() error {
		wiki, _, _ = a.r.Wiki.Resolve(ctx, c)
		return nil
	})
	_ = g.Wait()

	var places, states []model.SimplePlace
	if placeOK {
		places, states = place.Places(), place.States()
	}
	info := model.NewLocationInfo(zones, places, states, weather, poi, wiki)
	info.Cached = cached
	logger.L().Debug("aggregate_locate", "loc", c.String(), "cached", cached, "zones", len(zones), "ms", time.Since(start).Milliseconds())
	return info
}

func (a *Aggregator) wantZones(place model.PlaceSnapshot, ok bool) bool {
	if !ok {
		return a.o.PostalZonesWhenUnknown
	}
	_, has := a.countries[strings.ToUpper(place.CC)]
	return has
}

// zones：最近一条附带地点名并惰性补全地址；补全后重写该条件的缓存
func (a *Aggregator) zones(ctx context.Context, c geo.Coordinate, place model.PlaceSnapshot, placeOK bool) []model.PcZone {
	q := resolver.ZonesReq{Coord: c, Km: a.o.ZoneKm, Limit: a.o.ZoneLimit}.Normalize(a.o.ZoneKm)
	rows, ok, _ := a.r.Zones.Resolve(ctx, q)
	if !ok || len(rows) == 0 {
		return nil
	}
	// 结果可能与并发请求共享，修改前复制
	zones := slices.Clone(rows)
	if a.r.Addresses.Ensure(ctx, &zones[0]) {
		a.r.Zones.Put(ctx, q, zones)
	}
	if placeOK {
		zones[0].Pn = place.Name
	}
	return zones
}

// GeoTime：地点 + 时区
// 背景：地点未命中时上游一次返回地点与时区，直接采用该时区；命中时以时区名提示查询时区域
// 约束：返回的 bool 表示地点是否解析成功
func (a *Aggregator) GeoTime(ctx context.Context, c geo.Coordinate, dt string) (model.GeoTimeInfo, bool) {
	date := ""
	if _, ok := timezone.ParseDate(dt); ok {
		date = strings.TrimSpace(dt)
	}
	place, tz, ok, cached := a.r.PlaceTime(ctx, resolver.PlaceReq{Coord: c, Date: date})
	if !ok {
		return model.GeoTimeInfo{}, false
	}
	info := model.GeoTimeInfo{Place: &place, Cached: cached, Valid: true, Time: tz}
	if tz == nil {
		q := resolver.TzReq{Coord: c, Date: date}
		if cached {
			q.Zone = a.zoneHint(place, c)
		}
		if t, ok, _ := a.r.Timezone.Resolve(ctx, q); ok {
			info.Time = &t
		}
	}
	return info, true
}

func (a *Aggregator) zoneHint(place model.PlaceSnapshot, c geo.Coordinate) string {
	if timezone.IsValidZoneName(place.ZoneName) {
		return place.ZoneName
	}
	if a.o.Finder != nil {
		return a.o.Finder.ZoneName(c.Lat, c.Lng)
	}
	return ""
}

// Addresses：按邮编取邮编区并补全地址（/addresses）
func (a *Aggregator) Addresses(ctx context.Context, pc string) (model.PcZone, bool) {
	pc = strings.TrimSpace(pc)
	if pc == "" {
		return model.PcZone{}, false
	}
	z, err := a.r.ZoneByCode(ctx, pc)
	if err != nil {
		logger.L().Info("zone_lookup_fail", "pc", pc, "kind", resolver.Kind(err))
		return model.PcZone{}, false
	}
	a.r.Addresses.Ensure(ctx, &z)
	return z, true
}
