package resolver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"geo-api/internal/cache"
	"geo-api/internal/geo"
	"geo-api/internal/logger"
	"geo-api/internal/model"
	"geo-api/internal/timezone"
)

// 各域缓存有效期
const (
	PlaceTTL    = 0
	ZonesTTL    = 0
	WeatherTTL  = 30 * time.Minute
	POITTL      = 31 * 24 * time.Hour
	WikiTTL     = 3 * 31 * 24 * time.Hour
	TimezoneTTL = 15 * time.Minute
	AstroTTL    = 30 * time.Minute
)

// 邮编检索参数
const (
	MinZoneLimit = 2
	MaxZoneLimit = 1000

	DefaultPostcodeKm    = 10.0
	DefaultPostcodeLimit = 10
	SummaryKm            = 15.0
	SummaryLimit         = 1

	astroBucketSecs = 1800
)

type PlaceReq struct {
	Coord geo.Coordinate
	Date  string
}

// TzReq：Zone 为有效时区名时按名缓存与查询
// ZoneOnly：坐标未知（仅给出时区名），此时不按经度重算太阳时偏移
type TzReq struct {
	Coord    geo.Coordinate
	Zone     string
	Date     string
	ZoneOnly bool
}

type ZonesReq struct {
	Coord geo.Coordinate
	Km    float64
	Limit int
}

// Normalize：限定条数到 [2,1000]；半径非正时取默认
func (r ZonesReq) Normalize(defaultKm float64) ZonesReq {
	if r.Km <= 0 {
		r.Km = defaultKm
	}
	r.Limit = ClampLimit(r.Limit)
	return r
}

type AstroReq struct {
	Coord geo.Coordinate
	Unix  *int64
}

func ClampLimit(n int) int {
	if n < MinZoneLimit {
		return MinZoneLimit
	}
	if n > MaxZoneLimit {
		return MaxZoneLimit
	}
	return n
}

// Options：与域无关的运行参数
type Options struct {
	SingleFlight bool
	CheckTTL     time.Duration
	Now          func() time.Time
}

// Resolvers：全部数据域实例
type Resolvers struct {
	Place     *Cascade[PlaceReq, model.PlaceSnapshot]
	Timezone  *Cascade[TzReq, model.TzSnapshot]
	Zones     *Cascade[ZonesReq, []model.PcZone]
	Postcodes *Cascade[ZonesReq, []model.PcRow]
	Weather   *Cascade[geo.Coordinate, model.WeatherReport]
	POI       *Cascade[geo.Coordinate, []model.PlaceOfInterest]
	Wiki      *Cascade[geo.Coordinate, []model.WikipediaSummary]
	Astro     *Cascade[AstroReq, model.AstroData]
	Addresses *AddressGate

	p   Providers
	now func() time.Time
	sf  *singleflight.Group
}

func New(store *cache.Store, p Providers, o Options) *Resolvers {
	r := &Resolvers{p: p, now: o.Now}
	if r.now == nil {
		r.now = time.Now
	}
	sf := o.SingleFlight
	if sf {
		r.sf = &singleflight.Group{}
	}

	r.Place = NewCascade(store, DomainConfig[PlaceReq, model.PlaceSnapshot]{
		Domain:       "place",
		TTL:          PlaceTTL,
		SingleFlight: sf,
		Key:          func(q PlaceReq) string { return geo.DeriveKey("place", q.Coord, 5) },
		Fetch:        r.fetchPlace,
	})
	r.Timezone = NewCascade(store, DomainConfig[TzReq, model.TzSnapshot]{
		Domain:       "tz",
		TTL:          TimezoneTTL,
		SingleFlight: sf,
		Key:          TimezoneKey,
		Fetch:        r.fetchTimezone,
		OnHit:        r.reconcile,
	})
	r.Zones = NewCascade(store, DomainConfig[ZonesReq, []model.PcZone]{
		Domain:       "pzones",
		TTL:          ZonesTTL,
		SingleFlight: sf,
		Key:          zonesKey("pzones"),
		Fetch:        r.fetchZones,
		Cacheable:    nonEmpty[model.PcZone],
	})
	r.Postcodes = NewCascade(store, DomainConfig[ZonesReq, []model.PcRow]{
		Domain:       "pc",
		TTL:          ZonesTTL,
		SingleFlight: sf,
		Key:          zonesKey("pc"),
		Fetch:        r.fetchPostcodes,
		Cacheable:    nonEmpty[model.PcRow],
	})
	r.Weather = NewCascade(store, DomainConfig[geo.Coordinate, model.WeatherReport]{
		Domain:       "weather",
		TTL:          WeatherTTL,
		SingleFlight: sf,
		Key:          coordKey("weather", 1),
		Fetch:        r.fetchWeather,
	})
	r.POI = NewCascade(store, DomainConfig[geo.Coordinate, []model.PlaceOfInterest]{
		Domain:       "plofint",
		TTL:          POITTL,
		SingleFlight: sf,
		Key:          coordKey("plofint", 3),
		Fetch:        r.fetchPOI,
		Cacheable:    nonEmpty[model.PlaceOfInterest],
	})
	r.Wiki = NewCascade(store, DomainConfig[geo.Coordinate, []model.WikipediaSummary]{
		Domain:       "wiki",
		TTL:          WikiTTL,
		SingleFlight: sf,
		Key:          coordKey("wiki", 3),
		Fetch:        r.fetchWiki,
		Cacheable:    nonEmpty[model.WikipediaSummary],
	})
	r.Astro = NewCascade(store, DomainConfig[AstroReq, model.AstroData]{
		Domain:       "astro",
		TTL:          AstroTTL,
		SingleFlight: sf,
		Key:          AstroKey,
		Fetch:        r.fetchAstro,
		OnHit:        r.astroAge,
	})

	var saver AddressSaver
	if p.Zones != nil {
		saver = p.Zones
	}
	r.Addresses = NewAddressGate(cache.NewNegativeRegistry(store, o.CheckTTL), p.Addresses, saver)
	return r
}

func coordKey(prefix string, places int) func(geo.Coordinate) string {
	return func(c geo.Coordinate) string { return geo.DeriveKey(prefix, c, places) }
}

func zonesKey(prefix string) func(ZonesReq) string {
	return func(q ZonesReq) string {
		return geo.DeriveKey(prefix, q.Coord, 6, geo.WithRadius(q.Km), geo.WithLimit(q.Limit))
	}
}

// TimezoneKey：tz_<3位小数坐标>_<日期|c> 或 tz_zn_<时区名>_<日期|c>
func TimezoneKey(q TzReq) string {
	dk := timezone.DateKey(q.Date)
	if timezone.IsValidZoneName(q.Zone) {
		return "tz_zn_" + q.Zone + "_" + dk
	}
	return "tz_" + geo.ApproxKey(q.Coord, 3) + "_" + dk
}

// AstroKey：astro_data_<2位小数坐标>_<unix/1800|c>，同一半小时内共享
func AstroKey(q AstroReq) string {
	bucket := "c"
	if q.Unix != nil {
		bucket = strconv.FormatInt(*q.Unix/astroBucketSecs, 10)
	}
	return "astro_data_" + geo.ApproxKey(q.Coord, 2) + "_" + bucket
}

func (r *Resolvers) fetchPlace(ctx context.Context, q PlaceReq) (model.PlaceSnapshot, error) {
	place, _, err := r.fetchPlaceTime(ctx, q)
	return place, err
}

// fetchPlaceTime：地点未命中时一次取回地点与时区；地点附带最近邮编摘要，时区旁路写入时区缓存
func (r *Resolvers) fetchPlaceTime(ctx context.Context, q PlaceReq) (model.PlaceSnapshot, *model.TzSnapshot, error) {
	if r.p.GeoTime == nil {
		return model.PlaceSnapshot{}, nil, fmt.Errorf("place: %w", ErrUnavailable)
	}
	place, tz, err := r.p.GeoTime.GeoTime(ctx, q.Coord, q.Date)
	if err != nil {
		return place, nil, err
	}
	if info, ok := r.NearestPostcode(ctx, q.Coord); ok {
		place.PC = &info
	}
	if tz != nil {
		s := timezone.WithSolarOffset(*tz, q.Coord.Lng)
		r.Timezone.Put(ctx, TzReq{Coord: q.Coord, Date: q.Date}, s)
		tz = &s
	}
	return place, tz, nil
}

type placeTime struct {
	place model.PlaceSnapshot
	tz    *model.TzSnapshot
}

// PlaceTime：地点 + 时区
// 约束：地点未命中时直接使用同一次上游调用带回的时区（已推进到请求日期），不再查询时区域；
// 返回的 tz 为 nil 表示需由调用方经时区域获取
func (r *Resolvers) PlaceTime(ctx context.Context, q PlaceReq) (place model.PlaceSnapshot, tz *model.TzSnapshot, ok, cached bool) {
	if p, hit := r.Place.Peek(ctx, q); hit {
		return p, nil, true, true
	}
	load := func() (placeTime, error) {
		p, t, err := r.fetchPlaceTime(ctx, q)
		if err != nil {
			return placeTime{}, err
		}
		r.Place.Put(ctx, q, p)
		return placeTime{place: p, tz: t}, nil
	}
	var (
		pt  placeTime
		err error
	)
	if r.sf == nil {
		pt, err = load()
	} else {
		var v any
		v, err, _ = r.sf.Do(r.Place.Key(q), func() (any, error) { return load() })
		if err == nil {
			pt = v.(placeTime)
		}
	}
	if err != nil {
		logger.L().Info("resolver_unresolved", "domain", "place", "kind", Kind(err), "err", err)
		return model.PlaceSnapshot{}, nil, false, false
	}
	if pt.tz != nil {
		t := r.reconcile(TzReq{Coord: q.Coord, Date: q.Date}, pt.tz.Clone())
		tz = &t
	}
	return pt.place, tz, true, false
}

// NearestPostcode：半径 15km 内最近邮编摘要
func (r *Resolvers) NearestPostcode(ctx context.Context, c geo.Coordinate) (model.PcInfo, bool) {
	q := ZonesReq{Coord: c, Km: SummaryKm, Limit: SummaryLimit}.Normalize(SummaryKm)
	rows, ok, _ := r.Postcodes.Resolve(ctx, q)
	if !ok || len(rows) == 0 {
		return model.PcInfo{}, false
	}
	return rows[0].Info(), true
}

func (r *Resolvers) fetchTimezone(ctx context.Context, q TzReq) (model.TzSnapshot, error) {
	if r.p.GeoTime == nil {
		return model.TzSnapshot{}, fmt.Errorf("tz: %w", ErrUnavailable)
	}
	zone := ""
	if timezone.IsValidZoneName(q.Zone) {
		zone = q.Zone
	}
	if q.ZoneOnly && zone == "" {
		return model.TzSnapshot{}, fmt.Errorf("tz: %w: zone %q", ErrMalformed, q.Zone)
	}
	s, err := r.p.GeoTime.Timezone(ctx, q.Coord, zone, q.Date)
	if err != nil {
		return s, err
	}
	if q.ZoneOnly {
		return s, nil
	}
	return timezone.WithSolarOffset(s, q.Coord.Lng), nil
}

// reconcile：命中后推进到请求日期（无有效日期时为当前）
func (r *Resolvers) reconcile(q TzReq, s model.TzSnapshot) model.TzSnapshot {
	var target *int64
	if t, ok := timezone.ParseDate(q.Date); ok {
		u := t.Unix()
		target = &u
	}
	s = timezone.Reconcile(s, target, r.now)
	if q.ZoneOnly {
		return s
	}
	return timezone.WithSolarOffset(s, q.Coord.Lng)
}

func (r *Resolvers) fetchZones(ctx context.Context, q ZonesReq) ([]model.PcZone, error) {
	if r.p.Zones == nil {
		return nil, fmt.Errorf("pzones: %w", ErrUnavailable)
	}
	return r.p.Zones.NearbyZones(ctx, q.Coord, q.Km, q.Limit)
}

func (r *Resolvers) fetchPostcodes(ctx context.Context, q ZonesReq) ([]model.PcRow, error) {
	if r.p.Zones == nil {
		return nil, fmt.Errorf("pc: %w", ErrUnavailable)
	}
	return r.p.Zones.NearbyPostcodes(ctx, q.Coord, q.Km, q.Limit)
}

func (r *Resolvers) fetchWeather(ctx context.Context, c geo.Coordinate) (model.WeatherReport, error) {
	if r.p.Weather == nil {
		return model.WeatherReport{}, fmt.Errorf("weather: %w", ErrUnavailable)
	}
	return r.p.Weather.Weather(ctx, c)
}

func (r *Resolvers) fetchPOI(ctx context.Context, c geo.Coordinate) ([]model.PlaceOfInterest, error) {
	if r.p.POI == nil {
		return nil, fmt.Errorf("plofint: %w", ErrUnavailable)
	}
	return r.p.POI.PlacesOfInterest(ctx, c)
}

func (r *Resolvers) fetchWiki(ctx context.Context, c geo.Coordinate) ([]model.WikipediaSummary, error) {
	if r.p.Wiki == nil {
		return nil, fmt.Errorf("wiki: %w", ErrUnavailable)
	}
	return r.p.Wiki.WikiSummaries(ctx, c)
}

func (r *Resolvers) fetchAstro(ctx context.Context, q AstroReq) (model.AstroData, error) {
	if r.p.Astro == nil {
		return model.AstroData{}, fmt.Errorf("astro: %w", ErrUnavailable)
	}
	return r.p.Astro.Astro(ctx, q.Coord, q.Unix)
}

// astroAge：命中时记录缓存年龄（秒）
func (r *Resolvers) astroAge(_ AstroReq, a model.AstroData) model.AstroData {
	age := r.now().Unix() - a.Time
	a.AgeSecs = &age
	return a
}

// ZoneByCode：按邮编直接读取邮编区（不缓存，地址可能随时被补全）
func (r *Resolvers) ZoneByCode(ctx context.Context, pc string) (model.PcZone, error) {
	if r.p.Zones == nil {
		return model.PcZone{}, fmt.Errorf("zones: %w", ErrUnavailable)
	}
	return r.p.Zones.ZoneByCode(ctx, pc)
}
