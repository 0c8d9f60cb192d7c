// 包 geotime：地点 + 时区上游（/geotz 与 /timezone）
package geotime

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"

	"geo-api/internal/geo"
	"geo-api/internal/model"
	"geo-api/internal/providers/httpx"
)

const name = "geotime"

type Client struct {
	base string
	http *httpx.Client
}

func New(base string, o httpx.Options) *Client {
	return &Client{base: base, http: httpx.New(name, o)}
}

func (c *Client) Name() string { return name }

func (c *Client) Heartbeat(ctx context.Context) error { return c.http.Ping(ctx, c.base+"/") }

// GeoTime：一次调用同时取回最近地点与时区
func (c *Client) GeoTime(ctx context.Context, coord geo.Coordinate, dt string) (model.PlaceSnapshot, *model.TzSnapshot, error) {
	q := url.Values{"loc": {coord.String()}}
	if dt != "" {
		q.Set("dt", dt)
	}
	b, err := c.http.Get(ctx, c.base, "/geotz", q)
	if err != nil {
		return model.PlaceSnapshot{}, nil, err
	}
	r, err := httpx.Object(name, b)
	if err != nil {
		return model.PlaceSnapshot{}, nil, err
	}
	if err := httpx.Require(name, r, "place", "time"); err != nil {
		return model.PlaceSnapshot{}, nil, err
	}
	place := ParsePlace(r.Get("place"))
	tz := ParseTimezone(r.Get("time"))
	return place, &tz, nil
}

// Timezone：zone 非空时按名称（zn）查询，否则按坐标（loc）
func (c *Client) Timezone(ctx context.Context, coord geo.Coordinate, zone, dt string) (model.TzSnapshot, error) {
	q := url.Values{}
	if zone != "" {
		q.Set("zn", zone)
	} else {
		q.Set("loc", coord.String())
	}
	if dt != "" {
		q.Set("dt", dt)
	}
	b, err := c.http.Get(ctx, c.base, "/timezone", q)
	if err != nil {
		return model.TzSnapshot{}, err
	}
	r, err := httpx.Object(name, b)
	if err != nil {
		return model.TzSnapshot{}, err
	}
	if err := httpx.Require(name, r, "abbreviation"); err != nil {
		return model.TzSnapshot{}, err
	}
	return ParseTimezone(r), nil
}

func ParsePlace(r gjson.Result) model.PlaceSnapshot {
	return model.PlaceSnapshot{
		Lng:         r.Get("lng").Float(),
		Lat:         r.Get("lat").Float(),
		Name:        r.Get("name").String(),
		Toponym:     r.Get("toponym").String(),
		Fcode:       r.Get("fcode").String(),
		Distance:    r.Get("distance").Float(),
		Pop:         uint32(r.Get("population").Uint()),
		AdminName:   r.Get("adminName").String(),
		Region:      r.Get("region").String(),
		CC:          r.Get("cc").String(),
		CountryName: r.Get("countryName").String(),
		ZoneName:    r.Get("zoneName").String(),
	}
}

// ParseTimezone：period 仅在 start 或 end 存在时保留
func ParseTimezone(r gjson.Result) model.TzSnapshot {
	s := model.TzSnapshot{
		Abbreviation:   r.Get("abbreviation").String(),
		CountryCode:    r.Get("countryCode").String(),
		DST:            r.Get("dst").Bool(),
		GmtOffset:      r.Get("gmtOffset").Int(),
		LocalDt:        r.Get("localDt").String(),
		RefUnix:        r.Get("refUnix").Int(),
		SolarUtcOffset: r.Get("solarUtcOffset").Int(),
		UTC:            r.Get("utc").String(),
		WeekDay:        uint8(r.Get("weekDay.iso").Uint()),
		ZoneName:       r.Get("zoneName").String(),
	}
	if p := r.Get("period"); p.IsObject() {
		next := p.Get("next_gmt_offset")
		if !next.Exists() {
			next = p.Get("nextGmtOffset")
		}
		tp := model.TzPeriod{
			Start:         httpx.OptInt(p.Get("start")),
			End:           httpx.OptInt(p.Get("end")),
			NextGmtOffset: httpx.OptInt(next),
		}
		if tp.Start != nil || tp.End != nil {
			s.Period = &tp
		}
	}
	return s
}
