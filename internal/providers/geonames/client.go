// 包 geonames：GeoNames 天气、兴趣点与维基摘要
package geonames

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"geo-api/internal/geo"
	"geo-api/internal/model"
	"geo-api/internal/providers/httpx"
	"geo-api/internal/resolver"
)

const name = "geonames"

// 服务方法名
const (
	methodWeather   = "/findNearByWeatherJSON"
	methodPOI       = "/findNearbyPOIsOSMJSON"
	methodWikipedia = "/findNearbyWikipediaJSON"
)

type Client struct {
	base     string
	username string
	http     *httpx.Client
}

func New(base, username string, o httpx.Options) *Client {
	return &Client{base: strings.TrimRight(base, "/"), username: username, http: httpx.New(name, o)}
}

func (c *Client) Name() string { return name }

func (c *Client) Heartbeat(ctx context.Context) error { return c.http.Ping(ctx, c.base+"/") }

func (c *Client) call(ctx context.Context, method string, coord geo.Coordinate, extra url.Values) (gjson.Result, error) {
	q := url.Values{
		"username": {c.username},
		"lat":      {strconv.FormatFloat(coord.Lat, 'f', -1, 64)},
		"lng":      {strconv.FormatFloat(coord.Lng, 'f', -1, 64)},
	}
	for k, v := range extra {
		q[k] = v
	}
	b, err := c.http.Get(ctx, c.base, method, q)
	if err != nil {
		return gjson.Result{}, err
	}
	r, err := httpx.Object(name, b)
	if err != nil {
		return gjson.Result{}, err
	}
	// 服务端错误以 200 + status 对象返回（额度耗尽、参数错误等）
	if st := r.Get("status"); st.IsObject() {
		return gjson.Result{}, fmt.Errorf("%s%s: %w: %s (%d)", name, method, resolver.ErrUnavailable,
			st.Get("message").String(), st.Get("value").Int())
	}
	return r, nil
}

func (c *Client) Weather(ctx context.Context, coord geo.Coordinate) (model.WeatherReport, error) {
	r, err := c.call(ctx, methodWeather, coord, nil)
	if err != nil {
		return model.WeatherReport{}, err
	}
	w := r.Get("weatherObservation")
	if !w.IsObject() {
		return model.WeatherReport{}, fmt.Errorf("%s%s: %w", name, methodWeather, resolver.ErrEmpty)
	}
	return model.WeatherReport{
		Lat:         w.Get("lat").Float(),
		Lng:         w.Get("lng").Float(),
		Datetime:    w.Get("datetime").String(),
		Temperature: w.Get("temperature").Float(),
		Humidity:    w.Get("humidity").Float(),
		WindSpeed:   w.Get("windSpeed").Float(),
		DewPoint:    w.Get("dewPoint").Float(),
		StationName: w.Get("stationName").String(),
		Clouds:      w.Get("clouds").String(),
	}, nil
}

// PlacesOfInterest：1km 内兴趣点；按名称去重，名称为空时使用类型名
func (c *Client) PlacesOfInterest(ctx context.Context, coord geo.Coordinate) ([]model.PlaceOfInterest, error) {
	r, err := c.call(ctx, methodPOI, coord, url.Values{"radius": {"1"}, "style": {"full"}})
	if err != nil {
		return nil, err
	}
	var rows []model.PlaceOfInterest
	r.Get("poi").ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			return true
		}
		p := model.PlaceOfInterest{
			Lng:       v.Get("lng").Float(),
			Lat:       v.Get("lat").Float(),
			Distance:  v.Get("distance").Float(),
			Name:      strings.TrimSpace(v.Get("name").String()),
			TypeClass: v.Get("typeClass").String(),
			TypeName:  v.Get("typeName").String(),
		}
		if p.Name == "" {
			p.Name = p.TypeName
		}
		rows = append(rows, p)
		return true
	})
	return lo.UniqBy(rows, func(p model.PlaceOfInterest) string { return p.Name }), nil
}

// WikiSummaries：rank 缺失时为 -1
func (c *Client) WikiSummaries(ctx context.Context, coord geo.Coordinate) ([]model.WikipediaSummary, error) {
	r, err := c.call(ctx, methodWikipedia, coord, nil)
	if err != nil {
		return nil, err
	}
	rows := []model.WikipediaSummary{}
	r.Get("geonames").ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			return true
		}
		rank := int64(-1)
		if rv := httpx.OptInt(v.Get("rank")); rv != nil {
			rank = *rv
		}
		rows = append(rows, model.WikipediaSummary{
			Lat:          v.Get("lat").Float(),
			Lng:          v.Get("lng").Float(),
			Summary:      v.Get("summary").String(),
			Title:        v.Get("title").String(),
			Elevation:    v.Get("elevation").Float(),
			Distance:     v.Get("distance").Float(),
			Rank:         rank,
			Lang:         v.Get("lang").String(),
			WikipediaURL: v.Get("wikipediaUrl").String(),
		})
		return true
	})
	return rows, nil
}
