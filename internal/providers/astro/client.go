// 包 astro：星历上游（太阳、月亮、上升点的位置窗口）
package astro

import (
	"context"
	"math"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"geo-api/internal/geo"
	"geo-api/internal/model"
	"geo-api/internal/providers/httpx"
)

const name = "astro"

type Client struct {
	base string
	http *httpx.Client
}

func New(base string, o httpx.Options) *Client {
	return &Client{base: base, http: httpx.New(name, o)}
}

func (c *Client) Name() string { return name }

func (c *Client) Heartbeat(ctx context.Context) error { return c.http.Ping(ctx, c.base+"/") }

// Astro：ts 非空时以儒略日参数 jd 指定时刻
func (c *Client) Astro(ctx context.Context, coord geo.Coordinate, ts *int64) (model.AstroData, error) {
	q := url.Values{
		"loc":    {coord.String()},
		"full":   {"1"},
		"bodies": {"su,mo"},
	}
	if ts != nil {
		q.Set("jd", strconv.FormatFloat(JulianDay(*ts), 'f', -1, 64))
	}
	b, err := c.http.Get(ctx, c.base, "/ascendant", q)
	if err != nil {
		return model.AstroData{}, err
	}
	r, err := httpx.Object(name, b)
	if err != nil {
		return model.AstroData{}, err
	}
	if err := httpx.Require(name, r, "date", "values"); err != nil {
		return model.AstroData{}, err
	}
	return Parse(r), nil
}

// Parse：解析星历响应
func Parse(r gjson.Result) model.AstroData {
	idx := int(r.Get("currentIndex").Int())
	a := model.AstroData{
		Start:        r.Get("start.unix").Int(),
		Time:         r.Get("date.unix").Int(),
		End:          r.Get("end.unix").Int(),
		IntervalSecs: intervalSecs(r.Get("interval.days").Float()),
	}

	asc := positions(r, "as")
	a.Ascendant = &model.AscendantData{Lng: at(asc, idx), Positions: asc}

	su := positions(r, "su")
	sun := &model.SunData{Lng: at(su, idx), Positions: su}
	r.Get("sunRiseSets").ForEach(func(_, v gjson.Result) bool {
		val := v.Get("value").Float()
		switch v.Get("key").String() {
		case "rise":
			sun.Rise = jdPtr(val)
		case "set":
			sun.Set = jdPtr(val)
		case "mc":
			sun.Mc = jdPtr(val)
		case "ic":
			sun.Ic = jdPtr(val)
		case "min":
			sun.Min = val
		case "max":
			sun.Max = val
		}
		return true
	})
	a.Sun = sun

	mo := positions(r, "mo")
	moon := &model.MoonData{Lng: at(mo, idx), Positions: mo, Phases: []model.MoonPhase{}}
	if m := r.Get("moon"); m.IsObject() {
		moon.Phase = uint8(m.Get("phase").Uint())
		moon.Waxing = m.Get("waxing").Bool()
		moon.SunAngle = m.Get("sunAngle").Float()
		phases := m.Get("phases")
		if !phases.Exists() {
			phases = m.Get("nextPhases")
		}
		phases.ForEach(func(_, v gjson.Result) bool {
			num := v.Get("num").Uint()
			if num == 0 || num >= 5 {
				return true
			}
			moon.Phases = append(moon.Phases, model.MoonPhase{Num: uint8(num), Ts: UnixFromJulian(v.Get("jd").Float())})
			return true
		})
	}
	a.Moon = moon
	return a
}

// positions：values.<key> 为数组时直接取；否则取每个采样对象的 <key>
func positions(r gjson.Result, key string) []float64 {
	if v := r.Get("values." + key); v.IsArray() {
		return httpx.Floats(v)
	}
	return httpx.Floats(r.Get("values.#." + key))
}

func at(vs []float64, i int) float64 {
	if i < 0 || i >= len(vs) {
		return 0
	}
	return vs[i]
}

func jdPtr(jd float64) *int64 {
	v := UnixFromJulian(jd)
	return &v
}

func intervalSecs(days float64) uint32 {
	s := days * 86400
	if s < 0 || s > math.MaxUint32 || math.IsNaN(s) {
		return 0
	}
	return uint32(math.Round(s))
}
