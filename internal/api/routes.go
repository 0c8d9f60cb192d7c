// 包 api：集中注册 HTTP 路由，处理器只做参数解析与响应编码
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"geo-api/internal/aggregate"
	"geo-api/internal/geo"
	"geo-api/internal/iplocate"
	"geo-api/internal/logger"
	"geo-api/internal/metrics"
	"geo-api/internal/model"
	"geo-api/internal/providers"
	"geo-api/internal/resolver"
	"geo-api/internal/store"
	"geo-api/internal/timezone"
)

// maxBodyBytes：POST 请求体上限
const maxBodyBytes = 1024

// Deps：路由依赖；Stats、Locator、Registry 可为空
type Deps struct {
	Agg      *aggregate.Aggregator
	R        *resolver.Resolvers
	Stats    *store.Store
	Locator  *iplocate.Locator
	Registry *providers.Registry
}

type handler struct{ Deps }

// BuildRoutes：独立 ServeMux，由主入口挂载到 API 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	h := &handler{d}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.welcome)
	mux.Handle("GET /gtz", h.instrument("gtz", h.geoTime))
	mux.Handle("GET /timezone", h.instrument("timezone", h.timezone))
	mux.Handle("GET /postcodes", h.instrument("postcodes", h.postcodes))
	mux.Handle("POST /addresses", h.instrument("addresses", h.addresses))
	mux.Handle("GET /weather", h.instrument("weather", h.weather))
	mux.Handle("GET /places-of-interest", h.instrument("places-of-interest", h.placesOfInterest))
	mux.Handle("GET /wiki-summaries", h.instrument("wiki-summaries", h.wikiSummaries))
	mux.Handle("POST /geo-codes", h.instrument("geo-codes", h.geoCodes))
	mux.Handle("GET /astro", h.instrument("astro", h.astro))
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /stats", h.stats)
	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// instrument：请求计数、耗时直方图；成功响应异步累计使用统计
func (h *handler) instrument(endpoint string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(endpoint).Inc()
		sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(sw, r)
		metrics.RequestDurationMs.WithLabelValues(endpoint).Observe(float64(time.Since(start).Milliseconds()))
		if sw.status < http.StatusBadRequest && h.Stats != nil {
			ctx := context.WithoutCancel(r.Context())
			go func() {
				ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				_ = h.Stats.IncrStats(ctx, endpoint)
			}()
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// invalid：输入校验失败，任何解析器都未执行
func invalid(w http.ResponseWriter, endpoint string) {
	metrics.InvalidInputTotal.WithLabelValues(endpoint).Inc()
	writeJSON(w, http.StatusNotAcceptable, map[string]any{"valid": false})
}

// coord：loc=lat,lng[,alt]；缺省时依次尝试边缘地理头与 GeoIP 库
// 约束：提供了 loc 但无法解析时不回退
func (h *handler) coord(r *http.Request) (geo.Coordinate, bool) {
	if loc := strings.TrimSpace(r.URL.Query().Get("loc")); loc != "" {
		c, err := geo.Parse(loc)
		return c, err == nil
	}
	if c, ok := iplocate.FromHeaders(r); ok {
		return c, true
	}
	if h.Locator == nil {
		return geo.Coordinate{}, false
	}
	ip := iplocate.ClientIP(r)
	c, err := h.Locator.Locate(ip)
	if err != nil {
		if !errors.Is(err, iplocate.ErrNoLocation) {
			logger.L().Debug("iplocate_fail", "ip", ip, "err", err)
		}
		return geo.Coordinate{}, false
	}
	return c, true
}

func (h *handler) welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "service": "geo-api"})
}

func (h *handler) geoTime(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coord(r)
	if !ok {
		invalid(w, "gtz")
		return
	}
	info, ok := h.Agg.GeoTime(r.Context(), c, r.URL.Query().Get("dt"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// timezone：zn 为有效时区名时可不带坐标
func (h *handler) timezone(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	zn := strings.TrimSpace(q.Get("zn"))
	req := resolver.TzReq{Date: q.Get("dt")}
	if timezone.IsValidZoneName(zn) {
		req.Zone = zn
		req.ZoneOnly = true
		if loc := q.Get("loc"); loc != "" {
			if c, err := geo.Parse(loc); err == nil {
				req.Coord = c
				req.ZoneOnly = false
			}
		}
	} else {
		c, ok := h.coord(r)
		if !ok {
			invalid(w, "timezone")
			return
		}
		req.Coord = c
	}
	if _, ok := timezone.ParseDate(req.Date); !ok {
		req.Date = ""
	}
	tz, ok, cached := h.R.Timezone.Resolve(r.Context(), req)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": true, "cached": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "cached": cached, "time": tz})
}

func (h *handler) postcodes(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coord(r)
	if !ok {
		invalid(w, "postcodes")
		return
	}
	q := r.URL.Query()
	req := resolver.ZonesReq{
		Coord: c,
		Km:    floatParam(q.Get("km"), resolver.DefaultPostcodeKm),
		Limit: intParam(q.Get("limit"), resolver.DefaultPostcodeLimit),
	}.Normalize(resolver.DefaultPostcodeKm)
	rows, _, cached := h.R.Postcodes.Resolve(r.Context(), req)
	if rows == nil {
		rows = []model.PcRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "cached": cached, "rows": rows})
}

type postParams struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
	PC  string   `json:"pc"`
}

func decodePost(w http.ResponseWriter, r *http.Request) (postParams, bool) {
	var p postParams
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return p, false
	}
	return p, true
}

func (h *handler) addresses(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePost(w, r)
	if !ok || strings.TrimSpace(p.PC) == "" {
		invalid(w, "addresses")
		return
	}
	z, ok := h.Agg.Addresses(r.Context(), p.PC)
	if !ok {
		writeJSON(w, http.StatusNotAcceptable, map[string]any{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (h *handler) weather(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coord(r)
	if !ok {
		invalid(w, "weather")
		return
	}
	rep, ok, cached := h.R.Weather.Resolve(r.Context(), c)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": true, "cached": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "cached": cached, "weather": rep})
}

func (h *handler) placesOfInterest(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coord(r)
	if !ok {
		invalid(w, "places-of-interest")
		return
	}
	items, ok, cached := h.R.POI.Resolve(r.Context(), c)
	writeItems(w, items, ok, cached)
}

func (h *handler) wikiSummaries(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coord(r)
	if !ok {
		invalid(w, "wiki-summaries")
		return
	}
	items, ok, cached := h.R.Wiki.Resolve(r.Context(), c)
	writeItems(w, items, ok, cached)
}

func writeItems[T any](w http.ResponseWriter, items []T, ok, cached bool) {
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": false})
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "cached": cached, "items": items})
}

// geoCodes：POST {lat,lng}；缺少 lat 视为无效，lng 缺省为 0
func (h *handler) geoCodes(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePost(w, r)
	if !ok || p.Lat == nil {
		invalid(w, "geo-codes")
		return
	}
	lng := 0.0
	if p.Lng != nil {
		lng = *p.Lng
	}
	c := geo.New(*p.Lat, lng)
	if c.Validate() != nil {
		invalid(w, "geo-codes")
		return
	}
	writeJSON(w, http.StatusOK, h.Agg.Locate(r.Context(), c))
}

func (h *handler) astro(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coord(r)
	if !ok {
		invalid(w, "astro")
		return
	}
	req := resolver.AstroReq{Coord: c}
	if t, ok := timezone.ParseDate(r.URL.Query().Get("dt")); ok {
		u := t.Unix()
		req.Unix = &u
	}
	a, ok, cached := h.R.Astro.Resolve(r.Context(), req)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": true, "cached": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "cached": cached, "astro": a})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.Registry == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "providers": []providers.Status{}})
		return
	}
	status := http.StatusOK
	healthy := h.Registry.Healthy()
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ok": healthy, "providers": h.Registry.Statuses()})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Stats.GetTotals(r.Context())
	if err != nil {
		logger.L().Warn("stats_read_fail", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "stats unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"endpoints": totals})
}

func floatParam(s string, def float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && f > 0 {
		return f
	}
	return def
}

func intParam(s string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}
