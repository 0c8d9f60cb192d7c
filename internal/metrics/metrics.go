package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoapi_requests_total",
		Help: "Total number of API requests by endpoint",
	}, []string{"endpoint"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoapi_request_duration_ms",
		Help:    "Request duration in milliseconds by endpoint",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 3000},
	}, []string{"endpoint"})
	InvalidInputTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoapi_invalid_input_total",
		Help: "Requests rejected before any resolver ran",
	}, []string{"endpoint"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoapi_cache_hits_total",
		Help: "Cache hits by domain",
	}, []string{"domain"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoapi_cache_misses_total",
		Help: "Cache misses by domain",
	}, []string{"domain"})
	CacheErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoapi_cache_errors_total",
		Help: "Cache backend or decode failures by domain and op",
	}, []string{"domain", "op"})
	NegativeSkipsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoapi_negative_check_skips_total",
		Help: "Address lookups skipped because the postal code was already checked",
	})
	NegativeMarksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoapi_negative_check_marks_total",
		Help: "Negative check markers written",
	})
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoapi_upstream_requests_total",
		Help: "Upstream provider requests",
	}, []string{"provider"})
	UpstreamFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoapi_upstream_fail_total",
		Help: "Upstream provider failures (transport, status, decode or empty)",
	}, []string{"provider", "kind"})
	UpstreamDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoapi_upstream_duration_ms",
		Help:    "Upstream provider call duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"provider"})
	ProviderHeartbeatTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoapi_provider_heartbeat_total",
		Help: "Provider heartbeat count by status",
	}, []string{"provider", "status"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(InvalidInputTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheErrorsTotal)
	prometheus.MustRegister(NegativeSkipsTotal)
	prometheus.MustRegister(NegativeMarksTotal)
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamFailTotal)
	prometheus.MustRegister(UpstreamDurationMs)
	prometheus.MustRegister(ProviderHeartbeatTotal)
}

// 文档注释：返回 Prometheus 指标处理器
// 背景：在主入口挂载到 {API_BASE}/metrics 供抓取
func Handler() http.Handler { return promhttp.Handler() }
