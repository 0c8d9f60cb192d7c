// 包 httpx：上游 HTTP 调用的公共管道（重试、熔断、指标、错误分类）
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"geo-api/internal/logger"
	"geo-api/internal/metrics"
	"geo-api/internal/resolver"
)

const maxBody = 8 << 20

// errClientStatus：4xx，不计入熔断失败
var errClientStatus = errors.New("client status")

// errCallerGone：调用方已取消或超时，与上游健康无关，不计入熔断失败
var errCallerGone = errors.New("caller gone")

type Options struct {
	Timeout  time.Duration
	RetryMax int
	// Failures：连续失败多少次后熔断
	Failures    uint32
	OpenTimeout time.Duration
}

// Client：单个上游的调用器；名称同时作为指标标签与熔断器名
type Client struct {
	name string
	hc   *retryablehttp.Client
	cb   *gobreaker.CircuitBreaker
}

func New(name string, o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = 8 * time.Second
	}
	if o.RetryMax < 0 {
		o.RetryMax = 0
	}
	if o.Failures == 0 {
		o.Failures = 5
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = 30 * time.Second
	}
	hc := retryablehttp.NewClient()
	hc.HTTPClient = &http.Client{Timeout: o.Timeout}
	hc.Logger = nil
	hc.RetryMax = o.RetryMax
	hc.RetryWaitMin = 100 * time.Millisecond
	hc.RetryWaitMax = time.Second

	failures := o.Failures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     o.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errClientStatus) || errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Warn("upstream_breaker_state", "provider", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{name: name, hc: hc, cb: cb}
}

func (c *Client) Name() string { return c.name }

// Open：熔断器是否处于打开状态
func (c *Client) Open() bool { return c.cb.State() == gobreaker.StateOpen }

// Get：GET base+path?query，返回 2xx 响应体
func (c *Client) Get(ctx context.Context, base, path string, q url.Values) ([]byte, error) {
	u := base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return c.Do(ctx, http.MethodGet, u, nil, nil)
}

// PostJSON：以 JSON 提交 v
func (c *Client) PostJSON(ctx context.Context, u string, v any, h http.Header) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: encode body: %w", c.name, err)
	}
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/json")
	return c.Do(ctx, http.MethodPost, u, b, h)
}

// Do：带熔断与重试的请求；传输失败与非 2xx 统一包装为 resolver.ErrUnavailable
func (c *Client) Do(ctx context.Context, method, u string, body []byte, h http.Header) ([]byte, error) {
	t0 := time.Now()
	metrics.UpstreamRequestsTotal.WithLabelValues(c.name).Inc()
	out, err := c.cb.Execute(func() (any, error) {
		b, err := c.do(ctx, method, u, body, h)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerGone, ctx.Err())
		}
		return b, err
	})
	metrics.UpstreamDurationMs.WithLabelValues(c.name).Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		kind := "transport"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			kind = "breaker"
		case errors.Is(err, errClientStatus):
			kind = "status"
		case errors.Is(err, errCallerGone):
			kind = "canceled"
		}
		metrics.UpstreamFailTotal.WithLabelValues(c.name, kind).Inc()
		logger.L().Info("upstream_fail", "provider", c.name, "kind", kind, "err", err)
		return nil, fmt.Errorf("%s: %w: %w", c.name, resolver.ErrUnavailable, err)
	}
	return out.([]byte), nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, h http.Header) ([]byte, error) {
	var rb any
	if body != nil {
		rb = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, rb)
	if err != nil {
		return nil, err
	}
	for k, vs := range h {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, fmt.Errorf("%w %d", errClientStatus, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return b, nil
}

// Ping：心跳探测；任何非 5xx 响应视为可达
func (c *Client) Ping(ctx context.Context, u string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%s: heartbeat status %d", c.name, resp.StatusCode)
	}
	return nil
}

// Object：校验响应为 JSON 对象；否则 resolver.ErrMalformed
func Object(name string, b []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(b) {
		metrics.UpstreamFailTotal.WithLabelValues(name, "decode").Inc()
		return gjson.Result{}, fmt.Errorf("%s: %w: invalid json", name, resolver.ErrMalformed)
	}
	r := gjson.ParseBytes(b)
	if !r.IsObject() {
		metrics.UpstreamFailTotal.WithLabelValues(name, "decode").Inc()
		return gjson.Result{}, fmt.Errorf("%s: %w: not an object", name, resolver.ErrMalformed)
	}
	return r, nil
}

// Require：检查必需字段均存在
func Require(name string, r gjson.Result, keys ...string) error {
	for _, k := range keys {
		if !r.Get(k).Exists() {
			metrics.UpstreamFailTotal.WithLabelValues(name, "schema").Inc()
			return fmt.Errorf("%s: %w: missing %q", name, resolver.ErrMalformed, k)
		}
	}
	return nil
}

// OptInt：字段缺失或为 null 时返回 nil
func OptInt(r gjson.Result) *int64 {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	v := r.Int()
	return &v
}

// Floats：数值数组；非数值元素跳过
func Floats(r gjson.Result) []float64 {
	out := []float64{}
	r.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.Number {
			out = append(out, v.Float())
		}
		return true
	})
	return out
}
