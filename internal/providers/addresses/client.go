// 包 addresses：按英国邮编获取街道地址（第三方查询服务）
package addresses

import (
	"bufio"
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"geo-api/internal/cache"
	"geo-api/internal/logger"
	"geo-api/internal/providers/httpx"
	"geo-api/internal/resolver"
)

const (
	name             = "addresses"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"
	userAgentsKey    = "user_agents"
	minUserAgents    = 5
)

var ukPostcode = regexp.MustCompile(`^(GIR ?0AA|[A-PR-UWYZ]([0-9]{1,2}|[A-HK-Y][0-9][0-9ABEHMNPRV-Y]?|[0-9][A-HJKPS-UW]) ?[0-9][ABD-HJLNP-UW-Z]{2})$`)

// ValidUKPostcode：语法校验（不查询是否真实存在）
func ValidUKPostcode(pc string) bool {
	return ukPostcode.MatchString(strings.ToUpper(strings.TrimSpace(pc)))
}

type Client struct {
	endpoint string
	uaFile   string
	store    *cache.Store
	http     *httpx.Client
}

// New：uaFile 为每行一个 User-Agent 的文本文件，可为空；store 用于缓存该列表
// New：地址接口按调用计费且限流敏感，失败不重试
func New(endpoint, uaFile string, store *cache.Store, o httpx.Options) *Client {
	o.RetryMax = 0
	return &Client{endpoint: endpoint, uaFile: uaFile, store: store, http: httpx.New(name, o)}
}

func (c *Client) Name() string { return name }

func (c *Client) Heartbeat(ctx context.Context) error {
	if c.endpoint == "" {
		return fmt.Errorf("%s: endpoint not configured", name)
	}
	return c.http.Ping(ctx, c.endpoint)
}

// Addresses：仅发送语法有效的英国邮编；结果只保留包含该邮编的条目（忽略大小写）
func (c *Client) Addresses(ctx context.Context, pc string) ([]string, error) {
	code := strings.ToUpper(strings.TrimSpace(pc))
	if !ukPostcode.MatchString(code) {
		return nil, fmt.Errorf("%s: %w: invalid postcode %q", name, resolver.ErrMalformed, pc)
	}
	if c.endpoint == "" {
		return nil, fmt.Errorf("%s: %w: endpoint not configured", name, resolver.ErrUnavailable)
	}
	body := map[string]string{"Query": code, "CountryIsoCode": "GBR"}
	h := http.Header{"User-Agent": {c.userAgent(ctx)}}
	b, err := c.http.PostJSON(ctx, c.endpoint, body, h)
	if err != nil {
		return nil, err
	}
	r, err := httpx.Object(name, b)
	if err != nil {
		return nil, err
	}
	if err := httpx.Require(name, r, "Data"); err != nil {
		return nil, err
	}
	var all []string
	r.Get("Data").ForEach(func(_, v gjson.Result) bool {
		if d := v.Get("Display"); d.Exists() && d.Type != gjson.Null {
			all = append(all, d.String())
		}
		return true
	})
	needle := strings.ToLower(code)
	return lo.Filter(all, func(s string, _ int) bool {
		return strings.Contains(strings.ToLower(s), needle)
	}), nil
}

func (c *Client) userAgent(ctx context.Context) string {
	lines := c.userAgents(ctx)
	if len(lines) < 2 {
		return defaultUserAgent
	}
	return lines[rand.IntN(len(lines))]
}

// userAgents：优先读缓存，其次读文件；文件行数足够时回写缓存
func (c *Client) userAgents(ctx context.Context) []string {
	if lines, ok := cache.Get[[]string](ctx, c.store, userAgentsKey); ok {
		return lines
	}
	if c.uaFile == "" {
		return nil
	}
	lines, err := readLines(c.uaFile)
	if err != nil {
		logger.L().Warn("user_agents_read_fail", "file", c.uaFile, "err", err)
		return nil
	}
	if len(lines) > minUserAgents {
		cache.Set(ctx, c.store, userAgentsKey, lines, 0)
	}
	return lines
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			out = append(out, s)
		}
	}
	return out, sc.Err()
}
