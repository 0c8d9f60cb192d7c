// 包 config：集中读取服务配置（.env → 环境变量 → 可选 config.yaml），避免各模块散落 os.Getenv
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config：服务配置快照
// 约束：启动时读取一次，运行期只读；字段名与环境变量一一对应（下划线分段）
type Config struct {
	Addr      string
	APIBase   string
	LogLevel  string
	LogFormat string

	Redis    RedisConfig
	Postgres PostgresConfig
	Mongo    MongoConfig

	Upstream UpstreamConfig
	Cache    CacheConfig

	GeoIPCityPath          string
	// PostalZoneCountries：邮编区数据可用的国家代码（大写 ISO-3166 alpha-2）
	PostalZoneCountries    []string
	// PostalZonesWhenUnknown：地点无法解析时仍尝试邮编区
	PostalZonesWhenUnknown bool
	// ZoneKm / ZoneLimit：坐标聚合中邮编区的检索半径与条数
	ZoneKm                 float64
	ZoneLimit              int
	RateLimitEnabled       bool
	RateLimitQPS           int
	TLSEnable              bool
	TLSCertPath            string
	TLSKeyPath             string
}

type RedisConfig struct {
	Host string
	Port string
	Pass string
	DB   int
}

// Enabled：未配置主机视为关闭缓存后端（回退进程内存）
func (r RedisConfig) Enabled() bool { return r.Host != "" }

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type PostgresConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DB           string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func (p PostgresConfig) Enabled() bool { return p.Host != "" }

type MongoConfig struct {
	URI            string
	DBName         string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
}

func (m MongoConfig) Enabled() bool { return m.URI != "" }

// UpstreamConfig：上游数据源地址与凭据
type UpstreamConfig struct {
	GeoTimeAPI       string
	GeoNamesBase     string
	GeoNamesUsername string
	AstroAPI         string
	AddressesAPI     string
	UserAgentsFile   string
	Timeout          time.Duration
	RetryMax         int
	HeartbeatEvery   time.Duration
}

// CacheConfig：与域无关的缓存参数；各域 TTL 固定在 resolver 中
type CacheConfig struct {
	WriteTimeout    time.Duration
	AddressCheckTTL time.Duration
	SingleFlight    bool
}

// Load：读取配置
// 背景：先加载 .env（与 data/env/.env）到进程环境，再由 viper 合并默认值、环境变量与 config.yaml
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}
	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("api_base", "/api")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("redis_host", "127.0.0.1")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_db", 0)

	v.SetDefault("pg_port", "5432")
	v.SetDefault("pg_user", "postgres")
	v.SetDefault("pg_db", "geoapi")
	v.SetDefault("pg_sslmode", "disable")
	v.SetDefault("pg_max_open_conns", 20)
	v.SetDefault("pg_max_idle_conns", 10)

	v.SetDefault("mongo_db_name", "none")
	v.SetDefault("mongo_connect_timeout", "5s")
	v.SetDefault("mongo_max_pool_size", 16)
	v.SetDefault("mongo_min_pool_size", 2)

	v.SetDefault("geotimezone_api", "http://localhost:8080")
	v.SetDefault("geonames_base", "http://api.geonames.org")
	v.SetDefault("astro_api", "http://localhost:8089")
	v.SetDefault("upstream_timeout", "8s")
	v.SetDefault("upstream_retry_max", 2)
	v.SetDefault("upstream_heartbeat", "30s")

	v.SetDefault("cache_write_timeout", "2s")
	v.SetDefault("address_check_ttl", "4392h") // 183 天
	v.SetDefault("cache_single_flight", true)

	v.SetDefault("postal_zone_countries", "GB")
	v.SetDefault("postal_zones_when_unknown", false)
	v.SetDefault("zone_km", 5.0)
	v.SetDefault("zone_limit", 20)
	v.SetDefault("rate_limit_enabled", false)
	v.SetDefault("rate_limit_qps", 200)
	v.SetDefault("tls_enable", false)
	v.SetDefault("tls_cert_path", filepath.Join("data", "certs", "server.crt"))
	v.SetDefault("tls_key_path", filepath.Join("data", "certs", "server.key"))
}

func fromViper(v *viper.Viper) *Config {
	c := &Config{
		Addr:      v.GetString("addr"),
		APIBase:   v.GetString("api_base"),
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		Redis: RedisConfig{
			Host: v.GetString("redis_host"),
			Port: v.GetString("redis_port"),
			Pass: v.GetString("redis_pass"),
			DB:   v.GetInt("redis_db"),
		},
		Postgres: PostgresConfig{
			Host:         v.GetString("pg_host"),
			Port:         v.GetString("pg_port"),
			User:         v.GetString("pg_user"),
			Password:     v.GetString("pg_password"),
			DB:           v.GetString("pg_db"),
			SSLMode:      v.GetString("pg_sslmode"),
			MaxOpenConns: v.GetInt("pg_max_open_conns"),
			MaxIdleConns: v.GetInt("pg_max_idle_conns"),
		},
		Mongo: MongoConfig{
			URI:            v.GetString("mongo_uri"),
			DBName:         v.GetString("mongo_db_name"),
			ConnectTimeout: v.GetDuration("mongo_connect_timeout"),
			MaxPoolSize:    v.GetUint64("mongo_max_pool_size"),
			MinPoolSize:    v.GetUint64("mongo_min_pool_size"),
		},
		Upstream: UpstreamConfig{
			GeoTimeAPI:       v.GetString("geotimezone_api"),
			GeoNamesBase:     v.GetString("geonames_base"),
			GeoNamesUsername: v.GetString("geonames_username"),
			AstroAPI:         v.GetString("astro_api"),
			AddressesAPI:     v.GetString("addresses_api"),
			UserAgentsFile:   v.GetString("user_agent_strings_file"),
			Timeout:          v.GetDuration("upstream_timeout"),
			RetryMax:         v.GetInt("upstream_retry_max"),
			HeartbeatEvery:   v.GetDuration("upstream_heartbeat"),
		},
		Cache: CacheConfig{
			WriteTimeout:    v.GetDuration("cache_write_timeout"),
			AddressCheckTTL: v.GetDuration("address_check_ttl"),
			SingleFlight:    v.GetBool("cache_single_flight"),
		},
		GeoIPCityPath:          v.GetString("geoip_city_path"),
		PostalZoneCountries:    splitCountries(v.GetString("postal_zone_countries")),
		PostalZonesWhenUnknown: v.GetBool("postal_zones_when_unknown"),
		ZoneKm:                 v.GetFloat64("zone_km"),
		ZoneLimit:              v.GetInt("zone_limit"),
		RateLimitEnabled:       v.GetBool("rate_limit_enabled"),
		RateLimitQPS:           v.GetInt("rate_limit_qps"),
		TLSEnable:              v.GetBool("tls_enable"),
		TLSCertPath:            v.GetString("tls_cert_path"),
		TLSKeyPath:             v.GetString("tls_key_path"),
	}
	if c.RateLimitQPS <= 0 {
		c.RateLimitQPS = 200
	}
	return c
}

// splitCountries：逗号分隔国家代码，去空白并统一大写
func splitCountries(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
