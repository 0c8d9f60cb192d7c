// 程序入口：仅负责读取配置、初始化依赖并启动服务；路由注册在 internal/api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"geo-api/internal/aggregate"
	"geo-api/internal/api"
	"geo-api/internal/cache"
	"geo-api/internal/config"
	"geo-api/internal/iplocate"
	"geo-api/internal/logger"
	"geo-api/internal/metrics"
	"geo-api/internal/middleware"
	"geo-api/internal/migrate"
	"geo-api/internal/providers"
	"geo-api/internal/providers/addresses"
	"geo-api/internal/providers/astro"
	"geo-api/internal/providers/geonames"
	"geo-api/internal/providers/geotime"
	"geo-api/internal/providers/httpx"
	"geo-api/internal/providers/zones"
	"geo-api/internal/resolver"
	"geo-api/internal/store"
	"geo-api/internal/timezone"
	"geo-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("config_error", "err", err)
		os.Exit(1)
	}
	l := logger.SetupWith(cfg.LogLevel, cfg.LogFormat)
	l.Debug("log_init_ok")
	l.Debug("config_api_base", "base", cfg.APIBase)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 缓存后端：Redis 未配置时回退进程内存
	var backend cache.Backend
	if rc := utils.OpenRedis(cfg.Redis); rc != nil {
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			// 缓存层容错：不可用时各域直接回源
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		backend = cache.NewRedisBackend(rc)
	} else {
		l.Info("redis_disabled")
		backend = cache.NewMemoryBackend()
	}
	cs := cache.NewStore(backend, cfg.Cache.WriteTimeout)

	// 使用统计（可选）
	var st *store.Store
	db, err := utils.OpenPostgres(ctx, cfg.Postgres)
	switch {
	case err != nil:
		l.Error("db_open_error", "err", err)
	case db == nil:
		l.Info("db_disabled")
	default:
		defer db.Close()
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
		l.Info("db_open_ok")
	}

	reg := providers.NewRegistry(cfg.Upstream.HeartbeatEvery)
	hopts := httpx.Options{Timeout: cfg.Upstream.Timeout, RetryMax: cfg.Upstream.RetryMax}
	var p resolver.Providers

	gt := geotime.New(strings.TrimRight(cfg.Upstream.GeoTimeAPI, "/"), hopts)
	p.GeoTime = gt
	reg.Register(gt)

	if cfg.Upstream.GeoNamesUsername != "" {
		gn := geonames.New(strings.TrimRight(cfg.Upstream.GeoNamesBase, "/"), cfg.Upstream.GeoNamesUsername, hopts)
		p.Weather, p.POI, p.Wiki = gn, gn, gn
		reg.Register(gn)
	} else {
		l.Info("geonames_disabled", "reason", "no_username")
	}

	if cfg.Upstream.AstroAPI != "" {
		ac := astro.New(strings.TrimRight(cfg.Upstream.AstroAPI, "/"), hopts)
		p.Astro = ac
		reg.Register(ac)
	}

	mc, err := utils.OpenMongo(ctx, cfg.Mongo)
	if err != nil {
		l.Error("mongo_open_error", "err", err)
	} else if mc != nil {
		defer func() { _ = mc.Disconnect(context.Background()) }()
		zs := zones.New(mc, cfg.Mongo.DBName)
		p.Zones = zs
		reg.Register(zs)
		l.Info("mongo_open_ok", "db", cfg.Mongo.DBName)
	} else {
		l.Info("mongo_disabled")
	}

	if cfg.Upstream.AddressesAPI != "" {
		ad := addresses.New(cfg.Upstream.AddressesAPI, cfg.Upstream.UserAgentsFile, cs, hopts)
		p.Addresses = ad
		reg.Register(ad)
	}
	reg.Start(ctx)

	rs := resolver.New(cs, p, resolver.Options{
		SingleFlight: cfg.Cache.SingleFlight,
		CheckTTL:     cfg.Cache.AddressCheckTTL,
	})

	finder, err := timezone.DefaultFinder()
	if err != nil {
		l.Error("tz_finder_error", "err", err)
	}
	aopts := aggregate.Options{
		PostalZoneCountries:    cfg.PostalZoneCountries,
		PostalZonesWhenUnknown: cfg.PostalZonesWhenUnknown,
		ZoneKm:                 cfg.ZoneKm,
		ZoneLimit:              cfg.ZoneLimit,
	}
	if finder != nil {
		aopts.Finder = finder
	}
	agg := aggregate.New(rs, aopts)

	var loc *iplocate.Locator
	if cfg.GeoIPCityPath != "" {
		if loc, err = iplocate.Open(cfg.GeoIPCityPath); err != nil {
			l.Error("geoip_open_error", "path", cfg.GeoIPCityPath, "err", err)
		} else {
			defer loc.Close()
			l.Info("geoip_ready", "path", cfg.GeoIPCityPath)
		}
	}

	apiMux := api.BuildRoutes(api.Deps{Agg: agg, R: rs, Stats: st, Locator: loc, Registry: reg})
	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))

	var handler http.Handler = logger.AccessMiddleware(l)(mux)
	if cfg.RateLimitEnabled {
		handler = middleware.RateLimit(cfg.RateLimitQPS, handler)
	}
	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	if cfg.TLSEnable {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "geo-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}
