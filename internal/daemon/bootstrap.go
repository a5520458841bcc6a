// SPDX-License-Identifier: MIT

// Package daemon assembles the relay from configuration and runs its
// lifecycle: server, config watch and graceful shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anirelay/anirelay/internal/api"
	"github.com/anirelay/anirelay/internal/cache"
	"github.com/anirelay/anirelay/internal/catalog"
	"github.com/anirelay/anirelay/internal/config"
	"github.com/anirelay/anirelay/internal/health"
	"github.com/anirelay/anirelay/internal/log"
	"github.com/anirelay/anirelay/internal/platform/httpx"
	"github.com/anirelay/anirelay/internal/ratelimit"
	"github.com/anirelay/anirelay/internal/telemetry"
	"github.com/anirelay/anirelay/internal/upstream"
)

// probeTimeout bounds the provider readiness probe.
const probeTimeout = 5 * time.Second

// Runtime is the assembled relay: its root handler, health manager and the
// resources that must be released on shutdown.
type Runtime struct {
	Handler http.Handler
	Health  *health.Manager

	closers []func(context.Context) error
}

// Close releases resources in reverse construction order.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (rt *Runtime) onClose(fn func(context.Context) error) {
	rt.closers = append(rt.closers, fn)
}

// Build wires every component from cfg. On error, anything already built
// is released.
func Build(ctx context.Context, cfg config.AppConfig, version string) (_ *Runtime, err error) {
	logger := log.WithComponent("daemon")
	rt := &Runtime{Health: health.NewManager(version)}
	defer func() {
		if err != nil {
			_ = rt.Close(context.Background())
		}
	}()

	tp, terr := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "anirelay",
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if terr != nil {
		logger.Warn().Err(terr).Msg("telemetry initialization failed, continuing without tracing")
	} else {
		rt.onClose(tp.Shutdown)
		if cfg.Tracing.Enabled {
			logger.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sampling_rate", cfg.Tracing.SamplingRate).
				Msg("telemetry initialized")
		}
	}

	streams, err := buildCache(cfg.Cache, rt)
	if err != nil {
		return nil, err
	}

	client, err := upstream.New(upstream.Config{
		Referer:   cfg.Upstream.Referer,
		UserAgent: cfg.Upstream.UserAgent,
		HTTP:      httpx.NewStreamingClient(),
		Limiter:   ratelimit.New(ratelimit.Config{RPS: cfg.Upstream.RPS, Burst: cfg.Upstream.Burst}),
		Logger:    log.Base(),
	})
	if err != nil {
		return nil, fmt.Errorf("upstream client: %w", err)
	}

	svc, err := catalog.New(catalog.Config{
		APIURL:   cfg.APIURL,
		Upstream: client,
		Cache:    streams,
		Logger:   log.Base(),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	rt.Health.RegisterChecker(health.NewHTTPChecker("provider", cfg.APIURL, httpx.NewClient(probeTimeout)))

	srv, err := api.New(cfg, api.Deps{
		Catalog:  svc,
		Upstream: client,
		Health:   rt.Health,
		Logger:   log.Base(),
	})
	if err != nil {
		return nil, fmt.Errorf("api server: %w", err)
	}
	rt.Handler = srv.Handler()

	logger.Info().
		Str("api_url", cfg.APIURL).
		Str("base_path", cfg.BasePath).
		Bool("redis_cache", cfg.Cache.Redis.Addr != "").
		Bool("rate_limit", cfg.RateLimit.Enabled).
		Msg("relay assembled")
	return rt, nil
}

// buildCache selects Redis when an address is configured and the in-process
// cache otherwise.
func buildCache(cfg config.CacheConfig, rt *Runtime) (cache.Cache[catalog.StreamingData], error) {
	if cfg.Redis.Addr == "" {
		mc := cache.NewMemoryCache[catalog.StreamingData](cfg.TTL, cache.WithCleanupInterval(cfg.CleanupInterval))
		rt.onClose(func(context.Context) error {
			mc.Stop()
			return nil
		})
		return mc, nil
	}

	rc, err := cache.NewRedisCache[catalog.StreamingData](cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	}, cfg.TTL, log.WithComponent("cache"))
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	rt.onClose(func(context.Context) error { return rc.Close() })
	rt.Health.RegisterChecker(health.NewPingChecker("redis", rc.HealthCheck))
	return rc, nil
}
