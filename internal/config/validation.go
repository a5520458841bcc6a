// SPDX-License-Identifier: MIT

package config

import (
	"github.com/anirelay/anirelay/internal/validate"
)

// Validate checks a fully merged configuration.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("listen", cfg.ListenAddr)
	v.HTTPURL("apiURL", cfg.APIURL)
	v.Origin("frontendURL", cfg.FrontendURL)
	v.BasePath("basePath", cfg.BasePath)
	v.Custom("logLevel", cfg.LogLevel, func(val any) error {
		_, err := validate.ParseLogLevel(val.(string))
		return err
	})

	v.PositiveDuration("cache.ttl", cfg.Cache.TTL)
	if cfg.Cache.Redis.Addr != "" {
		v.ListenAddr("cache.redis.addr", cfg.Cache.Redis.Addr)
		v.Range("cache.redis.db", cfg.Cache.Redis.DB, 0, 15)
	}

	v.HTTPURL("upstream.referer", cfg.Upstream.Referer)
	v.NonNegative("upstream.rps", cfg.Upstream.RPS)
	if cfg.Upstream.RPS > 0 {
		v.Positive("upstream.burst", cfg.Upstream.Burst)
	}

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.episodesLimit", cfg.RateLimit.EpisodesLimit)
		v.PositiveDuration("rateLimit.episodesWindow", cfg.RateLimit.EpisodesWindow)
		v.Positive("rateLimit.streamLimit", cfg.RateLimit.StreamLimit)
		v.PositiveDuration("rateLimit.streamWindow", cfg.RateLimit.StreamWindow)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("tracing.samplingRate", cfg.Tracing.SamplingRate, 0, 1)
	}

	return v.Err()
}
