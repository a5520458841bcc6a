// SPDX-License-Identifier: MIT

package config

import "time"

// Default values. They reproduce the behaviour of the original deployment:
// port 3000, the public provider, a Vite dev frontend and /api routes.
const (
	DefaultListenAddr     = ":3000"
	DefaultAPIURL         = "https://apiconsumetorg-zeta.vercel.app"
	DefaultFrontendURL    = "http://localhost:5173"
	DefaultBasePath       = "/api"
	DefaultLogLevel       = "info"
	DefaultCacheTTL       = 300 * time.Second
	DefaultReferer        = "https://gogoanime.cl"
	DefaultRedisPrefix    = "anirelay:"
	DefaultEpisodesLimit  = 100
	DefaultEpisodesWindow = 15 * time.Minute
	DefaultStreamLimit    = 300
	DefaultStreamWindow   = time.Minute
)

// Defaults returns a fully populated configuration.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr:  DefaultListenAddr,
		APIURL:      DefaultAPIURL,
		FrontendURL: DefaultFrontendURL,
		BasePath:    DefaultBasePath,
		LogLevel:    DefaultLogLevel,
		Cache: CacheConfig{
			TTL:             DefaultCacheTTL,
			CleanupInterval: time.Minute,
			Redis:           RedisConfig{Prefix: DefaultRedisPrefix},
		},
		Upstream: UpstreamConfig{
			Referer: DefaultReferer,
			Burst:   1,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			EpisodesLimit:  DefaultEpisodesLimit,
			EpisodesWindow: DefaultEpisodesWindow,
			StreamLimit:    DefaultStreamLimit,
			StreamWindow:   DefaultStreamWindow,
		},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}
