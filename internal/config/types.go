// SPDX-License-Identifier: MIT

package config

import "time"

// AppConfig is the complete runtime configuration. The YAML file uses the
// same shape; env variables override individual fields.
type AppConfig struct {
	// ListenAddr is the HTTP listen address (PORT or ANIRELAY_LISTEN).
	ListenAddr string `yaml:"listen"`
	// APIURL is the provider base URL (API_URL or ANIRELAY_API_URL).
	APIURL string `yaml:"apiURL"`
	// FrontendURL is the CORS origin allowed to call the API.
	FrontendURL string `yaml:"frontendURL"`
	// BasePath prefixes every API route. Empty mounts them at the root.
	BasePath string `yaml:"basePath"`
	LogLevel string `yaml:"logLevel"`

	Cache     CacheConfig     `yaml:"cache"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CacheConfig selects and tunes the streaming-data cache.
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	// Redis switches to the Redis backend when Addr is set.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig addresses a Redis server.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// UpstreamConfig tunes provider requests.
type UpstreamConfig struct {
	// Referer is sent as Referer and Origin on every provider request.
	Referer   string `yaml:"referer"`
	UserAgent string `yaml:"userAgent"`
	// RPS throttles outbound requests; 0 disables throttling.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// RateLimitConfig holds the per-client inbound limits.
type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	EpisodesLimit  int           `yaml:"episodesLimit"`
	EpisodesWindow time.Duration `yaml:"episodesWindow"`
	StreamLimit    int           `yaml:"streamLimit"`
	StreamWindow   time.Duration `yaml:"streamWindow"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}
