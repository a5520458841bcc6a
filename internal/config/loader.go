// SPDX-License-Identifier: MIT

// Package config loads the relay configuration with the precedence
// ENV > YAML file > defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	// ConsumedEnvKeys records every variable the last Load consulted.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader. An empty configPath skips the file layer.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the YAML file the loader reads, if any.
func (l *Loader) Path() string {
	return l.configPath
}

// Load builds the configuration: defaults, then the YAML file, then env
// overrides, then validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.mergeFile(&cfg); err != nil {
			return AppConfig{}, err
		}
	}

	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeFile decodes the YAML file over cfg. Fields absent from the file keep
// their current values; unknown fields are rejected.
func (l *Loader) mergeFile(cfg *AppConfig) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", l.configPath, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("%w: %s: %v", ErrUnknownConfigField, l.configPath, err)
		}
		return fmt.Errorf("parse config file %s: %w", l.configPath, err)
	}
	return nil
}

func (l *Loader) consume(keys ...string) {
	for _, k := range keys {
		l.ConsumedEnvKeys[k] = struct{}{}
	}
}

// mergeEnv applies environment overrides. The unprefixed PORT, API_URL and
// FRONTEND_URL names are accepted as aliases for compatibility.
func (l *Loader) mergeEnv(cfg *AppConfig) {
	l.consume("PORT", "ANIRELAY_LISTEN")
	if port := ParseString("PORT", ""); port != "" {
		cfg.ListenAddr = ":" + port
	}
	cfg.ListenAddr = ParseString("ANIRELAY_LISTEN", cfg.ListenAddr)

	l.consume("ANIRELAY_API_URL", "API_URL")
	cfg.APIURL = ParseStringWithAlias("ANIRELAY_API_URL", "API_URL", cfg.APIURL)

	l.consume("ANIRELAY_FRONTEND_URL", "FRONTEND_URL")
	cfg.FrontendURL = ParseStringWithAlias("ANIRELAY_FRONTEND_URL", "FRONTEND_URL", cfg.FrontendURL)

	l.consume("ANIRELAY_BASE_PATH", "ANIRELAY_LOG_LEVEL")
	if v, ok := os.LookupEnv("ANIRELAY_BASE_PATH"); ok {
		// An explicitly empty value mounts the API at the root.
		cfg.BasePath = strings.TrimSpace(v)
	}
	cfg.LogLevel = ParseString("ANIRELAY_LOG_LEVEL", cfg.LogLevel)

	l.consume("ANIRELAY_CACHE_TTL", "ANIRELAY_CACHE_CLEANUP_INTERVAL",
		"ANIRELAY_REDIS_ADDR", "ANIRELAY_REDIS_PASSWORD", "ANIRELAY_REDIS_DB", "ANIRELAY_REDIS_PREFIX")
	cfg.Cache.TTL = ParseDuration("ANIRELAY_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.CleanupInterval = ParseDuration("ANIRELAY_CACHE_CLEANUP_INTERVAL", cfg.Cache.CleanupInterval)
	cfg.Cache.Redis.Addr = ParseString("ANIRELAY_REDIS_ADDR", cfg.Cache.Redis.Addr)
	cfg.Cache.Redis.Password = ParseString("ANIRELAY_REDIS_PASSWORD", cfg.Cache.Redis.Password)
	cfg.Cache.Redis.DB = ParseInt("ANIRELAY_REDIS_DB", cfg.Cache.Redis.DB)
	cfg.Cache.Redis.Prefix = ParseString("ANIRELAY_REDIS_PREFIX", cfg.Cache.Redis.Prefix)

	l.consume("ANIRELAY_UPSTREAM_REFERER", "ANIRELAY_UPSTREAM_USER_AGENT", "ANIRELAY_UPSTREAM_RPS", "ANIRELAY_UPSTREAM_BURST")
	cfg.Upstream.Referer = ParseString("ANIRELAY_UPSTREAM_REFERER", cfg.Upstream.Referer)
	cfg.Upstream.UserAgent = ParseString("ANIRELAY_UPSTREAM_USER_AGENT", cfg.Upstream.UserAgent)
	cfg.Upstream.RPS = ParseFloat("ANIRELAY_UPSTREAM_RPS", cfg.Upstream.RPS)
	cfg.Upstream.Burst = ParseInt("ANIRELAY_UPSTREAM_BURST", cfg.Upstream.Burst)

	l.consume("ANIRELAY_RATELIMIT_ENABLED", "ANIRELAY_RATELIMIT_EPISODES", "ANIRELAY_RATELIMIT_EPISODES_WINDOW",
		"ANIRELAY_RATELIMIT_STREAM", "ANIRELAY_RATELIMIT_STREAM_WINDOW")
	cfg.RateLimit.Enabled = ParseBool("ANIRELAY_RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.EpisodesLimit = ParseInt("ANIRELAY_RATELIMIT_EPISODES", cfg.RateLimit.EpisodesLimit)
	cfg.RateLimit.EpisodesWindow = ParseDuration("ANIRELAY_RATELIMIT_EPISODES_WINDOW", cfg.RateLimit.EpisodesWindow)
	cfg.RateLimit.StreamLimit = ParseInt("ANIRELAY_RATELIMIT_STREAM", cfg.RateLimit.StreamLimit)
	cfg.RateLimit.StreamWindow = ParseDuration("ANIRELAY_RATELIMIT_STREAM_WINDOW", cfg.RateLimit.StreamWindow)

	l.consume("ANIRELAY_TRACING_ENABLED", "ANIRELAY_TRACING_EXPORTER", "ANIRELAY_TRACING_ENDPOINT",
		"ANIRELAY_TRACING_SAMPLING_RATE", "ANIRELAY_TRACING_ENVIRONMENT")
	cfg.Tracing.Enabled = ParseBool("ANIRELAY_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = ParseString("ANIRELAY_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = ParseString("ANIRELAY_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = ParseFloat("ANIRELAY_TRACING_SAMPLING_RATE", cfg.Tracing.SamplingRate)
	cfg.Tracing.Environment = ParseString("ANIRELAY_TRACING_ENVIRONMENT", cfg.Tracing.Environment)

	l.consume("ANIRELAY_METRICS_ENABLED")
	cfg.Metrics.Enabled = ParseBool("ANIRELAY_METRICS_ENABLED", cfg.Metrics.Enabled)
}
