// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anirelay/anirelay/internal/validate"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	if diff := cmp.Diff(Defaults(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "/api", cfg.BasePath)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
listen: ":8080"
apiURL: https://provider.example
cache:
  ttl: 10m
  redis:
    addr: localhost:6379
rateLimit:
  streamLimit: 50
`)
	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "https://provider.example", cfg.APIURL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, DefaultRedisPrefix, cfg.Cache.Redis.Prefix, "unset nested fields keep defaults")
	assert.Equal(t, 50, cfg.RateLimit.StreamLimit)
	assert.Equal(t, DefaultEpisodesLimit, cfg.RateLimit.EpisodesLimit)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := NewLoader(writeFile(t, "\n")).Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := NewLoader(writeFile(t, "bogus: 1\n")).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "apiURL: https://file.example\nlogLevel: warn\n")
	t.Setenv("ANIRELAY_API_URL", "https://env.example")
	t.Setenv("ANIRELAY_CACHE_TTL", "60")
	t.Setenv("ANIRELAY_RATELIMIT_ENABLED", "false")

	l := NewLoader(path)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://env.example", cfg.APIURL)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Contains(t, l.ConsumedEnvKeys, "ANIRELAY_API_URL")
	assert.Contains(t, l.ConsumedEnvKeys, "PORT")
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("API_URL", "https://legacy.example")
	t.Setenv("FRONTEND_URL", "https://app.example")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.ListenAddr)
	assert.Equal(t, "https://legacy.example", cfg.APIURL)
	assert.Equal(t, "https://app.example", cfg.FrontendURL)
}

func TestLoad_ListenEnvBeatsPort(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("ANIRELAY_LISTEN", "127.0.0.1:5000")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5000", cfg.ListenAddr)
}

func TestLoad_EmptyBasePathMountsAtRoot(t *testing.T) {
	t.Setenv("ANIRELAY_BASE_PATH", "")
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.BasePath)
}

func TestLoad_ValidationError(t *testing.T) {
	t.Setenv("ANIRELAY_API_URL", "ftp://provider.example")
	t.Setenv("ANIRELAY_LOG_LEVEL", "loud")

	_, err := NewLoader("").Load()
	require.Error(t, err)

	var verr validate.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Errors()))
	for _, e := range verr.Errors() {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"apiURL", "logLevel"}, fields)
	assert.Contains(t, err.Error(), validate.ErrInvalidLogLevel.Message)
}

func TestValidate_Tracing(t *testing.T) {
	cfg := Defaults()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "zipkin"
	cfg.Tracing.SamplingRate = 2
	assert.Error(t, Validate(cfg))

	cfg.Tracing.Exporter = "http"
	cfg.Tracing.SamplingRate = 0.5
	assert.NoError(t, Validate(cfg))
}

func TestValidate_UpstreamBurst(t *testing.T) {
	cfg := Defaults()
	cfg.Upstream.RPS = 5
	cfg.Upstream.Burst = 0
	assert.Error(t, Validate(cfg))
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefault(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	err = WriteDefault(path, false)
	assert.ErrorIs(t, err, ErrConfigExists)
	assert.NoError(t, WriteDefault(path, true))
}
