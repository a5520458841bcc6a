// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var stdout, stderr bytes.Buffer

	code := runConfigCLI([]string{"init", path}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.FileExists(t, path)

	code = runConfigCLI([]string{"init", path}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "already exists")

	stderr.Reset()
	code = runConfigCLI([]string{"init", "--force", path}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("logLevel: debug\n"), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("nonsense: true\n"), 0o600))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, runConfigCLI([]string{"validate", "-f", good}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "is valid")

	assert.Equal(t, 1, runConfigCLI([]string{"validate", "--file", bad}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Configuration error")
}

func TestConfigDumpRedactsPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  redis:\n    addr: localhost:6379\n    password: hunter2\n"), 0o600))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, runConfigCLI([]string{"dump", "-f", path}, &stdout, &stderr), stderr.String())
	assert.NotContains(t, stdout.String(), "hunter2")
	assert.Contains(t, stdout.String(), "***")
}

func TestConfigUnknownSubcommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, runConfigCLI([]string{"explode"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Unknown subcommand")
}

func TestHealthcheck(t *testing.T) {
	var ready atomic.Bool
	ready.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/health":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/readyz" && ready.Load():
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, runHealthcheckCLI([]string{"-url", srv.URL}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "successful (ready)")

	ready.Store(false)
	assert.Equal(t, 1, runHealthcheckCLI([]string{"-url", srv.URL}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "503")

	assert.Equal(t, 0, runHealthcheckCLI([]string{"-url", srv.URL, "-mode", "live"}, &stdout, &stderr))
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, loadEnvFile(""))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ANIRELAY_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("ANIRELAY_TEST_DOTENV") })

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("ANIRELAY_TEST_DOTENV"))
}
