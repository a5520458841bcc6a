// SPDX-License-Identifier: MIT

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anirelay/anirelay/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_EnforcesLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Name:         "test",
		RequestLimit: 3,
		WindowSize:   time.Minute,
	})(okHandler())

	for i := 0; i < 3; i++ {
		rec := doFrom(h, "192.168.1.1:12345")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	before := testutil.ToFloat64(metrics.RateLimited.WithLabelValues("test"))
	rec := doFrom(h, "192.168.1.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Too many requests, please try again later."}`, rec.Body.String())
	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.RateLimited.WithLabelValues("test")), 0)
}

func TestRateLimit_DifferentIPsIndependent(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestLimit: 2, WindowSize: time.Minute})(okHandler())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doFrom(h, "192.168.1.1:12345").Code)
	}
	assert.Equal(t, http.StatusOK, doFrom(h, "192.168.1.2:12345").Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(h, "192.168.1.1:12345").Code)
}

func TestStreamRateLimit_Message(t *testing.T) {
	h := StreamRateLimit(1, time.Minute)(okHandler())

	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:1").Code)
	rec := doFrom(h, "10.0.0.1:1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StreamRateLimitMessage, body["error"])
}

func TestEpisodesRateLimit_Window(t *testing.T) {
	h := EpisodesRateLimit(2, 15*time.Minute)(okHandler())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.2:1").Code)
	}
	rec := doFrom(h, "10.0.0.2:1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
}
