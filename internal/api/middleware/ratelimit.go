// SPDX-License-Identifier: MIT

package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/anirelay/anirelay/internal/log"
	"github.com/anirelay/anirelay/internal/metrics"
	"github.com/go-chi/httprate"
)

// Messages returned with 429 responses.
const (
	DefaultRateLimitMessage = "Too many requests, please try again later."
	StreamRateLimitMessage  = "Too many streaming requests, please try again later."
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	// Name labels the limit in metrics and logs.
	Name string
	// RequestLimit is the maximum number of requests allowed in the window
	RequestLimit int
	// WindowSize is the time window for rate limiting
	WindowSize time.Duration
	// Message is sent as {"error": Message} when the limit is hit.
	Message string
	// KeyFunc extracts the rate limit key from the request.
	// If nil, defaults to IP-based rate limiting
	KeyFunc httprate.KeyFunc
}

// RateLimit limits requests per client with httprate's sliding window counter.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	msg := cfg.Message
	if msg == "" {
		msg = DefaultRateLimitMessage
	}
	body, _ := json.Marshal(map[string]string{"error": msg})
	retryAfter := strconv.Itoa(int(cfg.WindowSize.Seconds()))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RateLimited.WithLabelValues(cfg.Name).Inc()
			logger := log.WithComponentFromContext(r.Context(), "ratelimit")
			logger.Debug().
				Str(log.FieldEvent, "ratelimit.exceeded").
				Str("limit", cfg.Name).
				Str(log.FieldPath, r.URL.Path).
				Msg("rate limit exceeded")

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write(body)
		}),
	)
}

// EpisodesRateLimit guards the episode lookup route (100 per 15 minutes by default).
func EpisodesRateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return RateLimit(RateLimitConfig{
		Name:         "episodes",
		RequestLimit: limit,
		WindowSize:   window,
	})
}

// StreamRateLimit guards the manifest and segment proxy routes (300 per minute by default).
func StreamRateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return RateLimit(RateLimitConfig{
		Name:         "stream",
		RequestLimit: limit,
		WindowSize:   window,
		Message:      StreamRateLimitMessage,
	})
}
