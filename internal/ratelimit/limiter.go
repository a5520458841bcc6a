// SPDX-License-Identifier: MIT

// Package ratelimit throttles outbound calls to the upstream provider.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var throttled = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "anirelay",
		Name:      "upstream_throttle_waits_total",
		Help:      "Upstream calls that had to wait for a throttle token",
	},
	[]string{"result"},
)

// Config holds outbound throttle configuration.
type Config struct {
	// RPS is the sustained request rate. Zero or negative disables throttling.
	RPS float64
	// Burst is the max burst size. Defaults to max(1, int(RPS)).
	Burst int
}

// Limiter gates upstream calls. A nil *Limiter allows everything.
type Limiter struct {
	lim *rate.Limiter
}

// New returns a limiter for cfg, or nil when throttling is disabled.
func New(cfg Config) *Limiter {
	if cfg.RPS <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
	}
	return &Limiter{lim: rate.NewLimiter(rate.Limit(cfg.RPS), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if l.lim.Allow() {
		return nil
	}
	if err := l.lim.Wait(ctx); err != nil {
		throttled.WithLabelValues("cancelled").Inc()
		return fmt.Errorf("upstream throttle: %w", err)
	}
	throttled.WithLabelValues("waited").Inc()
	return nil
}
