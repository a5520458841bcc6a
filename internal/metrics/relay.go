// SPDX-License-Identifier: MIT

// Package metrics exposes the Prometheus collectors shared across the relay.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "anirelay"

var (
	// UpstreamRequests counts provider calls by kind (json, text, stream) and result.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Upstream provider requests by kind and result",
	}, []string{"kind", "result"})

	// UpstreamDuration tracks time until upstream response headers arrive.
	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Time until upstream response headers arrive",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"kind"})

	// CacheLookups counts cache lookups by outcome.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Streaming data cache lookups by result (hit, miss)",
	}, []string{"result"})

	// ActiveRelays is the number of relays currently streaming.
	ActiveRelays = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_relays",
		Help:      "Relays currently piping upstream bytes to a client",
	}, []string{"route"})

	// RelayBytes counts bytes forwarded to clients.
	RelayBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_bytes_total",
		Help:      "Bytes relayed from upstream to clients",
	}, []string{"route"})

	// RelayOutcomes counts relays by terminal state (closed, failed).
	RelayOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_outcomes_total",
		Help:      "Relays by terminal state",
	}, []string{"route", "state"})

	// ManifestRewrites counts rewritten manifests and segment lines.
	ManifestRewrites = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "manifest_rewrites_total",
		Help:      "Manifests rewritten to proxy-routed segment URLs",
	})
	ManifestSegments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "manifest_segments_rewritten_total",
		Help:      "Segment lines rewritten across all manifests",
	})
)

// ObserveUpstream records one upstream call.
func ObserveUpstream(kind string, err error, d time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	UpstreamRequests.WithLabelValues(kind, result).Inc()
	UpstreamDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveCacheLookup records a cache hit or miss.
func ObserveCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// ObserveManifestRewrite records a rewritten manifest and its segment count.
func ObserveManifestRewrite(segments int) {
	ManifestRewrites.Inc()
	ManifestSegments.Add(float64(segments))
}
