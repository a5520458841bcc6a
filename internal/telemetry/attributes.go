// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used on relay spans.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Catalog attributes
	EpisodeIDKey = "anirelay.episode_id"
	QualityKey   = "anirelay.quality"

	// Relay attributes
	RelayRouteKey    = "anirelay.relay.route"
	UpstreamURLKey   = "anirelay.upstream.url"
	ManifestLinesKey = "anirelay.manifest.segments_rewritten"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// EpisodeAttributes describes the episode a request is about. Empty values
// are omitted.
func EpisodeAttributes(episodeID, quality string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if episodeID != "" {
		attrs = append(attrs, attribute.String(EpisodeIDKey, episodeID))
	}
	if quality != "" {
		attrs = append(attrs, attribute.String(QualityKey, quality))
	}
	return attrs
}

// RelayAttributes describes a relayed upstream body.
func RelayAttributes(route, upstreamURL string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RelayRouteKey, route),
		attribute.String(UpstreamURLKey, upstreamURL),
	}
}

// ManifestAttributes records how many segment lines a rewrite touched.
func ManifestAttributes(upstreamURL string, segments int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(UpstreamURLKey, upstreamURL),
		attribute.Int(ManifestLinesKey, segments),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
