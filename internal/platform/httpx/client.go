// SPDX-License-Identifier: MIT

// Package httpx builds the outbound HTTP clients used to reach the provider.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultClientTimeout         = 5 * time.Second
	defaultDialTimeout           = 10 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 64
	defaultMaxIdleConnsPerHost   = 16
)

func newTransport(dialTimeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
}

// NewClient returns a client with a hard total timeout, for short probes.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	dialTimeout := timeout
	if dialTimeout > defaultDialTimeout {
		dialTimeout = defaultDialTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(dialTimeout),
	}
}

// NewStreamingClient returns a client for provider traffic. It has no total
// timeout because relayed media bodies have no size bound; cancellation comes
// from the request context. Only connection setup is time-bounded.
// The transport is wrapped with OpenTelemetry instrumentation, which is a
// no-op unless a tracer provider is installed.
func NewStreamingClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(newTransport(defaultDialTimeout)),
	}
}
