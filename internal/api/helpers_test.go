// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/anirelay/anirelay/internal/apperr"
	"github.com/anirelay/anirelay/internal/catalog"
	"github.com/anirelay/anirelay/internal/config"
	"github.com/anirelay/anirelay/internal/health"
	"github.com/anirelay/anirelay/internal/upstream"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const providerBase = "https://provider.test"

// streamReply is a canned media response. Each fetch gets a fresh reader
// over body; failMidway ends it with a read error after body.
type streamReply struct {
	status     int
	header     http.Header
	body       []byte
	failMidway bool
}

// fakeUpstream serves canned provider JSON, manifests and media bodies.
type fakeUpstream struct {
	mu      sync.Mutex
	json    map[string]string
	text    map[string]string
	streams map[string]streamReply

	streamHeaders map[string]string
	streamURL     string
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		json:    map[string]string{},
		text:    map[string]string{},
		streams: map[string]streamReply{},
	}
}

func notFound(url string) error {
	return apperr.Upstream("GET "+url, http.StatusNotFound, "Request failed with status code 404", nil)
}

func (f *fakeUpstream) FetchJSON(_ context.Context, url string, out any) error {
	f.mu.Lock()
	body, ok := f.json[url]
	f.mu.Unlock()
	if !ok {
		return notFound(url)
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeUpstream) FetchText(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.text[url]
	if !ok {
		return "", notFound(url)
	}
	return body, nil
}

func (f *fakeUpstream) FetchStream(_ context.Context, url string, headers map[string]string) (*upstream.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamURL = url
	f.streamHeaders = headers
	reply, ok := f.streams[url]
	if !ok {
		return nil, notFound(url)
	}
	h := reply.header
	if h == nil {
		h = http.Header{}
	}
	var r io.Reader = bytes.NewReader(reply.body)
	if reply.failMidway {
		r = &failAfter{data: bytes.Clone(reply.body)}
	}
	return &upstream.Response{
		StatusCode: reply.status,
		Header:     h.Clone(),
		Body:       io.NopCloser(r),
	}, nil
}

func testConfig() config.AppConfig {
	cfg := config.Defaults()
	cfg.APIURL = providerBase
	cfg.Metrics.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg config.AppConfig, up *fakeUpstream) *Server {
	t.Helper()
	svc, err := catalog.New(catalog.Config{APIURL: cfg.APIURL, Upstream: up, Logger: zerolog.Nop()})
	require.NoError(t, err)
	srv, err := New(cfg, Deps{
		Catalog:  svc,
		Upstream: up,
		Health:   health.NewManager("test"),
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

