// SPDX-License-Identifier: MIT

// Package upstream issues requests to the streaming provider. Every request
// carries the Referer/Origin pair the provider checks before serving data.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anirelay/anirelay/internal/apperr"
	rlog "github.com/anirelay/anirelay/internal/log"
	"github.com/anirelay/anirelay/internal/metrics"
	"github.com/anirelay/anirelay/internal/ratelimit"
	"github.com/rs/zerolog"
)

// DefaultReferer is the origin the provider expects on every request.
const DefaultReferer = "https://gogoanime.cl"

// maxErrorBody bounds how much of a failed response body is kept as message.
const maxErrorBody = 512

// maxTextBody bounds buffered text responses (manifests, JSON).
const maxTextBody = 16 << 20

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Response is an upstream reply whose body has not been read yet.
// The caller owns Body and must close it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Config configures a Client.
type Config struct {
	// Referer is sent as both Referer and Origin. Defaults to DefaultReferer.
	Referer string
	// UserAgent, when set, is sent unless the caller overrides it.
	UserAgent string
	// HTTP performs requests. Required.
	HTTP Doer
	// Limiter optionally throttles outbound calls.
	Limiter *ratelimit.Limiter
	// MaxTextBody caps buffered text responses. Defaults to 16 MiB.
	MaxTextBody int64
	Logger      zerolog.Logger
}

// Client talks to the provider. It makes exactly one attempt per call.
type Client struct {
	referer   string
	userAgent string
	http      Doer
	limiter   *ratelimit.Limiter
	maxText   int64
	logger    zerolog.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("upstream: http client is required")
	}
	referer := strings.TrimSpace(cfg.Referer)
	if referer == "" {
		referer = DefaultReferer
	}
	maxText := cfg.MaxTextBody
	if maxText <= 0 {
		maxText = maxTextBody
	}
	return &Client{
		referer:   referer,
		userAgent: cfg.UserAgent,
		http:      cfg.HTTP,
		limiter:   cfg.Limiter,
		maxText:   maxText,
		logger:    cfg.Logger,
	}, nil
}

// SpoofHeaders returns the fixed provider headers merged with extra.
// Keys in extra win on conflict, compared case-insensitively.
func (c *Client) SpoofHeaders(extra map[string]string) http.Header {
	h := http.Header{}
	h.Set("Referer", c.referer)
	h.Set("Origin", c.referer)
	if c.userAgent != "" {
		h.Set("User-Agent", c.userAgent)
	}
	for k, v := range extra {
		h.Set(k, v)
	}
	return h
}

// FetchJSON GETs url and decodes the JSON body into out.
func (c *Client) FetchJSON(ctx context.Context, url string, out any) error {
	start := time.Now()
	err := c.fetchJSON(ctx, url, out)
	metrics.ObserveUpstream("json", err, time.Since(start))
	return err
}

func (c *Client) fetchJSON(ctx context.Context, url string, out any) error {
	resp, err := c.do(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxText)).Decode(out); err != nil {
		return apperr.Upstream("decode json", resp.StatusCode, "invalid JSON from upstream", err)
	}
	return nil
}

// FetchText GETs url and returns the body as a string. Used for manifests,
// which must be parsed as a whole before rewriting.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	start := time.Now()
	body, err := c.fetchText(ctx, url)
	metrics.ObserveUpstream("text", err, time.Since(start))
	return body, err
}

func (c *Client) fetchText(ctx context.Context, url string) (string, error) {
	resp, err := c.do(ctx, url, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxText+1))
	if err != nil {
		return "", apperr.Upstream("read body", resp.StatusCode, "", err)
	}
	if int64(len(data)) > c.maxText {
		return "", apperr.Upstream("read body", resp.StatusCode, fmt.Sprintf("response exceeds %d bytes", c.maxText), nil)
	}
	return string(data), nil
}

// FetchStream GETs url and returns as soon as status and headers arrive.
// The body is left unread for the caller to stream.
func (c *Client) FetchStream(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	start := time.Now()
	resp, err := c.do(ctx, url, headers)
	metrics.ObserveUpstream("stream", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// do performs a single GET. Non-2xx responses are drained, closed and
// converted into an upstream error carrying the status code.
func (c *Client) do(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.Upstream("throttle", 0, "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Upstream("build request", 0, "invalid upstream URL", err)
	}
	req.Header = c.SpoofHeaders(headers)

	logger := rlog.WithContext(ctx, c.logger)
	logger.Debug().Str(rlog.FieldUpstream, url).Msg("upstream request")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str(rlog.FieldUpstream, url).Msg("upstream request failed")
		return nil, apperr.Upstream("request", 0, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorMessage(resp)
		logger.Warn().
			Int(rlog.FieldStatus, resp.StatusCode).
			Str(rlog.FieldUpstream, url).
			Msg("upstream returned non-2xx status")
		return nil, apperr.Upstream("request", resp.StatusCode, msg, nil)
	}

	return resp, nil
}

// readErrorMessage extracts a short message from an error response and
// closes it. JSON bodies with a "message" or "error" field are preferred.
func readErrorMessage(resp *http.Response) string {
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
}
