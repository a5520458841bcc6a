// SPDX-License-Identifier: MIT

// Package proxy relays upstream media bodies (HLS segments, progressive
// video) to the client as they arrive.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	rlog "github.com/anirelay/anirelay/internal/log"
	"github.com/anirelay/anirelay/internal/metrics"
	"github.com/anirelay/anirelay/internal/upstream"
	"github.com/rs/zerolog"
)

// DefaultChunkSize is the size of each read/write/flush cycle.
const DefaultChunkSize = 32 << 10

// ErrMidStream marks a failure after the response status was already sent.
// The only remaining option for the caller is to abort the connection.
var ErrMidStream = errors.New("relay failed after response started")

// hopHeaders are connection-scoped and never forwarded (RFC 9110 §7.6.1).
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Fetcher opens an upstream body. *upstream.Client satisfies it.
type Fetcher interface {
	FetchStream(ctx context.Context, url string, headers map[string]string) (*upstream.Response, error)
}

// Config configures a Relay.
type Config struct {
	Fetcher Fetcher
	Logger  zerolog.Logger
	// Route labels metrics and logs ("stream", "segment").
	Route string
	// ChunkSize defaults to DefaultChunkSize.
	ChunkSize int
}

// Relay pipes one upstream response per call to Serve. It holds no
// per-request state and is safe for concurrent use.
type Relay struct {
	fetcher   Fetcher
	logger    zerolog.Logger
	route     string
	chunkSize int
}

// New creates a Relay.
func New(cfg Config) (*Relay, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("proxy: fetcher is required")
	}
	route := cfg.Route
	if route == "" {
		route = "relay"
	}
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &Relay{
		fetcher:   cfg.Fetcher,
		logger:    cfg.Logger.With().Str(rlog.FieldComponent, "relay").Str("route", route).Logger(),
		route:     route,
		chunkSize: chunk,
	}, nil
}

// Route returns the label this relay reports under.
func (rl *Relay) Route() string {
	return rl.route
}

// run tracks the state of a single Serve call.
type run struct {
	state  State
	logger zerolog.Logger
}

func (r *run) to(next State) {
	if !r.state.CanTransitionTo(next) {
		r.logger.Error().
			Str("from", r.state.String()).
			Str("to", next.String()).
			Msg("illegal relay state transition")
		return
	}
	r.state = next
}

// Serve fetches remoteURL with headers and streams the response to w.
//
// A non-nil error returned without ErrMidStream means nothing was written to
// w and the caller may still answer with an error body. An error wrapping
// ErrMidStream means the status line is already on the wire. A client that
// disconnects ends the relay in StateClosed with a nil error; its context
// cancellation aborts the upstream read.
func (rl *Relay) Serve(w http.ResponseWriter, r *http.Request, remoteURL string, headers map[string]string) error {
	ctx := r.Context()
	logger := rlog.WithContext(ctx, rl.logger).With().Str(rlog.FieldUpstream, remoteURL).Logger()
	st := &run{state: StatePending, logger: logger}
	defer func() {
		metrics.RelayOutcomes.WithLabelValues(rl.route, st.state.String()).Inc()
	}()

	st.to(StateUpstreamConnecting)
	resp, err := rl.fetcher.FetchStream(ctx, remoteURL, headers)
	if err != nil {
		st.to(StateFailed)
		logger.Warn().Err(err).Str(rlog.FieldState, st.state.String()).Msg("upstream connect failed")
		return err
	}
	defer resp.Body.Close()

	active := metrics.ActiveRelays.WithLabelValues(rl.route)
	active.Inc()
	defer active.Dec()

	copyHeaders(w.Header(), resp.Header)
	SetCORS(w.Header())
	w.WriteHeader(resp.StatusCode)
	st.to(StateStreaming)

	n, err := rl.pipe(w, resp.Body)
	metrics.RelayBytes.WithLabelValues(rl.route).Add(float64(n))

	switch {
	case err == nil:
		st.to(StateClosed)
		logger.Debug().Int64(rlog.FieldBytes, n).Msg("relay complete")
		return nil
	case ctx.Err() != nil || errors.Is(err, errClientWrite):
		st.to(StateClosed)
		logger.Debug().Int64(rlog.FieldBytes, n).Msg("client disconnected during relay")
		return nil
	default:
		st.to(StateFailed)
		logger.Warn().Err(err).Int64(rlog.FieldBytes, n).Msg("upstream failed mid-stream")
		return fmt.Errorf("%w: %w", ErrMidStream, err)
	}
}

var errClientWrite = errors.New("client write failed")

// pipe copies src to w chunk by chunk, flushing after every write.
func (rl *Relay) pipe(w http.ResponseWriter, src io.Reader) (int64, error) {
	rc := http.NewResponseController(w)
	buf := make([]byte, rl.chunkSize)
	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := w.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, fmt.Errorf("%w: %w", errClientWrite, werr)
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, fmt.Errorf("%w: %w", errClientWrite, err)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// copyHeaders adds src to dst minus hop-by-hop headers, including any named
// in src's Connection header.
func copyHeaders(dst, src http.Header) {
	drop := make(map[string]struct{}, len(hopHeaders))
	for _, h := range hopHeaders {
		drop[h] = struct{}{}
	}
	for _, v := range src.Values("Connection") {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				drop[http.CanonicalHeaderKey(f)] = struct{}{}
			}
		}
	}
	for k, vv := range src {
		if _, skip := drop[http.CanonicalHeaderKey(k)]; skip {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

// SetCORS force-sets the open CORS policy relayed media is served with,
// replacing whatever the upstream sent.
func SetCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "*")
}
