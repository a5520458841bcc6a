// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/anirelay/anirelay/internal/api/middleware"
	"github.com/anirelay/anirelay/internal/apperr"
	"github.com/anirelay/anirelay/internal/catalog"
	rlog "github.com/anirelay/anirelay/internal/log"
	"github.com/anirelay/anirelay/internal/metrics"
	"github.com/anirelay/anirelay/internal/playlist"
	"github.com/anirelay/anirelay/internal/proxy"
	"github.com/anirelay/anirelay/internal/telemetry"
	"github.com/anirelay/anirelay/internal/validate"
	"github.com/go-chi/chi/v5"
)

const mpegURLContentType = "application/vnd.apple.mpegurl"

func (s *Server) handleEpisode(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "episodeId")
	middleware.AddSpanAttributes(r, telemetry.EpisodeAttributes(id, "")...)

	info, err := s.catalog.Episode(r.Context(), id)
	if err != nil {
		writeError(w, r, err, errorBody{
			Error:   "Failed to fetch episode information",
			Details: apperr.Message(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleStream relays the episode's source at the requested quality. A
// missing quality segment behaves like an unknown one and falls back to
// the default source.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "episodeId")
	quality := pathParam(r, "quality")
	if quality == "" {
		quality = catalog.QualityDefault
	}
	middleware.AddSpanAttributes(r, telemetry.EpisodeAttributes(id, quality)...)

	src, headers, err := s.catalog.ResolveStream(r.Context(), id, quality)
	if err != nil {
		writeError(w, r, err, errorBody{Error: "Failed to load stream"})
		return
	}
	s.relay(w, r, s.stream, src.URL, headers, "Failed to load stream")
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	target, ok := remoteURL(w, r)
	if !ok {
		return
	}

	text, err := s.upstream.FetchText(r.Context(), target)
	if err != nil {
		writeError(w, r, err, errorBody{Error: "Failed to proxy M3U8"})
		return
	}

	out, segments := s.rewriter.Rewrite(text, playlist.BaseURL(target))
	metrics.ObserveManifestRewrite(segments)
	middleware.AddSpanAttributes(r, telemetry.ManifestAttributes(target, segments)...)

	logger := rlog.WithComponentFromContext(r.Context(), "api")
	logger.Debug().
		Str(rlog.FieldUpstream, target).
		Int("segments", segments).
		Msg("manifest rewritten")

	w.Header().Set("Content-Type", mpegURLContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	target, ok := remoteURL(w, r)
	if !ok {
		return
	}
	s.relay(w, r, s.segment, target, nil, "Failed to proxy TS segment")
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := pathParam(r, "query")
	raw, err := s.catalog.Search(r.Context(), query)
	if err != nil {
		writeError(w, r, err, errorBody{
			Error:   "Failed to search anime",
			Message: apperr.Message(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (s *Server) handleTopAiring(w http.ResponseWriter, r *http.Request) {
	raw, err := s.catalog.TopAiring(r.Context())
	if err != nil {
		writeError(w, r, err, errorBody{
			Error:   "Failed to fetch top airing anime",
			Details: apperr.Message(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

// relay streams target through rl. Failures before the status line get a
// JSON error; failures after it abort the connection.
func (s *Server) relay(w http.ResponseWriter, r *http.Request, rl *proxy.Relay, target string, headers map[string]string, failure string) {
	middleware.AddSpanAttributes(r, telemetry.RelayAttributes(rl.Route(), target)...)

	err := rl.Serve(w, r, target, headers)
	switch {
	case err == nil:
	case errors.Is(err, proxy.ErrMidStream):
		panic(http.ErrAbortHandler)
	default:
		writeError(w, r, err, errorBody{Error: failure})
	}
}

// remoteURL reads and checks the url query parameter, answering 400 itself
// when it is missing or not an absolute http(s) URL.
func remoteURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, r, apperr.Validation("proxy", "URL is required"), errorBody{Error: "URL is required"})
		return "", false
	}
	v := validate.New()
	v.HTTPURL("url", target)
	if err := v.Err(); err != nil {
		writeError(w, r, apperr.Validation("proxy", err.Error()), errorBody{
			Error:   "Invalid URL",
			Details: err.Error(),
		})
		return "", false
	}
	return target, true
}

// pathParam returns the decoded route parameter. chi matches on the escaped
// path when one is present, so "%2F" arrives still encoded.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
