// SPDX-License-Identifier: MIT

// Package api exposes the relay over HTTP: episode lookups, stream and
// segment relays, manifest rewriting and the catalog pass-through routes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anirelay/anirelay/internal/api/middleware"
	"github.com/anirelay/anirelay/internal/catalog"
	"github.com/anirelay/anirelay/internal/config"
	"github.com/anirelay/anirelay/internal/health"
	rlog "github.com/anirelay/anirelay/internal/log"
	"github.com/anirelay/anirelay/internal/playlist"
	"github.com/anirelay/anirelay/internal/proxy"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Catalog is the metadata side of the relay. *catalog.Service satisfies it.
type Catalog interface {
	Episode(ctx context.Context, episodeID string) (*catalog.EpisodeInfo, error)
	ResolveStream(ctx context.Context, episodeID, quality string) (catalog.StreamSource, map[string]string, error)
	Search(ctx context.Context, query string) (json.RawMessage, error)
	TopAiring(ctx context.Context) (json.RawMessage, error)
}

// Upstream fetches manifests and media bodies. *upstream.Client satisfies it.
type Upstream interface {
	proxy.Fetcher
	FetchText(ctx context.Context, url string) (string, error)
}

// Deps are the collaborators a Server routes to.
type Deps struct {
	Catalog  Catalog
	Upstream Upstream
	Health   *health.Manager
	// Rewriter defaults to playlist.New().
	Rewriter *playlist.Rewriter
	Logger   zerolog.Logger
}

// Server owns the router and the handlers behind it.
type Server struct {
	cfg      config.AppConfig
	catalog  Catalog
	upstream Upstream
	health   *health.Manager
	rewriter *playlist.Rewriter
	stream   *proxy.Relay
	segment  *proxy.Relay
	logger   zerolog.Logger
	router   chi.Router
}

// New wires a Server. cfg supplies the base path, CORS origin, rate limits
// and the metrics and tracing toggles.
func New(cfg config.AppConfig, deps Deps) (*Server, error) {
	if deps.Catalog == nil {
		return nil, errors.New("api: catalog is required")
	}
	if deps.Upstream == nil {
		return nil, errors.New("api: upstream is required")
	}
	if deps.Health == nil {
		deps.Health = health.NewManager("")
	}
	if deps.Rewriter == nil {
		deps.Rewriter = playlist.New()
	}
	logger := deps.Logger.With().Str(rlog.FieldComponent, "api").Logger()

	stream, err := proxy.New(proxy.Config{Fetcher: deps.Upstream, Logger: deps.Logger, Route: "stream"})
	if err != nil {
		return nil, err
	}
	segment, err := proxy.New(proxy.Config{Fetcher: deps.Upstream, Logger: deps.Logger, Route: "segment"})
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		catalog:  deps.Catalog,
		upstream: deps.Upstream,
		health:   deps.Health,
		rewriter: deps.Rewriter,
		stream:   stream,
		segment:  segment,
		logger:   logger,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the chi router for route introspection.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) routes() chi.Router {
	tracing := ""
	if s.cfg.Tracing.Enabled {
		tracing = "anirelay-api"
	}
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigin:         s.cfg.FrontendURL,
		EnableSecurityHeaders: true,
		EnableMetrics:         s.cfg.Metrics.Enabled,
		TracingService:        tracing,
		EnableLogging:         true,
	})

	r.Get("/health", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Get("/openapi.yaml", serveOpenAPI)
	if s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	rl := s.cfg.RateLimit
	episodesLimit, streamLimit := passthrough, passthrough
	if rl.Enabled {
		episodesLimit = middleware.EpisodesRateLimit(rl.EpisodesLimit, rl.EpisodesWindow)
		// One limiter instance so manifest and segment requests share a budget per client.
		streamLimit = middleware.StreamRateLimit(rl.StreamLimit, rl.StreamWindow)
	}

	mount := func(r chi.Router) {
		r.With(episodesLimit).Get("/episodes/{episodeId}", s.handleEpisode)
		r.Get("/stream/{episodeId}/{quality}", s.handleStream)
		r.Get("/stream/{episodeId}", s.handleStream)
		r.With(streamLimit).Get("/proxy/m3u8", s.handleManifest)
		r.With(streamLimit).Get("/proxy/ts", s.handleSegment)
		r.With(streamLimit).Get("/proxy/proxy/ts", s.handleSegment)
		r.Get("/anime/gogoanime/search/{query}", s.handleSearch)
		r.Get("/anime/gogoanime/top-airing", s.handleTopAiring)
	}

	base := strings.TrimRight(s.cfg.BasePath, "/")
	if base == "" {
		mount(r)
	} else {
		r.Route(base, mount)
	}
	return r
}

func passthrough(next http.Handler) http.Handler { return next }

// NewHTTPServer builds the http.Server for h. Only the header read is
// bounded; streamed responses may run for as long as the client watches.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
