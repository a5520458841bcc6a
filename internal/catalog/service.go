// SPDX-License-Identifier: MIT

// Package catalog shapes provider metadata into the views the frontend
// consumes: episode details with navigation, stream sources, search and
// top-airing listings.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/anirelay/anirelay/internal/apperr"
	"github.com/anirelay/anirelay/internal/cache"
	rlog "github.com/anirelay/anirelay/internal/log"
	"github.com/anirelay/anirelay/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultAPIURL is the provider used when none is configured.
const DefaultAPIURL = "https://apiconsumetorg-zeta.vercel.app"

const providerPath = "/anime/gogoanime"

// JSONFetcher decodes a provider JSON response. *upstream.Client satisfies it.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string, out any) error
}

// Config configures a Service.
type Config struct {
	// APIURL is the provider base URL. Defaults to DefaultAPIURL.
	APIURL   string
	Upstream JSONFetcher
	// Cache holds watch payloads. Defaults to no caching.
	Cache  cache.Cache[StreamingData]
	Logger zerolog.Logger
}

// Service answers catalog queries against the provider.
type Service struct {
	base     string
	upstream JSONFetcher
	cache    cache.Cache[StreamingData]
	logger   zerolog.Logger
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Upstream == nil {
		return nil, fmt.Errorf("catalog: upstream fetcher is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if base == "" {
		base = DefaultAPIURL
	}
	c := cfg.Cache
	if c == nil {
		c = cache.NewNoOpCache[StreamingData]()
	}
	return &Service{
		base:     base,
		upstream: cfg.Upstream,
		cache:    c,
		logger:   cfg.Logger.With().Str(rlog.FieldComponent, "catalog").Logger(),
	}, nil
}

// CacheKey is the cache key for an episode's watch payload.
func CacheKey(episodeID string) string {
	return "stream-" + episodeID
}

func (s *Service) endpoint(parts ...string) string {
	var b strings.Builder
	b.WriteString(s.base)
	b.WriteString(providerPath)
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(p)
	}
	return b.String()
}

// Streaming returns the watch payload for episodeID, from cache when fresh.
// Only successful lookups are cached.
func (s *Service) Streaming(ctx context.Context, episodeID string) (StreamingData, error) {
	key := CacheKey(episodeID)
	logger := rlog.WithContext(ctx, s.logger).With().
		Str(rlog.FieldEpisodeID, episodeID).
		Str(rlog.FieldCacheKey, key).
		Logger()

	if data, ok := s.cache.Get(key); ok {
		metrics.ObserveCacheLookup(true)
		logger.Debug().Msg("returning cached streaming data")
		return data, nil
	}
	metrics.ObserveCacheLookup(false)

	var data StreamingData
	if err := s.upstream.FetchJSON(ctx, s.endpoint("watch", url.PathEscape(episodeID)), &data); err != nil {
		logger.Warn().Err(err).Msg("fetch streaming links failed")
		return StreamingData{}, err
	}
	if len(data.Sources) == 0 {
		return StreamingData{}, apperr.Upstream("streaming links", 0, "No streaming sources found", nil)
	}

	s.cache.Set(key, data)
	logger.Debug().Int("sources", len(data.Sources)).Msg("cached streaming data")
	return data, nil
}

// Episode builds the episode view. The anime info (for the episode count)
// and the watch payload are fetched concurrently.
func (s *Service) Episode(ctx context.Context, episodeID string) (*EpisodeInfo, error) {
	animeID, number, err := ParseEpisodeID(episodeID)
	if err != nil {
		return nil, err
	}

	var (
		info animeInfo
		data StreamingData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.upstream.FetchJSON(gctx, s.endpoint("info", url.PathEscape(animeID)), &info)
	})
	g.Go(func() error {
		var err error
		data, err = s.Streaming(gctx, episodeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prev, next := neighbours(animeID, number, info.TotalEpisodes)
	return &EpisodeInfo{
		EpisodeNumber:   number,
		TotalEpisodes:   info.TotalEpisodes,
		Sources:         data.Sources,
		Headers:         data.Headers,
		DefaultSource:   DefaultSource(data.Sources),
		PreviousEpisode: prev,
		NextEpisode:     next,
	}, nil
}

// ResolveStream returns the source to relay for episodeID at quality and the
// headers the provider requires when fetching it.
func (s *Service) ResolveStream(ctx context.Context, episodeID, quality string) (StreamSource, map[string]string, error) {
	data, err := s.Streaming(ctx, episodeID)
	if err != nil {
		return StreamSource{}, nil, err
	}
	src, err := SelectSource(data.Sources, quality)
	if err != nil {
		return StreamSource{}, nil, err
	}
	return src, data.Headers, nil
}

// Search forwards a title search and returns the provider JSON untouched.
func (s *Service) Search(ctx context.Context, query string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.upstream.FetchJSON(ctx, s.endpoint(escapeComponent(query)), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// TopAiring returns the provider's top-airing listing untouched.
func (s *Service) TopAiring(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.upstream.FetchJSON(ctx, s.endpoint("top-airing"), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// escapeComponent encodes a single path segment, spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
