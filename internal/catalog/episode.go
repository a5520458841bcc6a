// SPDX-License-Identifier: MIT

package catalog

import (
	"strconv"
	"strings"

	"github.com/anirelay/anirelay/internal/apperr"
)

const episodeSep = "-episode-"

// ParseEpisodeID splits "<animeId>-episode-<n>" into its parts.
func ParseEpisodeID(id string) (animeID string, number int, err error) {
	animeID, rest, ok := strings.Cut(id, episodeSep)
	if !ok || animeID == "" {
		return "", 0, apperr.Validation("parse episode id", "episode id must look like <anime>-episode-<number>")
	}
	number, convErr := strconv.Atoi(rest)
	if convErr != nil || number < 0 {
		return "", 0, apperr.Validation("parse episode id", "episode number must be a non-negative integer")
	}
	return animeID, number, nil
}

// EpisodeID formats an episode ID.
func EpisodeID(animeID string, number int) string {
	return animeID + episodeSep + strconv.Itoa(number)
}

// neighbours returns the previous and next episode IDs, nil where the series ends.
func neighbours(animeID string, number, total int) (prev, next *string) {
	if number > 1 {
		p := EpisodeID(animeID, number-1)
		prev = &p
	}
	if number < total {
		n := EpisodeID(animeID, number+1)
		next = &n
	}
	return prev, next
}

// DefaultSource returns the source labelled "default", else the first one.
func DefaultSource(sources []StreamSource) *StreamSource {
	for i := range sources {
		if sources[i].Quality == QualityDefault {
			return &sources[i]
		}
	}
	if len(sources) > 0 {
		return &sources[0]
	}
	return nil
}

// SelectSource picks the source for quality, falling back to "default".
func SelectSource(sources []StreamSource, quality string) (StreamSource, error) {
	pick := func(q string) (StreamSource, bool) {
		for _, s := range sources {
			if s.Quality == q {
				return s, true
			}
		}
		return StreamSource{}, false
	}

	src, ok := pick(quality)
	if !ok {
		src, ok = pick(QualityDefault)
	}
	if !ok {
		return StreamSource{}, apperr.NotFound("select source", "no source for quality "+strconv.Quote(quality))
	}
	if src.URL == "" {
		return StreamSource{}, apperr.NotFound("select source", "No valid stream URL found")
	}
	return src, nil
}
