// SPDX-License-Identifier: MIT

package catalog

// QualityDefault is the quality label the provider gives its preferred source.
const QualityDefault = "default"

// StreamSource is one playable rendition of an episode.
type StreamSource struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
	IsM3U8  bool   `json:"isM3U8"`
}

// StreamingData is the provider's watch payload for an episode. It is what
// gets cached under CacheKey(episodeID).
type StreamingData struct {
	// Headers must accompany requests for the source URLs (usually Referer).
	Headers  map[string]string `json:"headers,omitempty"`
	Sources  []StreamSource    `json:"sources"`
	Download string            `json:"download,omitempty"`
}

// EpisodeInfo is the episode view returned to clients. Previous and next
// episode IDs are null at the ends of the series.
type EpisodeInfo struct {
	EpisodeNumber   int               `json:"episodeNumber"`
	TotalEpisodes   int               `json:"totalEpisodes"`
	Sources         []StreamSource    `json:"sources"`
	Headers         map[string]string `json:"headers,omitempty"`
	DefaultSource   *StreamSource     `json:"defaultSource"`
	PreviousEpisode *string           `json:"previousEpisode"`
	NextEpisode     *string           `json:"nextEpisode"`
}

// animeInfo is the subset of the provider's info payload the catalog reads.
type animeInfo struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	TotalEpisodes int    `json:"totalEpisodes"`
}
