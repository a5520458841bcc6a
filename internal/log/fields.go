// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	FieldRequestID = "request_id"
	FieldComponent = "component"
	FieldEvent     = "event"

	FieldEpisodeID = "episode_id"
	FieldQuality   = "quality"
	FieldUpstream  = "upstream_url"
	FieldStatus    = "status"
	FieldState     = "state"
	FieldBytes     = "bytes"
	FieldCacheKey  = "cache_key"
	FieldPath      = "path"
)
