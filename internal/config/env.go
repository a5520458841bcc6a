// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anirelay/anirelay/internal/log"
	"github.com/rs/zerolog"
)

// sensitive reports whether the value of key must never be logged.
func sensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "token") || strings.Contains(k, "secret")
}

// lookup reads key and logs where the value came from. Unset and empty
// variables both yield ok=false.
func lookup(logger zerolog.Logger, key string) (string, bool) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
		return "", false
	}
	evt := logger.Debug().Str("key", key).Str("source", "environment")
	if sensitive(key) {
		evt = evt.Bool("sensitive", true)
	} else {
		evt = evt.Str("value", v)
	}
	evt.Msg("using environment variable")
	return v, true
}

// parseEnv reads key through parse, falling back to def when the variable is
// unset, empty or invalid.
func parseEnv[T any](key string, def T, kind string, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	raw, ok := lookup(logger, key)
	if !ok {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Interface("default", def).
			Msgf("invalid %s in environment variable, using default", kind)
		return def
	}
	return v
}

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	return parseEnv(key, defaultValue, "string", func(s string) (string, error) { return s, nil })
}

// ParseStringWithAlias reads key, falling back to the legacy alias and then
// to defaultValue. When both are set and disagree, key wins and a warning
// is logged.
func ParseStringWithAlias(key, alias, defaultValue string) string {
	primary, hasPrimary := os.LookupEnv(key)
	legacy, hasLegacy := os.LookupEnv(alias)
	if hasPrimary && primary != "" {
		if hasLegacy && legacy != "" && legacy != primary {
			logger := log.WithComponent("config")
			logger.Warn().
				Str("key", key).
				Str("alias", alias).
				Msg("both variable and its alias are set, alias ignored")
		}
		return ParseString(key, defaultValue)
	}
	return ParseString(alias, defaultValue)
}

// ParseInt reads an integer from environment variable or returns default value.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, "integer", strconv.Atoi)
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, "float", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseDuration reads a duration in Go format (e.g. "5m"). A bare integer is
// taken as seconds, matching how TTLs were configured before.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, "duration", func(s string) (time.Duration, error) {
		if secs, err := strconv.Atoi(s); err == nil {
			return time.Duration(secs) * time.Second, nil
		}
		return time.ParseDuration(s)
	})
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, "boolean", func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		default:
			return false, strconv.ErrSyntax
		}
	})
}
