// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	t.Setenv("ANIRELAY_TEST_STR", "value")
	assert.Equal(t, "value", ParseString("ANIRELAY_TEST_STR", "def"))
	assert.Equal(t, "def", ParseString("ANIRELAY_TEST_MISSING", "def"))

	t.Setenv("ANIRELAY_TEST_EMPTY", "")
	assert.Equal(t, "def", ParseString("ANIRELAY_TEST_EMPTY", "def"))
}

func TestParseStringWithAlias(t *testing.T) {
	t.Run("primary wins", func(t *testing.T) {
		t.Setenv("ANIRELAY_TEST_PRIMARY", "new")
		t.Setenv("ANIRELAY_TEST_LEGACY", "old")
		assert.Equal(t, "new", ParseStringWithAlias("ANIRELAY_TEST_PRIMARY", "ANIRELAY_TEST_LEGACY", "def"))
	})
	t.Run("alias used when primary unset", func(t *testing.T) {
		t.Setenv("ANIRELAY_TEST_LEGACY", "old")
		assert.Equal(t, "old", ParseStringWithAlias("ANIRELAY_TEST_PRIMARY", "ANIRELAY_TEST_LEGACY", "def"))
	})
	t.Run("default", func(t *testing.T) {
		assert.Equal(t, "def", ParseStringWithAlias("ANIRELAY_TEST_PRIMARY", "ANIRELAY_TEST_LEGACY", "def"))
	})
}

func TestParseInt(t *testing.T) {
	t.Setenv("ANIRELAY_TEST_INT", "42")
	assert.Equal(t, 42, ParseInt("ANIRELAY_TEST_INT", 1))

	t.Setenv("ANIRELAY_TEST_INT", "forty")
	assert.Equal(t, 1, ParseInt("ANIRELAY_TEST_INT", 1))
}

func TestParseFloat(t *testing.T) {
	t.Setenv("ANIRELAY_TEST_FLOAT", "0.25")
	assert.InDelta(t, 0.25, ParseFloat("ANIRELAY_TEST_FLOAT", 1), 1e-9)

	t.Setenv("ANIRELAY_TEST_FLOAT", "x")
	assert.InDelta(t, 1.0, ParseFloat("ANIRELAY_TEST_FLOAT", 1), 1e-9)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"300", 300 * time.Second},
		{"5m", 5 * time.Minute},
		{"1h30m", 90 * time.Minute},
		{"soon", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("ANIRELAY_TEST_DUR", tt.raw)
			assert.Equal(t, tt.want, ParseDuration("ANIRELAY_TEST_DUR", time.Second))
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"0", false},
		{"No", false},
		{"maybe", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("ANIRELAY_TEST_BOOL", tt.raw)
			assert.Equal(t, tt.want, ParseBool("ANIRELAY_TEST_BOOL", true))
		})
	}
}

func TestSensitive(t *testing.T) {
	assert.True(t, sensitive("ANIRELAY_REDIS_PASSWORD"))
	assert.True(t, sensitive("API_TOKEN"))
	assert.False(t, sensitive("ANIRELAY_REDIS_ADDR"))
}
