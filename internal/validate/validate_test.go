// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Accumulates(t *testing.T) {
	v := New()
	assert.True(t, v.IsValid())
	assert.NoError(t, v.Err())

	v.Positive("a", 0)
	v.Range("b", 11, 1, 10)
	require.False(t, v.IsValid())

	err := v.Err()
	require.Error(t, err)
	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors(), 2)
	assert.Equal(t, "validation failed for a: value must be positive, got 0; validation failed for b: value must be between 1 and 10, got 11", err.Error())

	// The returned error is detached from later additions.
	v.NotEmpty("c", " ")
	assert.Len(t, ve.Errors(), 2)
}

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"https://api.example.com", true},
		{"http://localhost:3000/api", true},
		{"", false},
		{"api.example.com", false},
		{"ftp://example.com", false},
		{"http://%zz", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := New()
			v.HTTPURL("url", tt.value)
			assert.Equal(t, tt.ok, v.IsValid(), v.Err())
		})
	}
}

func TestValidator_Origin(t *testing.T) {
	for value, ok := range map[string]bool{
		"*":                         true,
		"http://localhost:5173":     true,
		"https://anime.example/":    true,
		"https://anime.example/app": false,
		"localhost:5173":            false,
	} {
		v := New()
		v.Origin("origin", value)
		assert.Equal(t, ok, v.IsValid(), value)
	}
}

func TestValidator_ListenAddrAndBasePath(t *testing.T) {
	v := New()
	v.ListenAddr("listen", ":3000")
	v.ListenAddr("listen", "127.0.0.1:8080")
	v.BasePath("base", "")
	v.BasePath("base", "/api")
	assert.True(t, v.IsValid(), v.Err())

	v = New()
	v.ListenAddr("listen", "3000")
	v.ListenAddr("listen", "host:")
	v.BasePath("base", "api")
	v.BasePath("base", "/api/")
	assert.Len(t, v.Errors(), 4)
}

func TestValidator_Numbers(t *testing.T) {
	v := New()
	v.FloatRange("rate", 0.5, 0, 1)
	v.NonNegative("rps", 0)
	v.PositiveDuration("ttl", time.Second)
	v.OneOf("exporter", "grpc", []string{"grpc", "http"})
	assert.True(t, v.IsValid(), v.Err())

	v = New()
	v.FloatRange("rate", 1.5, 0, 1)
	v.NonNegative("rps", -1)
	v.PositiveDuration("ttl", 0)
	v.OneOf("exporter", "zipkin", []string{"grpc", "http"})
	assert.Len(t, v.Errors(), 4)
}

func TestValidator_Custom(t *testing.T) {
	v := New()
	v.Custom("x", 3, func(any) error { return errors.New("bad") })
	require.Len(t, v.Errors(), 1)
	assert.Equal(t, "bad", v.Errors()[0].Message)

	v.Custom("level", "verbose", func(val any) error {
		_, err := ParseLogLevel(val.(string))
		return err
	})
	require.Len(t, v.Errors(), 2)
	assert.Equal(t, "level", v.Errors()[1].Field)
	assert.Equal(t, ErrInvalidLogLevel.Message, v.Errors()[1].Message)
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, lvl)

	_, err = ParseLogLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}
