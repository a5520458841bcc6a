// SPDX-License-Identifier: MIT

// Package playlist rewrites HLS media playlists so that every segment is
// fetched through the relay instead of directly from the provider.
package playlist

import (
	"net/url"
	"strings"
	"unicode"
)

// DefaultSegmentPrefix is the proxy-relative route segment lines are rewritten to.
const DefaultSegmentPrefix = "proxy/ts"

// DefaultSegmentExtensions lists the file extensions treated as media segments.
var DefaultSegmentExtensions = []string{".ts"}

// Rewriter turns segment references into proxy-routed references.
// It is safe for concurrent use.
type Rewriter struct {
	prefix string
	marker string // prefix + "?url=", identifies already rewritten lines
	exts   []string
}

// Option customises a Rewriter.
type Option func(*Rewriter)

// WithSegmentPrefix sets the route rewritten lines point at.
func WithSegmentPrefix(prefix string) Option {
	return func(rw *Rewriter) {
		if prefix != "" {
			rw.prefix = prefix
		}
	}
}

// WithSegmentExtensions replaces the set of segment file extensions.
func WithSegmentExtensions(exts ...string) Option {
	return func(rw *Rewriter) {
		if len(exts) > 0 {
			rw.exts = append([]string(nil), exts...)
		}
	}
}

// New returns a Rewriter with the given options applied over the defaults.
func New(opts ...Option) *Rewriter {
	rw := &Rewriter{
		prefix: DefaultSegmentPrefix,
		exts:   DefaultSegmentExtensions,
	}
	for _, opt := range opts {
		opt(rw)
	}
	rw.marker = rw.prefix + "?url="
	return rw
}

var defaultRewriter = New()

// Rewrite rewrites manifest with the default rewriter.
func Rewrite(manifest, baseURL string) string {
	out, _ := defaultRewriter.Rewrite(manifest, baseURL)
	return out
}

// BaseURL returns manifestURL up to and including its last "/".
// A URL without any "/" yields "".
func BaseURL(manifestURL string) string {
	return manifestURL[:strings.LastIndex(manifestURL, "/")+1]
}

// Rewrite replaces every segment line in manifest with a proxy reference and
// returns the result with the number of lines rewritten. All other lines,
// and every line separator ("\n" or "\r\n"), are reproduced byte for byte.
func (rw *Rewriter) Rewrite(manifest, baseURL string) (string, int) {
	var b strings.Builder
	b.Grow(len(manifest) + len(manifest)/2)

	rewritten := 0
	rest := manifest
	for {
		line, sep, more := cutLine(rest)
		if rw.IsSegment(line) {
			b.WriteString(rw.proxyRef(rw.resolve(line, baseURL)))
			rewritten++
		} else {
			b.WriteString(line)
		}
		b.WriteString(sep)
		if !more {
			break
		}
		rest = rest[len(line)+len(sep):]
	}
	return b.String(), rewritten
}

// cutLine splits off the first line of s. sep is "\n", "\r\n" or "" for the
// final line; more reports whether anything follows sep.
func cutLine(s string) (line, sep string, more bool) {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return s, "", false
	}
	line, sep = s[:i], "\n"
	if strings.HasSuffix(line, "\r") {
		line, sep = line[:len(line)-1], "\r\n"
	}
	return line, sep, true
}

// IsSegment reports whether line, taken as a whole, is a bare segment
// reference: a single token ending in a segment extension that is neither a
// tag/comment nor an already rewritten proxy reference.
func (rw *Rewriter) IsSegment(line string) bool {
	if line == "" || line[0] == '#' {
		return false
	}
	if strings.HasPrefix(line, rw.marker) {
		return false
	}
	if strings.ContainsFunc(line, unicode.IsSpace) {
		return false
	}
	for _, ext := range rw.exts {
		if len(line) > len(ext) && strings.HasSuffix(line, ext) {
			return true
		}
	}
	return false
}

// resolve makes a segment reference absolute. Lines starting with "http" are
// kept as they are; host-relative and scheme-relative lines resolve against
// the base origin; anything else is appended to baseURL.
func (rw *Rewriter) resolve(line, baseURL string) string {
	if strings.HasPrefix(line, "http") {
		return line
	}
	if strings.HasPrefix(line, "/") {
		if base, err := url.Parse(baseURL); err == nil && base.Host != "" {
			if ref, err := url.Parse(line); err == nil {
				return base.ResolveReference(ref).String()
			}
		}
	}
	return baseURL + line
}

func (rw *Rewriter) proxyRef(absolute string) string {
	return rw.marker + escapeComponent(absolute)
}

// escapeComponent percent-encodes s the way browsers' encodeURIComponent
// does: like url.QueryEscape, but leaving !'()* literal.
func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

var componentUnescaper = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
