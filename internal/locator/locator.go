package locator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultScheme is the scheme used by provider-addressed locators.
const DefaultScheme = "content"

// Locator is an immutable, scheme-qualified resource path.
// A Locator parsed from input without "://" is relative: it has no scheme
// or authority and is matched on its path segments alone.
type Locator struct {
	scheme    string
	authority string
	segments  []string
	query     string
}

// Parse turns a raw locator string into a Locator.
// Empty path segments (double or trailing slashes) are dropped.
func Parse(raw string) (Locator, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Locator{}, errors.New("locator: empty input")
	}

	if !strings.Contains(raw, "://") {
		path, query, _ := strings.Cut(raw, "?")
		segs, err := splitSegments(path)
		if err != nil {
			return Locator{}, fmt.Errorf("locator: invalid path %q: %w", raw, err)
		}
		if len(segs) == 0 {
			return Locator{}, fmt.Errorf("locator: %q has no path segments", raw)
		}
		return Locator{segments: segs, query: query}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("locator: failed to parse %q: %w", raw, err)
	}
	if u.Scheme == "" {
		return Locator{}, fmt.Errorf("locator: %q has no scheme", raw)
	}

	segs, err := splitSegments(u.EscapedPath())
	if err != nil {
		return Locator{}, fmt.Errorf("locator: invalid path %q: %w", raw, err)
	}

	return Locator{
		scheme:    strings.ToLower(u.Scheme),
		authority: u.Host,
		segments:  segs,
		query:     u.RawQuery,
	}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level values.
func MustParse(raw string) Locator {
	l, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return l
}

// New builds a Locator from its parts.
func New(scheme, authority string, segments ...string) Locator {
	return Locator{
		scheme:    strings.ToLower(scheme),
		authority: authority,
		segments:  compact(segments),
	}
}

func splitSegments(path string) ([]string, error) {
	var segs []string
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		s, err := url.PathUnescape(part)
		if err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	return segs, nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Scheme returns the lower-cased scheme, or "" for relative locators.
func (l Locator) Scheme() string { return l.scheme }

// Authority returns the authority (host) part.
func (l Locator) Authority() string { return l.authority }

// Query returns the raw query string, if any.
func (l Locator) Query() string { return l.query }

// Segments returns a copy of the path segments.
func (l Locator) Segments() []string {
	out := make([]string, len(l.segments))
	copy(out, l.segments)
	return out
}

// Segment returns the i-th path segment or "" when out of range.
func (l Locator) Segment(i int) string {
	if i < 0 || i >= len(l.segments) {
		return ""
	}
	return l.segments[i]
}

// Len returns the number of path segments.
func (l Locator) Len() int { return len(l.segments) }

// LastSegment returns the final path segment.
func (l Locator) LastSegment() string { return l.Segment(len(l.segments) - 1) }

// Path returns the segments joined by "/" without a leading slash.
func (l Locator) Path() string {
	escaped := make([]string, len(l.segments))
	for i, s := range l.segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.Join(escaped, "/")
}

// IsRelative reports whether the locator was given without scheme and authority.
func (l Locator) IsRelative() bool {
	return l.scheme == "" && l.authority == ""
}

// IsZero reports whether l is the zero Locator.
func (l Locator) IsZero() bool {
	return l.scheme == "" && l.authority == "" && len(l.segments) == 0 && l.query == ""
}

// WithPath returns a copy of l with its path replaced and the query dropped.
// l is left untouched.
func (l Locator) WithPath(segments ...string) Locator {
	return Locator{
		scheme:    l.scheme,
		authority: l.authority,
		segments:  compact(segments),
	}
}

// Append returns a copy of l with extra segments appended.
func (l Locator) Append(segments ...string) Locator {
	next := make([]string, 0, len(l.segments)+len(segments))
	next = append(next, l.segments...)
	next = append(next, segments...)
	return l.WithPath(next...)
}

// String returns the canonical text form of the locator.
func (l Locator) String() string {
	var sb strings.Builder
	if !l.IsRelative() {
		sb.WriteString(l.scheme)
		sb.WriteString("://")
		sb.WriteString(l.authority)
		if len(l.segments) > 0 {
			sb.WriteString("/")
		}
	}
	sb.WriteString(l.Path())
	if l.query != "" {
		sb.WriteString("?")
		sb.WriteString(l.query)
	}
	return sb.String()
}

// Equal reports whether two locators name the same resource.
func (l Locator) Equal(o Locator) bool {
	return l.String() == o.String()
}
