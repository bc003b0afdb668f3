package locator

import (
	"strings"
)

const (
	wildcardNumber = "#"
	wildcardText   = "*"
)

type rule struct {
	authority string
	pattern   []string
	kind      Kind
}

// Matcher maps locator paths to kinds using an ordered pattern table.
//
// Pattern segments are literal text, "#" (one all-digit segment) or "*"
// (any single segment). A pattern only matches a path with the same number
// of segments, so "contacts/#" never swallows "contacts/38/photo". Rules are
// evaluated in registration order and the first match wins.
//
// A Matcher is filled once and then only read; Match is safe for concurrent
// use as long as Add is no longer called.
type Matcher struct {
	rules []rule
}

// NewMatcher returns an empty Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Add registers pattern for authority. Leading and trailing slashes in
// pattern are ignored.
func (m *Matcher) Add(authority, pattern string, kind Kind) *Matcher {
	m.rules = append(m.rules, rule{
		authority: authority,
		pattern:   compact(strings.Split(pattern, "/")),
		kind:      kind,
	})
	return m
}

// Match returns the kind of the first rule that matches loc, or
// KindGenericAddressable when none does. Relative locators are matched on
// their path regardless of the rule's authority.
func (m *Matcher) Match(loc Locator) Kind {
	for _, r := range m.rules {
		if !loc.IsRelative() && loc.authority != r.authority {
			continue
		}
		if matchSegments(r.pattern, loc.segments) {
			return r.kind
		}
	}
	return KindGenericAddressable
}

func matchSegments(pattern, segs []string) bool {
	if len(pattern) != len(segs) {
		return false
	}
	for i, p := range pattern {
		switch p {
		case wildcardNumber:
			if !isNumeric(segs[i]) {
				return false
			}
		case wildcardText:
			if segs[i] == "" {
				return false
			}
		default:
			if p != segs[i] {
				return false
			}
		}
	}
	return true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
