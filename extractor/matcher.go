package extractor

import (
	"regexp"
	"strings"
)

// Matcher produces candidate raw values from a document. Candidates are
// tried in the order returned.
type Matcher interface {
	Candidates(doc Document) []string
}

// Selector matches markup with a CSS selector.
type Selector struct {
	CSS  string
	Attr string // read this attribute instead of the element text
	Join bool   // concatenate all matches into a single candidate
}

func (s Selector) Candidates(doc Document) []string {
	found := doc.Select(s.CSS, s.Attr)
	if s.Join && len(found) > 0 {
		return []string{strings.Join(found, " ")}
	}
	return found
}

// Regex matches the document text and yields the first capture group of the
// first match, or the whole match when the pattern has no groups.
type Regex struct {
	Pattern *regexp.Regexp
}

// Re compiles a case-insensitive Regex matcher.
func Re(pattern string) Regex {
	return Regex{Pattern: regexp.MustCompile(`(?i)` + pattern)}
}

func (r Regex) Candidates(doc Document) []string {
	m := r.Pattern.FindStringSubmatch(doc.Text())
	switch {
	case m == nil:
		return nil
	case len(m) > 1:
		return []string{m[1]}
	default:
		return []string{m[0]}
	}
}

// Rule is an ordered fallback chain for one field. Parse converts a raw
// candidate and reports whether it is acceptable, including range checks.
type Rule[T any] struct {
	Matchers []Matcher
	Parse    func(raw string) (T, bool)
}

// Extract returns the first acceptable value, trying every candidate of every
// matcher in order. The boolean is false when nothing matched.
func (r Rule[T]) Extract(doc Document) (T, bool) {
	for _, m := range r.Matchers {
		for _, raw := range m.Candidates(doc) {
			if v, ok := r.Parse(raw); ok {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}
