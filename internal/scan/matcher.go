package scan

import "strings"

// Matcher decides whether candidate text matches the search pattern.
// Matching is substring containment. In case-insensitive mode both
// sides are lowercased, the pattern once at construction and each
// candidate on test, so the comparison is symmetric.
//
// An empty pattern matches everything. That is deliberate and kept
// from the original behavior: scanning with "" enumerates the whole
// store.
type Matcher struct {
	pattern       string
	caseSensitive bool
}

// NewMatcher builds a Matcher for the given pattern and case policy.
func NewMatcher(pattern string, caseSensitive bool) Matcher {
	if !caseSensitive {
		pattern = strings.ToLower(pattern)
	}
	return Matcher{pattern: pattern, caseSensitive: caseSensitive}
}

// Matches reports whether candidate contains the pattern.
func (m Matcher) Matches(candidate string) bool {
	if !m.caseSensitive {
		candidate = strings.ToLower(candidate)
	}
	return strings.Contains(candidate, m.pattern)
}
