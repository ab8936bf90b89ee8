package unified

import (
	"golang.org/x/text/language"
	"golang.org/x/text/search"
)

// MaintenanceTerms is the fixed vocabulary for maintenance-topic detection.
// Matching is lexical substring matching, so collisions ("fixture" matching
// "fix") are accepted behavior.
var MaintenanceTerms = []string{
	"maintenance",
	"broken",
	"repair",
	"issue",
	"fix",
	"leak",
	"hvac",
	"heat",
	"blind",
}

// Matcher reports whether text mentions any term of a fixed vocabulary,
// case-insensitively.
type Matcher struct {
	patterns []*search.Pattern
}

// NewMatcher compiles a matcher for the given terms.
func NewMatcher(terms []string) *Matcher {
	searcher := search.New(language.English, search.IgnoreCase, search.IgnoreDiacritics)
	patterns := make([]*search.Pattern, 0, len(terms))
	for _, term := range terms {
		patterns = append(patterns, searcher.CompileString(term))
	}
	return &Matcher{patterns: patterns}
}

// NewMaintenanceMatcher compiles the maintenance vocabulary.
func NewMaintenanceMatcher() *Matcher {
	return NewMatcher(MaintenanceTerms)
}

// Match reports whether text contains any vocabulary term.
func (m *Matcher) Match(text string) bool {
	for _, pattern := range m.patterns {
		if start, _ := pattern.IndexString(text); start >= 0 {
			return true
		}
	}
	return false
}
