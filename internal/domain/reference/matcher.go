package reference

import "strings"

// TextSignalMatcher decides whether a free-text value carries a term.
// All rule-table lookups over conditions, medications and lab text go through it.
type TextSignalMatcher interface {
	Matches(text, term string) bool
}

// SubstringMatcher is the default matcher: case-insensitive substring containment
type SubstringMatcher struct{}

// Matches reports whether text contains term, ignoring case and surrounding space.
// An empty term never matches.
func (SubstringMatcher) Matches(text, term string) bool {
	term = normalize(term)
	if term == "" {
		return false
	}
	return strings.Contains(normalize(text), term)
}

// FirstMatch returns the first term found in any of the texts
func FirstMatch(m TextSignalMatcher, texts, terms []string) (string, bool) {
	for _, text := range texts {
		for _, term := range terms {
			if m.Matches(text, term) {
				return term, true
			}
		}
	}
	return "", false
}

// AllMatches returns every term found in at least one text, in term order
func AllMatches(m TextSignalMatcher, texts, terms []string) []string {
	var out []string
	for _, term := range terms {
		for _, text := range texts {
			if m.Matches(text, term) {
				out = append(out, term)
				break
			}
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NameKey is the canonical map key for an item name
func NameKey(name string) string {
	return normalize(name)
}
