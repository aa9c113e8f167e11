package engine

import (
	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/domain/reference"
)

// Layer weights. Each weight exceeds the sum of all lower weights, so an item
// matched by a higher-precedence source always outranks one matched only below it.
const (
	WeightPrimaryConcern = 1000
	WeightLabText        = 100
	WeightCondition      = 10
	WeightPattern        = 1
)

// PrioritySignals carries every source that can raise an item's priority
type PrioritySignals struct {
	PrimaryConcern string
	LabText        []string
	Conditions     []string
	Patterns       []plan.Pattern
}

// PriorityResolver builds item priorities from user text
type PriorityResolver struct {
	items   []reference.CatalogItem
	matcher reference.TextSignalMatcher
}

// NewPriorityResolver creates a resolver over the catalog
func NewPriorityResolver(catalog *reference.Catalog, matcher reference.TextSignalMatcher) *PriorityResolver {
	if matcher == nil {
		matcher = reference.SubstringMatcher{}
	}
	return &PriorityResolver{
		items:   catalog.Items(),
		matcher: matcher,
	}
}

// Build assigns a positive priority to every item whose name, synonyms, keywords
// or category appear in the primary concern text
func (r *PriorityResolver) Build(primaryConcern string) plan.PriorityMap {
	return r.BuildLayered(PrioritySignals{PrimaryConcern: primaryConcern})
}

// BuildLayered combines all priority sources, each counted at most once per item
func (r *PriorityResolver) BuildLayered(s PrioritySignals) plan.PriorityMap {
	patternItems := make(map[string]struct{})
	for _, p := range s.Patterns {
		for _, item := range p.SynergisticItems {
			patternItems[reference.NameKey(item)] = struct{}{}
		}
	}

	priorities := make(plan.PriorityMap)
	for _, item := range r.items {
		terms := r.terms(item)
		score := 0
		if r.mentions([]string{s.PrimaryConcern}, terms) {
			score += WeightPrimaryConcern
		}
		if r.mentions(s.LabText, terms) {
			score += WeightLabText
		}
		if r.mentions(s.Conditions, terms) {
			score += WeightCondition
		}
		if _, ok := patternItems[reference.NameKey(item.Name)]; ok {
			score += WeightPattern
		}
		if score > 0 {
			priorities[reference.NameKey(item.Name)] = score
		}
	}
	return priorities
}

func (r *PriorityResolver) terms(item reference.CatalogItem) []string {
	terms := item.Terms()
	if item.Category != "" {
		terms = append(terms, item.Category)
	}
	return terms
}

func (r *PriorityResolver) mentions(texts, terms []string) bool {
	_, ok := reference.FirstMatch(r.matcher, texts, terms)
	return ok
}
