package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/domain/reference"
)

// ForbiddenSet maps item name keys to the safety note explaining the exclusion
type ForbiddenSet map[string]string

// Contains reports whether the named item is forbidden
func (f ForbiddenSet) Contains(name string) bool {
	_, ok := f[reference.NameKey(name)]
	return ok
}

// Notes returns the safety notes sorted by item key
func (f ForbiddenSet) Notes() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	notes := make([]string, 0, len(keys))
	for _, k := range keys {
		notes = append(notes, f[k])
	}
	return notes
}

// ContraindicationFilter computes the items a user must not receive
type ContraindicationFilter struct {
	rules   []reference.ContraindicationRule
	matcher reference.TextSignalMatcher
}

// NewContraindicationFilter creates a filter over the static rule table
func NewContraindicationFilter(data *reference.Data, matcher reference.TextSignalMatcher) *ContraindicationFilter {
	if matcher == nil {
		matcher = reference.SubstringMatcher{}
	}
	return &ContraindicationFilter{
		rules:   data.Contraindications(),
		matcher: matcher,
	}
}

// Forbidden returns the forbidden items for the given conditions and excess states.
// The result depends only on its inputs.
func (f *ContraindicationFilter) Forbidden(conditions []string, excess []plan.ExcessPattern) ForbiddenSet {
	forbidden := make(ForbiddenSet)

	for _, rule := range f.rules {
		term, ok := reference.FirstMatch(f.matcher, conditions, rule.AvoidConditions)
		if !ok {
			continue
		}
		note := rule.SafetyNote
		if note == "" {
			note = fmt.Sprintf("%s is not recommended with %s", rule.Item, term)
		}
		key := reference.NameKey(rule.Item)
		if existing, dup := forbidden[key]; dup && existing != note {
			note = existing + " " + note
		}
		forbidden[key] = note
	}

	for _, x := range excess {
		for _, item := range x.Avoid {
			key := reference.NameKey(item)
			if _, dup := forbidden[key]; dup {
				continue
			}
			forbidden[key] = fmt.Sprintf("%s avoided: indicators suggest %s excess (%s).",
				item, x.Neurotransmitter, strings.Join(x.Indicators, ", "))
		}
	}

	return forbidden
}
