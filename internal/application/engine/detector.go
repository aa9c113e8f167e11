// Package engine implements the deterministic recommendation core: pattern
// detection, priorities, contraindication filtering, candidate validation and
// tier classification. Every component is a pure function of its inputs and the
// immutable reference data, so one instance serves concurrent requests.
package engine

import (
	"strings"

	"github.com/wellpack/engine/internal/domain/health"
	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/domain/reference"
)

// Detection is the output of pattern detection for one profile
type Detection struct {
	Patterns []plan.Pattern
	Excess   []plan.ExcessPattern
}

// SynergisticItems returns the deduplicated items suggested by the detected patterns, in pattern order
func (d Detection) SynergisticItems() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range d.Patterns {
		for _, item := range p.SynergisticItems {
			key := reference.NameKey(item)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// PatternDetector evaluates the pattern and excess tables against a profile
type PatternDetector struct {
	templates []reference.PatternTemplate
	excess    []reference.ExcessRule
	matcher   reference.TextSignalMatcher
}

// NewPatternDetector creates a detector over the reference tables.
// A nil matcher selects case-insensitive substring matching.
func NewPatternDetector(data *reference.Data, matcher reference.TextSignalMatcher) *PatternDetector {
	if matcher == nil {
		matcher = reference.SubstringMatcher{}
	}
	return &PatternDetector{
		templates: data.Patterns(),
		excess:    data.ExcessRules(),
		matcher:   matcher,
	}
}

// signalInput is the per-request view of the profile the predicates read
type signalInput struct {
	flags       map[health.FlagKey]bool
	conditions  []string
	labText     []string
	medications []string
}

func newSignalInput(p health.Profile) signalInput {
	return signalInput{
		flags:       p.FlagSet(),
		conditions:  p.ActiveConditions(),
		labText:     p.LabText(),
		medications: p.ActiveMedications(),
	}
}

// Detect returns every pattern and excess state the profile corroborates.
// Patterns are returned in template order and may overlap.
func (d *PatternDetector) Detect(profile health.Profile) Detection {
	in := newSignalInput(profile)
	det := Detection{
		Patterns: []plan.Pattern{},
		Excess:   []plan.ExcessPattern{},
	}

	for _, t := range d.templates {
		families, indicators := d.evaluate(t.Signals, in)
		if len(families) == 0 {
			continue
		}
		det.Patterns = append(det.Patterns, plan.Pattern{
			Name:             t.Name,
			Signals:          families,
			Indicators:       indicators,
			SynergisticItems: append([]string(nil), t.SynergisticItems...),
			Explanation:      explain(t.Explanation, indicators),
			Confidence:       t.Confidence,
		})
	}

	for _, x := range d.excess {
		families, indicators := d.evaluate(x.Signals, in)
		if len(families) == 0 {
			continue
		}
		det.Excess = append(det.Excess, plan.ExcessPattern{
			Neurotransmitter: x.Neurotransmitter,
			Indicators:       indicators,
			Avoid:            append([]string(nil), x.Avoid...),
			Suggest:          append([]string(nil), x.Suggest...),
		})
	}

	return det
}

// evaluate returns the families that fired and the union of matched indicators
func (d *PatternDetector) evaluate(s reference.Signals, in signalInput) ([]reference.SignalFamily, []string) {
	var families []reference.SignalFamily
	var indicators []string

	if s.Symptoms != nil && s.Symptoms.Min >= reference.MinSymptomCorroboration {
		var hits []string
		seen := make(map[health.FlagKey]bool, len(s.Symptoms.Flags))
		for _, f := range s.Symptoms.Flags {
			if in.flags[f] && !seen[f] {
				seen[f] = true
				hits = append(hits, string(f))
			}
		}
		if len(hits) >= s.Symptoms.Min {
			families = append(families, reference.SignalSymptoms)
			indicators = append(indicators, hits...)
		}
	}

	for _, fam := range []struct {
		family reference.SignalFamily
		texts  []string
		terms  []string
	}{
		{reference.SignalConditions, in.conditions, s.Conditions},
		{reference.SignalLabText, in.labText, s.LabTerms},
		{reference.SignalMedications, in.medications, s.Medications},
	} {
		if hits := reference.AllMatches(d.matcher, fam.texts, fam.terms); len(hits) > 0 {
			families = append(families, fam.family)
			indicators = append(indicators, hits...)
		}
	}

	return families, indicators
}

func explain(template string, indicators []string) string {
	joined := strings.Join(indicators, ", ")
	if strings.Contains(template, "{indicators}") {
		return strings.ReplaceAll(template, "{indicators}", joined)
	}
	if template == "" {
		return "Indicators: " + joined
	}
	return template
}
