// Package reference holds the immutable rule tables the engine enforces:
// the catalog, the interaction graph, contraindication rules, pattern templates
// and excess rules. Tables are built once at process start and never mutated.
package reference

import (
	"errors"
	"fmt"

	"github.com/wellpack/engine/internal/domain/health"
)

// Domain errors for reference table validation
var (
	ErrEmptyCatalog      = errors.New("catalog must contain at least one item")
	ErrDuplicateItem     = errors.New("duplicate catalog item")
	ErrUnknownItem       = errors.New("rule references an item missing from the catalog")
	ErrWeakSymptomSignal = errors.New("symptom signal must require at least two flags")
	ErrUnknownFlag       = errors.New("unknown symptom flag")
	ErrInvalidConfidence = errors.New("pattern confidence must be between 0 and 100")
	ErrEmptyTemplateName = errors.New("pattern template name is required")
	ErrSelfInteraction   = errors.New("interaction edge must join two distinct items")
	ErrDuplicateFlag     = errors.New("symptom signal lists a flag more than once")
	ErrUnreachableSignal = errors.New("symptom signal requires more flags than it lists")
)

// MinSymptomCorroboration is the smallest symptom-flag count that may trigger a pattern
const MinSymptomCorroboration = 2

// Tables is the raw, serializable form of the reference data
type Tables struct {
	Catalog           []CatalogItem          `yaml:"catalog" json:"catalog"`
	Interactions      []InteractionEdge      `yaml:"interactions" json:"interactions"`
	Evaluated         []string               `yaml:"evaluated" json:"evaluated"`
	Contraindications []ContraindicationRule `yaml:"contraindications" json:"contraindications"`
	Patterns          []PatternTemplate      `yaml:"patterns" json:"patterns"`
	Excess            []ExcessRule           `yaml:"excess" json:"excess"`
}

// Data is the validated, read-only reference data shared by all requests
type Data struct {
	catalog           *Catalog
	interactions      *InteractionGraph
	contraindications []ContraindicationRule
	patterns          []PatternTemplate
	excess            []ExcessRule
}

// NewData validates the tables and freezes them.
// Every item reference is rewritten to its canonical catalog name.
func NewData(t Tables) (*Data, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	catalog := NewCatalog(t.Catalog)
	c := t.canonical(catalog)
	return &Data{
		catalog:           catalog,
		interactions:      NewInteractionGraph(c.Interactions, c.Evaluated),
		contraindications: c.Contraindications,
		patterns:          c.Patterns,
		excess:            c.Excess,
	}, nil
}

// Catalog returns the item catalog
func (d *Data) Catalog() *Catalog { return d.catalog }

// Interactions returns the interaction graph
func (d *Data) Interactions() *InteractionGraph { return d.interactions }

// Contraindications returns a copy of the contraindication rules
func (d *Data) Contraindications() []ContraindicationRule {
	return append([]ContraindicationRule(nil), d.contraindications...)
}

// Patterns returns a copy of the pattern templates in table order
func (d *Data) Patterns() []PatternTemplate {
	return append([]PatternTemplate(nil), d.patterns...)
}

// ExcessRules returns a copy of the excess rules in table order
func (d *Data) ExcessRules() []ExcessRule {
	return append([]ExcessRule(nil), d.excess...)
}

// Validate checks the tables for internal consistency
func (t Tables) Validate() error {
	if len(t.Catalog) == 0 {
		return ErrEmptyCatalog
	}

	names := make(map[string]struct{}, len(t.Catalog))
	for _, item := range t.Catalog {
		key := NameKey(item.Name)
		if key == "" {
			return fmt.Errorf("catalog item %q: name is required", item.ID)
		}
		if _, dup := names[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateItem, item.Name)
		}
		names[key] = struct{}{}
	}
	catalog := NewCatalog(t.Catalog)
	known := func(name string) error {
		if _, ok := catalog.Lookup(name); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownItem, name)
		}
		return nil
	}
	allKnown := func(items []string) error {
		for _, name := range items {
			if err := known(name); err != nil {
				return err
			}
		}
		return nil
	}

	for _, e := range t.Interactions {
		if err := allKnown([]string{e.A, e.B}); err != nil {
			return err
		}
		if catalog.Position(e.A) == catalog.Position(e.B) {
			return fmt.Errorf("%w: %s", ErrSelfInteraction, e.A)
		}
	}
	if err := allKnown(t.Evaluated); err != nil {
		return err
	}
	for _, r := range t.Contraindications {
		if err := known(r.Item); err != nil {
			return fmt.Errorf("contraindication: %w", err)
		}
	}

	for _, p := range t.Patterns {
		if p.Name == "" {
			return ErrEmptyTemplateName
		}
		if p.Confidence < 0 || p.Confidence > 100 {
			return fmt.Errorf("%w: %s", ErrInvalidConfidence, p.Name)
		}
		if err := validateSignals(p.Signals); err != nil {
			return fmt.Errorf("pattern %s: %w", p.Name, err)
		}
		if err := allKnown(p.SynergisticItems); err != nil {
			return fmt.Errorf("pattern %s: %w", p.Name, err)
		}
	}
	for _, x := range t.Excess {
		if err := validateSignals(x.Signals); err != nil {
			return fmt.Errorf("excess rule %s: %w", x.Neurotransmitter, err)
		}
		if err := allKnown(append(append([]string(nil), x.Avoid...), x.Suggest...)); err != nil {
			return fmt.Errorf("excess rule %s: %w", x.Neurotransmitter, err)
		}
	}

	return nil
}

func validateSignals(s Signals) error {
	if s.Symptoms == nil {
		return nil
	}
	if s.Symptoms.Min < MinSymptomCorroboration {
		return ErrWeakSymptomSignal
	}
	seen := make(map[health.FlagKey]struct{}, len(s.Symptoms.Flags))
	for _, f := range s.Symptoms.Flags {
		if !f.IsCanonical() {
			return fmt.Errorf("%w: %s", ErrUnknownFlag, f)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateFlag, f)
		}
		seen[f] = struct{}{}
	}
	if s.Symptoms.Min > len(seen) {
		return ErrUnreachableSignal
	}
	return nil
}

// canonical returns a deep copy of the rule tables with every item reference
// replaced by its catalog name. The tables must already be valid.
func (t Tables) canonical(catalog *Catalog) Tables {
	name := func(n string) string {
		if item, ok := catalog.Lookup(n); ok {
			return item.Name
		}
		return n
	}
	names := func(in []string) []string {
		if in == nil {
			return nil
		}
		out := make([]string, len(in))
		for i, n := range in {
			out[i] = name(n)
		}
		return out
	}

	out := Tables{
		Interactions:      make([]InteractionEdge, len(t.Interactions)),
		Evaluated:         names(t.Evaluated),
		Contraindications: make([]ContraindicationRule, len(t.Contraindications)),
		Patterns:          make([]PatternTemplate, len(t.Patterns)),
		Excess:            make([]ExcessRule, len(t.Excess)),
	}
	for i, e := range t.Interactions {
		out.Interactions[i] = InteractionEdge{A: name(e.A), B: name(e.B), Note: e.Note}
	}
	for i, r := range t.Contraindications {
		r.Item = name(r.Item)
		out.Contraindications[i] = r
	}
	for i, p := range t.Patterns {
		p.SynergisticItems = names(p.SynergisticItems)
		out.Patterns[i] = p
	}
	for i, x := range t.Excess {
		x.Avoid = names(x.Avoid)
		x.Suggest = names(x.Suggest)
		out.Excess[i] = x
	}
	return out
}
