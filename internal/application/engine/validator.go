package engine

import (
	"fmt"
	"sort"

	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/domain/reference"
)

// InteractionPolicy decides how pairs with UNKNOWN interaction status are treated
type InteractionPolicy string

const (
	// PolicyStrict treats never-evaluated pairs as conflicting
	PolicyStrict InteractionPolicy = "strict"
	// PolicyLenient lets never-evaluated pairs share a pack
	PolicyLenient InteractionPolicy = "lenient"
)

// DefaultBackfillConfidence is the confidence assigned to catalog backfill items
const DefaultBackfillConfidence = 50

const backfillReason = "Added from the catalog to complete your pack without interactions."

// Conflict records a resolved pairwise conflict
type Conflict struct {
	Winner string                      `json:"winner"`
	Loser  string                      `json:"loser"`
	Status reference.InteractionStatus `json:"status"`
}

// Report describes every change the validator made to the raw candidates
type Report struct {
	Unresolved []string   `json:"unresolved,omitempty"`
	Duplicates []string   `json:"duplicates,omitempty"`
	Filtered   []string   `json:"filtered,omitempty"`
	Conflicts  []Conflict `json:"conflicts,omitempty"`
	Backfilled []string   `json:"backfilled,omitempty"`
	Trimmed    []string   `json:"trimmed,omitempty"`
}

// ValidatorOption configures a CandidateValidator
type ValidatorOption func(*CandidateValidator)

// WithInteractionPolicy sets how UNKNOWN interaction pairs are handled
func WithInteractionPolicy(p InteractionPolicy) ValidatorOption {
	return func(v *CandidateValidator) {
		if p == PolicyLenient || p == PolicyStrict {
			v.policy = p
		}
	}
}

// WithBackfillConfidence sets the confidence given to backfilled items
func WithBackfillConfidence(c int) ValidatorOption {
	return func(v *CandidateValidator) {
		if c >= 0 && c <= 100 {
			v.backfillConfidence = c
		}
	}
}

// CandidateValidator enforces pack size, interaction freedom and contraindications
type CandidateValidator struct {
	catalog            *reference.Catalog
	graph              *reference.InteractionGraph
	policy             InteractionPolicy
	backfillConfidence int
}

// NewCandidateValidator creates a validator over the catalog and interaction graph
func NewCandidateValidator(data *reference.Data, opts ...ValidatorOption) *CandidateValidator {
	v := &CandidateValidator{
		catalog:            data.Catalog(),
		graph:              data.Interactions(),
		policy:             PolicyStrict,
		backfillConfidence: DefaultBackfillConfidence,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Policy returns the active interaction policy
func (v *CandidateValidator) Policy() InteractionPolicy {
	return v.policy
}

type entry struct {
	rec      plan.Recommendation
	order    int
	priority int
}

// Resolve turns raw candidates into exactly n safe recommendations.
// It returns *plan.InsufficientCatalogError when the catalog cannot fill the pack,
// and *plan.InvariantError if the final re-check fails.
func (v *CandidateValidator) Resolve(
	candidates []plan.Candidate,
	forbidden ForbiddenSet,
	priorities plan.PriorityMap,
	n int,
) ([]plan.Recommendation, Report, error) {
	var report Report
	if n <= 0 {
		return nil, report, plan.ErrInvalidPackSize
	}

	entries := v.normalize(candidates, priorities, &report)

	// Filter
	kept := entries[:0]
	for _, e := range entries {
		if forbidden.Contains(e.rec.Item) {
			report.Filtered = append(report.Filtered, e.rec.Item)
			continue
		}
		kept = append(kept, e)
	}
	entries = kept

	// Conflict detection and resolution, pairs visited in candidate order
	removed := make([]bool, len(entries))
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if removed[i] || removed[j] {
				continue
			}
			status := v.graph.Status(entries[i].rec.Item, entries[j].rec.Item)
			if !v.blocks(status) {
				continue
			}
			winner, loser := i, j
			if outranks(entries[j], entries[i]) {
				winner, loser = j, i
			}
			removed[loser] = true
			report.Conflicts = append(report.Conflicts, Conflict{
				Winner: entries[winner].rec.Item,
				Loser:  entries[loser].rec.Item,
				Status: status,
			})
		}
	}
	selected := make([]entry, 0, n)
	for i, e := range entries {
		if !removed[i] {
			selected = append(selected, e)
		}
	}

	// Backfill
	if len(selected) < n {
		var err error
		selected, err = v.backfill(selected, forbidden, priorities, n, &report)
		if err != nil {
			return nil, report, err
		}
	}

	// Trim
	for len(selected) > n {
		drop := 0
		for i := 1; i < len(selected); i++ {
			if trimsBefore(selected[i], selected[drop]) {
				drop = i
			}
		}
		report.Trimmed = append(report.Trimmed, selected[drop].rec.Item)
		selected = append(selected[:drop], selected[drop+1:]...)
	}

	recs := make([]plan.Recommendation, len(selected))
	for i, e := range selected {
		recs[i] = e.rec
	}

	if err := v.Verify(recs, forbidden, n); err != nil {
		return nil, report, err
	}
	return recs, report, nil
}

// Verify checks the hard invariants on a resolved pack
func (v *CandidateValidator) Verify(recs []plan.Recommendation, forbidden ForbiddenSet, n int) error {
	if len(recs) != n {
		return &plan.InvariantError{Invariant: "pack_size", Detail: fmt.Sprintf("got %d items, want %d", len(recs), n)}
	}
	seen := make(map[string]struct{}, len(recs))
	for i, r := range recs {
		key := reference.NameKey(r.Item)
		if _, dup := seen[key]; dup {
			return &plan.InvariantError{Invariant: "unique_items", Detail: r.Item}
		}
		seen[key] = struct{}{}
		if forbidden.Contains(r.Item) {
			return &plan.InvariantError{Invariant: "contraindication", Detail: r.Item}
		}
		for _, other := range recs[i+1:] {
			if v.blocks(v.graph.Status(r.Item, other.Item)) {
				return &plan.InvariantError{Invariant: "interaction", Detail: r.Item + " + " + other.Item}
			}
		}
	}
	return nil
}

func (v *CandidateValidator) blocks(status reference.InteractionStatus) bool {
	switch status {
	case reference.InteractionConflicts:
		return true
	case reference.InteractionUnknown:
		return v.policy == PolicyStrict
	default:
		return false
	}
}

// normalize maps candidate names onto catalog items, dropping unknown names and repeats
func (v *CandidateValidator) normalize(candidates []plan.Candidate, priorities plan.PriorityMap, report *Report) []entry {
	seen := make(map[string]struct{}, len(candidates))
	entries := make([]entry, 0, len(candidates))
	for i, c := range candidates {
		item, ok := v.catalog.Resolve(c.Name)
		if !ok {
			report.Unresolved = append(report.Unresolved, c.Name)
			continue
		}
		key := reference.NameKey(item.Name)
		if _, dup := seen[key]; dup {
			report.Duplicates = append(report.Duplicates, c.Name)
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, entry{
			rec: plan.Recommendation{
				Item:       item.Name,
				ItemID:     item.ID,
				Dosage:     orDefault(c.Dosage, item.DefaultDosage),
				Timing:     orDefault(c.Timing, item.DefaultTiming),
				Reason:     c.Reason,
				Confidence: clamp(c.Confidence),
			},
			order:    i,
			priority: priorities.Of(item.Name),
		})
	}
	return entries
}

// backfill appends catalog items by descending priority, then catalog order.
// The loop is capped at catalog size × n iterations.
func (v *CandidateValidator) backfill(
	selected []entry,
	forbidden ForbiddenSet,
	priorities plan.PriorityMap,
	n int,
	report *Report,
) ([]entry, error) {
	items := v.catalog.Items()
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return priorities.Of(items[order[a]].Name) > priorities.Of(items[order[b]].Name)
	})

	present := make(map[string]struct{}, n)
	nextOrder := 0
	for _, e := range selected {
		present[reference.NameKey(e.rec.Item)] = struct{}{}
		if e.order >= nextOrder {
			nextOrder = e.order + 1
		}
	}

	limit := len(items) * n
	iterations := 0
	for len(selected) < n {
		picked := false
		for _, idx := range order {
			iterations++
			if iterations > limit {
				return nil, &plan.InsufficientCatalogError{Needed: n, Selected: len(selected)}
			}
			item := items[idx]
			if !v.eligible(item, selected, present, forbidden) {
				continue
			}
			selected = append(selected, entry{
				rec: plan.Recommendation{
					Item:       item.Name,
					ItemID:     item.ID,
					Dosage:     item.DefaultDosage,
					Timing:     item.DefaultTiming,
					Reason:     backfillReason,
					Confidence: v.backfillConfidence,
				},
				order:    nextOrder,
				priority: priorities.Of(item.Name),
			})
			nextOrder++
			present[reference.NameKey(item.Name)] = struct{}{}
			report.Backfilled = append(report.Backfilled, item.Name)
			picked = true
			break
		}
		if !picked {
			return nil, &plan.InsufficientCatalogError{Needed: n, Selected: len(selected)}
		}
	}
	return selected, nil
}

func (v *CandidateValidator) eligible(item reference.CatalogItem, selected []entry, present map[string]struct{}, forbidden ForbiddenSet) bool {
	if _, ok := present[reference.NameKey(item.Name)]; ok {
		return false
	}
	if forbidden.Contains(item.Name) {
		return false
	}
	for _, e := range selected {
		if v.blocks(v.graph.Status(item.Name, e.rec.Item)) {
			return false
		}
	}
	return true
}

// outranks reports whether a beats b in a conflict: priority, then confidence, then earlier position
func outranks(a, b entry) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	if a.rec.Confidence != b.rec.Confidence {
		return a.rec.Confidence > b.rec.Confidence
	}
	return a.order < b.order
}

// trimsBefore reports whether a should be trimmed before b: lower confidence,
// then lower priority, then later position
func trimsBefore(a, b entry) bool {
	if a.rec.Confidence != b.rec.Confidence {
		return a.rec.Confidence < b.rec.Confidence
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.order > b.order
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func clamp(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
