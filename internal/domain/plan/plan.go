// Package plan contains the supplement pack model produced by the engine.
package plan

import (
	"time"

	"github.com/google/uuid"
	"github.com/wellpack/engine/internal/domain/reference"
)

// DefaultPackSize is the number of items in a plan unless configured otherwise
const DefaultPackSize = 6

// Tier is the personalization tier requested from the generator
type Tier string

const (
	TierComprehensive Tier = "comprehensive"
	TierLabGuided     Tier = "lab_guided"
	TierProfileGuided Tier = "profile_guided"
	TierFoundational  Tier = "foundational"
)

// Source records where the plan's candidates came from
type Source string

const (
	SourceGenerator Source = "generator"
	SourceFallback  Source = "fallback"
)

// ProductBinding links a recommendation to a purchasable product
type ProductBinding struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Exact     bool    `json:"exact"`
}

// Recommendation is a single item in the pack
type Recommendation struct {
	Item       string          `json:"item"`
	ItemID     string          `json:"item_id,omitempty"`
	Dosage     string          `json:"dosage"`
	Timing     string          `json:"timing"`
	Reason     string          `json:"reason"`
	Confidence int             `json:"confidence"`
	Product    *ProductBinding `json:"product,omitempty"`
}

// Pattern is a detected multi-signal dysfunction pattern
type Pattern struct {
	Name             string                   `json:"name"`
	Signals          []reference.SignalFamily `json:"signals"`
	Indicators       []string                 `json:"indicators"`
	SynergisticItems []string                 `json:"synergistic_items"`
	Explanation      string                   `json:"explanation"`
	Confidence       int                      `json:"confidence"`
}

// ExcessPattern is a detected neurotransmitter-excess state
type ExcessPattern struct {
	Neurotransmitter string   `json:"neurotransmitter"`
	Indicators       []string `json:"indicators"`
	Avoid            []string `json:"avoid"`
	Suggest          []string `json:"suggest"`
}

// PriorityMap maps item name keys to priority; missing items have priority 0
type PriorityMap map[string]int

// Of returns the priority of the named item
func (p PriorityMap) Of(name string) int {
	return p[reference.NameKey(name)]
}

// Plan is the finalized pack handed to persistence and rendering.
// A returned Plan is never modified.
type Plan struct {
	ID                uuid.UUID        `json:"id"`
	UserID            uuid.UUID        `json:"user_id"`
	Tier              Tier             `json:"tier"`
	Source            Source           `json:"source"`
	Recommendations   []Recommendation `json:"recommendations"`
	GeneralNotes      string           `json:"general_notes"`
	Contraindications string           `json:"contraindications"`
	Patterns          []Pattern        `json:"patterns"`
	ExcessPatterns    []ExcessPattern  `json:"excess_patterns"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Items returns the recommended item names in plan order
func (p *Plan) Items() []string {
	names := make([]string, len(p.Recommendations))
	for i, r := range p.Recommendations {
		names[i] = r.Item
	}
	return names
}

// TotalPrice sums the bound product prices
func (p *Plan) TotalPrice() float64 {
	var total float64
	for _, r := range p.Recommendations {
		if r.Product != nil {
			total += r.Product.Price
		}
	}
	return total
}
