package reference

import (
	"strings"
)

// minReverseMatch keeps fragments like "D" or "B" from resolving to a longer alias
const minReverseMatch = 4

// CatalogItem is one supplement eligible for recommendation
type CatalogItem struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Synonyms      []string `yaml:"synonyms" json:"synonyms,omitempty"`
	Keywords      []string `yaml:"keywords" json:"keywords,omitempty"`
	Category      string   `yaml:"category" json:"category,omitempty"`
	UnitPrice     float64  `yaml:"unit_price" json:"unit_price"`
	DefaultDosage string   `yaml:"default_dosage" json:"default_dosage,omitempty"`
	DefaultTiming string   `yaml:"default_timing" json:"default_timing,omitempty"`
}

// Terms returns the name, synonyms and keywords used for text matching
func (c CatalogItem) Terms() []string {
	terms := make([]string, 0, 1+len(c.Synonyms)+len(c.Keywords))
	terms = append(terms, c.Name)
	terms = append(terms, c.Synonyms...)
	terms = append(terms, c.Keywords...)
	return terms
}

// Catalog is the ordered, read-only set of recommendable items
type Catalog struct {
	items []CatalogItem
	index map[string]int
}

// NewCatalog builds a catalog preserving the given order.
// Names and synonyms are indexed case-insensitively; the first item wins on collisions.
func NewCatalog(items []CatalogItem) *Catalog {
	c := &Catalog{
		items: append([]CatalogItem(nil), items...),
		index: make(map[string]int, len(items)*2),
	}
	for i, item := range c.items {
		for _, alias := range append([]string{item.Name}, item.Synonyms...) {
			key := NameKey(alias)
			if _, exists := c.index[key]; !exists && key != "" {
				c.index[key] = i
			}
		}
	}
	return c
}

// Items returns a copy of the catalog in catalog order
func (c *Catalog) Items() []CatalogItem {
	return append([]CatalogItem(nil), c.items...)
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return len(c.items)
}

// Position returns the catalog order of the named item, or -1
func (c *Catalog) Position(name string) int {
	if i, ok := c.index[NameKey(name)]; ok {
		return i
	}
	return -1
}

// Lookup finds an item by exact (case-insensitive) name or synonym
func (c *Catalog) Lookup(name string) (CatalogItem, bool) {
	if i := c.Position(name); i >= 0 {
		return c.items[i], true
	}
	return CatalogItem{}, false
}

// Resolve maps a free-form item name onto the catalog: exact name or synonym first,
// then the longest catalog alias contained in the name. A fragment contained in
// aliases resolves only when those aliases all belong to a single item.
func (c *Catalog) Resolve(name string) (CatalogItem, bool) {
	if item, ok := c.Lookup(name); ok {
		return item, true
	}
	key := NameKey(name)
	if key == "" {
		return CatalogItem{}, false
	}
	best, bestLen := -1, 0
	reverse := -1
	ambiguous := false
	for i, item := range c.items {
		for _, alias := range append([]string{item.Name}, item.Synonyms...) {
			a := NameKey(alias)
			if a == "" {
				continue
			}
			if strings.Contains(key, a) && len(a) > bestLen {
				best, bestLen = i, len(a)
			}
			if len(key) >= minReverseMatch && strings.Contains(a, key) {
				if reverse >= 0 && reverse != i {
					ambiguous = true
				}
				reverse = i
			}
		}
	}
	if best >= 0 {
		return c.items[best], true
	}
	if reverse < 0 || ambiguous {
		return CatalogItem{}, false
	}
	return c.items[reverse], true
}
