package gorm

import (
	"fmt"
	"strings"

	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/domain/reference"
	"github.com/wellpack/engine/internal/ports/outbound"
)

// PlanToModel converts a domain plan to its GORM model
func PlanToModel(p *plan.Plan) *PlanModel {
	return &PlanModel{
		ID:                p.ID,
		UserID:            p.UserID,
		Tier:              string(p.Tier),
		Source:            string(p.Source),
		Recommendations:   JSONList[plan.Recommendation](p.Recommendations),
		GeneralNotes:      p.GeneralNotes,
		Contraindications: p.Contraindications,
		Patterns:          JSONList[plan.Pattern](p.Patterns),
		ExcessPatterns:    JSONList[plan.ExcessPattern](p.ExcessPatterns),
		ItemCount:         len(p.Recommendations),
		TotalPrice:        p.TotalPrice(),
		CreatedAt:         p.CreatedAt,
	}
}

// ModelToPlan converts a GORM model back to a domain plan
func ModelToPlan(m *PlanModel) *plan.Plan {
	return &plan.Plan{
		ID:                m.ID,
		UserID:            m.UserID,
		Tier:              plan.Tier(m.Tier),
		Source:            plan.Source(m.Source),
		Recommendations:   []plan.Recommendation(m.Recommendations),
		GeneralNotes:      m.GeneralNotes,
		Contraindications: m.Contraindications,
		Patterns:          []plan.Pattern(m.Patterns),
		ExcessPatterns:    []plan.ExcessPattern(m.ExcessPatterns),
		CreatedAt:         m.CreatedAt,
	}
}

// ModelToProduct converts a product row to the outbound product record
func ModelToProduct(m *ProductModel) outbound.Product {
	return outbound.Product{
		ID:    m.ID,
		Name:  m.Name,
		SKU:   m.SKU,
		Price: m.Price,
	}
}

// CatalogItemToProduct builds the seed product row for a catalog item
func CatalogItemToProduct(item reference.CatalogItem, position int) *ProductModel {
	return &ProductModel{
		ID:        item.ID,
		Name:      item.Name,
		SKU:       fmt.Sprintf("WP-%s", strings.ToUpper(strings.ReplaceAll(item.ID, "_", "-"))),
		Price:     item.UnitPrice,
		Category:  item.Category,
		SortOrder: position,
		Active:    true,
	}
}
