package plan

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/application/engine"
	domain "github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/domain/reference"
	"github.com/wellpack/engine/internal/ports/outbound"
)

var tierIntro = map[domain.Tier]string{
	domain.TierComprehensive: "Your pack is tailored to your lab results and genetic data.",
	domain.TierLabGuided:     "Your pack is guided by the lab or genetic data you shared.",
	domain.TierProfileGuided: "Your pack is tailored to your detailed health questionnaire.",
	domain.TierFoundational:  "Your pack covers foundational support based on your questionnaire.",
}

const noContraindications = "No contraindications identified for your listed conditions."

// fillReasons gives recommendations without a reason one derived from the detected patterns
func fillReasons(recs []domain.Recommendation, d engine.Detection) []domain.Recommendation {
	out := make([]domain.Recommendation, len(recs))
	for i, r := range recs {
		if r.Reason == "" {
			r.Reason = patternReason(r.Item, d)
		}
		out[i] = r
	}
	return out
}

func patternReason(item string, d engine.Detection) string {
	key := reference.NameKey(item)
	var names []string
	for _, p := range d.Patterns {
		for _, s := range p.SynergisticItems {
			if reference.NameKey(s) == key {
				names = append(names, p.Name)
				break
			}
		}
	}
	if len(names) == 0 {
		return "Foundational support for overall wellness."
	}
	return "Supports " + strings.Join(names, " and ") + "."
}

func composeGeneralNotes(tier domain.Tier, source domain.Source, d engine.Detection) string {
	var b strings.Builder
	b.WriteString(tierIntro[tier])

	if len(d.Patterns) > 0 {
		b.WriteString("\n\nPatterns identified from your answers:")
		for _, p := range d.Patterns {
			fmt.Fprintf(&b, "\n- %s (%d%% confidence): %s", p.Name, p.Confidence, p.Explanation)
		}
	}
	for _, x := range d.Excess {
		if len(x.Suggest) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n\nSigns of %s excess were noted; %s may be better tolerated.",
			x.Neurotransmitter, strings.Join(x.Suggest, ", "))
	}
	if source == domain.SourceFallback {
		b.WriteString("\n\nThis pack was built from your questionnaire patterns and our catalog priorities.")
	}
	return b.String()
}

func composeContraindications(forbidden engine.ForbiddenSet, d engine.Detection) string {
	notes := forbidden.Notes()
	if len(notes) == 0 {
		return noContraindications
	}
	var b strings.Builder
	for i, n := range notes {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(n)
	}
	if len(d.Excess) > 0 {
		labels := make([]string, len(d.Excess))
		for i, x := range d.Excess {
			labels[i] = x.Neurotransmitter
		}
		fmt.Fprintf(&b, "\nAdditional items were excluded for suspected %s excess.", strings.Join(labels, " and "))
	}
	return b.String()
}

// bindProducts links each recommendation to a product: exact name first, then substring.
// A failing product catalog leaves every recommendation unbound.
func (a *Assembler) bindProducts(ctx context.Context, recs []domain.Recommendation) []domain.Recommendation {
	if a.products == nil {
		return recs
	}
	products, err := a.products.ListProducts(ctx)
	if err != nil {
		a.logger.Warn("Product catalog unavailable, leaving recommendations unbound", zap.Error(err))
		return recs
	}

	out := make([]domain.Recommendation, len(recs))
	for i, r := range recs {
		if p, exact, ok := matchProduct(r.Item, products); ok {
			r.Product = &domain.ProductBinding{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.Price,
				Exact:     exact,
			}
		}
		out[i] = r
	}
	return out
}

func matchProduct(item string, products []outbound.Product) (outbound.Product, bool, bool) {
	key := reference.NameKey(item)
	for _, p := range products {
		if reference.NameKey(p.Name) == key {
			return p, true, true
		}
	}
	for _, p := range products {
		name := reference.NameKey(p.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, key) || strings.Contains(key, name) {
			return p, false, true
		}
	}
	return outbound.Product{}, false, false
}
