// Package ai adapts external text-generation providers to the CandidateGenerator port
// and layers caching, rate limiting, circuit breaking and provider fallback over them.
package ai

import (
	"fmt"
	"strings"

	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/ports/outbound"
)

const systemPrompt = `You are a clinical nutrition assistant drafting a supplement pack.

CRITICAL: Respond with ONLY a valid JSON object in this exact format:
{
  "recommendations": [
    {
      "name": "Supplement name",
      "dosage": "amount and unit",
      "timing": "when to take it",
      "reason": "one sentence tied to the user's data",
      "confidence": 85
    }
  ]
}

Rules:
- confidence is an integer from 0 to 100
- never repeat an item
- never include an item from the "Do not recommend" list`

var tierGuidance = map[plan.Tier]string{
	plan.TierComprehensive: "Ground every recommendation in the user's lab biomarkers and genetic variants.",
	plan.TierLabGuided:     "Use the lab or genetic data provided as the primary evidence.",
	plan.TierProfileGuided: "Use the detailed questionnaire answers as the primary evidence.",
	plan.TierFoundational:  "Favour broadly safe foundational support.",
}

// BuildPrompts renders the system and user prompts for one generation request
func BuildPrompts(req outbound.GenerationRequest) (string, string) {
	var b strings.Builder
	p := req.Profile

	fmt.Fprintf(&b, "Recommend exactly %d supplements.\n", req.PackSize)
	if g, ok := tierGuidance[req.Tier]; ok {
		b.WriteString(g)
		b.WriteString("\n")
	}

	if p.PrimaryHealthConcern != "" {
		fmt.Fprintf(&b, "\nPrimary health concern: %s\n", p.PrimaryHealthConcern)
	}
	if d := p.Demographics; d.Age > 0 || d.Sex != "" {
		fmt.Fprintf(&b, "Demographics: age %d, sex %s\n", d.Age, orNone(d.Sex))
	}

	var flags []string
	for _, f := range p.Flags {
		if f.Value {
			flags = append(flags, string(f.Key))
		}
	}
	writeList(&b, "Reported symptoms", flags)
	writeList(&b, "Conditions", p.ActiveConditions())
	writeList(&b, "Medications", p.ActiveMedications())
	writeList(&b, "Allergies", p.Allergies)
	if p.KnownBiomarkers != "" {
		fmt.Fprintf(&b, "Biomarkers: %s\n", p.KnownBiomarkers)
	}
	if p.KnownGeneticVariants != "" {
		fmt.Fprintf(&b, "Genetic variants: %s\n", p.KnownGeneticVariants)
	}

	if len(req.Patterns) > 0 {
		b.WriteString("\nDetected patterns:\n")
		for _, pat := range req.Patterns {
			fmt.Fprintf(&b, "- %s (%d%%): %s\n", pat.Name, pat.Confidence, strings.Join(pat.Indicators, ", "))
		}
	}
	for _, x := range req.Excess {
		fmt.Fprintf(&b, "Suspected %s excess; prefer %s.\n", x.Neurotransmitter, strings.Join(x.Suggest, ", "))
	}

	writeList(&b, "Prefer these catalog items", req.Preferred)
	writeList(&b, "Do not recommend", req.Forbidden)

	return systemPrompt, b.String()
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(values, ", "))
}

func orNone(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}
