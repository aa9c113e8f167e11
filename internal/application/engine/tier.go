package engine

import (
	"github.com/wellpack/engine/internal/domain/health"
	"github.com/wellpack/engine/internal/domain/plan"
)

// TierThresholds configures the personalization tier decision tree
type TierThresholds struct {
	ComprehensiveBiomarkers int `mapstructure:"comprehensive_biomarkers"`
	ComprehensiveVariants   int `mapstructure:"comprehensive_variants"`
	ProfileFields           int `mapstructure:"profile_fields"`
}

// DefaultTierThresholds returns the stock thresholds
func DefaultTierThresholds() TierThresholds {
	return TierThresholds{
		ComprehensiveBiomarkers: 3,
		ComprehensiveVariants:   1,
		ProfileFields:           8,
	}
}

// TierClassifier selects the narrative emphasis requested from the generator.
// It never influences which items are allowed.
type TierClassifier struct {
	thresholds TierThresholds
}

// NewTierClassifier creates a classifier; zero thresholds fall back to the defaults
func NewTierClassifier(t TierThresholds) *TierClassifier {
	def := DefaultTierThresholds()
	if t.ComprehensiveBiomarkers <= 0 {
		t.ComprehensiveBiomarkers = def.ComprehensiveBiomarkers
	}
	if t.ComprehensiveVariants <= 0 {
		t.ComprehensiveVariants = def.ComprehensiveVariants
	}
	if t.ProfileFields <= 0 {
		t.ProfileFields = def.ProfileFields
	}
	return &TierClassifier{thresholds: t}
}

// Classify walks the decision tree, richest data first
func (c *TierClassifier) Classify(biomarkers, variants, profileFields int) plan.Tier {
	switch {
	case biomarkers >= c.thresholds.ComprehensiveBiomarkers && variants >= c.thresholds.ComprehensiveVariants:
		return plan.TierComprehensive
	case biomarkers > 0 || variants > 0:
		return plan.TierLabGuided
	case profileFields >= c.thresholds.ProfileFields:
		return plan.TierProfileGuided
	default:
		return plan.TierFoundational
	}
}

// ClassifyProfile classifies using the counts derived from a profile
func (c *TierClassifier) ClassifyProfile(p health.Profile) plan.Tier {
	return c.Classify(p.BiomarkerCount(), p.VariantCount(), p.AnsweredFieldCount())
}
