// Package health contains the user-submitted health questionnaire model.
// Profiles are request-scoped values; nothing in this package holds shared state.
package health

import (
	"strings"
)

// FlagKey identifies one of the canonical lifestyle questions
type FlagKey string

// Canonical symptom flags asked by the questionnaire
const (
	FlagFatigue            FlagKey = "fatigue"
	FlagBrainFog           FlagKey = "brain_fog"
	FlagPoorSleep          FlagKey = "poor_sleep"
	FlagAnxiety            FlagKey = "anxiety"
	FlagLowMood            FlagKey = "low_mood"
	FlagDigestiveIssues    FlagKey = "digestive_issues"
	FlagBloating           FlagKey = "bloating"
	FlagJointPain          FlagKey = "joint_pain"
	FlagFrequentInfections FlagKey = "frequent_infections"
	FlagSkinIssues         FlagKey = "skin_issues"
	FlagColdIntolerance    FlagKey = "cold_intolerance"
	FlagHeatIntolerance    FlagKey = "heat_intolerance"
	FlagSugarCravings      FlagKey = "sugar_cravings"
	FlagMuscleCramps       FlagKey = "muscle_cramps"
	FlagHighBaselineEnergy FlagKey = "high_baseline_energy"
	FlagCaffeineSensitive  FlagKey = "caffeine_sensitivity"
)

var canonicalFlags = map[FlagKey]struct{}{
	FlagFatigue: {}, FlagBrainFog: {}, FlagPoorSleep: {}, FlagAnxiety: {},
	FlagLowMood: {}, FlagDigestiveIssues: {}, FlagBloating: {}, FlagJointPain: {},
	FlagFrequentInfections: {}, FlagSkinIssues: {}, FlagColdIntolerance: {}, FlagHeatIntolerance: {},
	FlagSugarCravings: {}, FlagMuscleCramps: {}, FlagHighBaselineEnergy: {}, FlagCaffeineSensitive: {},
}

// IsCanonical reports whether the key is one of the known questionnaire flags
func (k FlagKey) IsCanonical() bool {
	_, ok := canonicalFlags[k]
	return ok
}

// SymptomFlag is a single yes/no answer with optional free-text detail
type SymptomFlag struct {
	Key    FlagKey `json:"key"`
	Value  bool    `json:"value"`
	Detail string  `json:"detail,omitempty"`
}

// Demographics holds the basic profile attributes
type Demographics struct {
	Age    int    `json:"age,omitempty"`
	Sex    string `json:"sex,omitempty"`
	Weight string `json:"weight,omitempty"`
	Height string `json:"height,omitempty"`
}

// Profile is the questionnaire submitted by a user
type Profile struct {
	Demographics         Demographics  `json:"demographics"`
	Flags                []SymptomFlag `json:"flags"`
	PrimaryHealthConcern string        `json:"primary_health_concern"`
	KnownBiomarkers      string        `json:"known_biomarkers"`
	KnownGeneticVariants string        `json:"known_genetic_variants"`
	Conditions           []string      `json:"conditions"`
	Medications          []string      `json:"medications"`
	Allergies            []string      `json:"allergies"`
}

// FlagSet returns the set of flags answered true.
// Later answers for the same key override earlier ones.
func (p Profile) FlagSet() map[FlagKey]bool {
	set := make(map[FlagKey]bool, len(p.Flags))
	for _, f := range p.Flags {
		set[f.Key] = f.Value
	}
	return set
}

// BiomarkerCount returns the number of separate entries in the biomarker free text
func (p Profile) BiomarkerCount() int {
	return len(SplitEntries(p.KnownBiomarkers))
}

// VariantCount returns the number of separate entries in the genetic variant free text
func (p Profile) VariantCount() int {
	return len(SplitEntries(p.KnownGeneticVariants))
}

// AnsweredFieldCount counts how many questionnaire fields carry information
func (p Profile) AnsweredFieldCount() int {
	count := 0
	for _, s := range []string{
		p.Demographics.Sex, p.Demographics.Weight, p.Demographics.Height,
		p.PrimaryHealthConcern, p.KnownBiomarkers, p.KnownGeneticVariants,
	} {
		if strings.TrimSpace(s) != "" {
			count++
		}
	}
	if p.Demographics.Age > 0 {
		count++
	}
	for _, list := range [][]string{p.Conditions, p.Medications, p.Allergies} {
		if len(nonEmpty(list)) > 0 {
			count++
		}
	}
	for _, f := range p.Flags {
		if f.Value || strings.TrimSpace(f.Detail) != "" {
			count++
		}
	}
	return count
}

// ActiveConditions returns the trimmed, non-empty condition strings
func (p Profile) ActiveConditions() []string {
	return nonEmpty(p.Conditions)
}

// ActiveMedications returns the trimmed, non-empty medication strings
func (p Profile) ActiveMedications() []string {
	return nonEmpty(p.Medications)
}

// LabText returns the combined biomarker and genetic free text
func (p Profile) LabText() []string {
	return nonEmpty([]string{p.KnownBiomarkers, p.KnownGeneticVariants})
}

// SplitEntries splits free text on commas, semicolons and newlines
func SplitEntries(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	return nonEmpty(parts)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
