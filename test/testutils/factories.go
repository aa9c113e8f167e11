package testutils

import (
	"encoding/json"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/wellpack/engine/internal/domain/health"
	"github.com/wellpack/engine/internal/domain/plan"
)

// AllFlags lists every canonical questionnaire flag in a stable order
var AllFlags = []health.FlagKey{
	health.FlagFatigue, health.FlagBrainFog, health.FlagPoorSleep, health.FlagAnxiety,
	health.FlagLowMood, health.FlagDigestiveIssues, health.FlagBloating, health.FlagJointPain,
	health.FlagFrequentInfections, health.FlagSkinIssues, health.FlagColdIntolerance, health.FlagHeatIntolerance,
	health.FlagSugarCravings, health.FlagMuscleCramps, health.FlagHighBaselineEnergy, health.FlagCaffeineSensitive,
}

// ProfileBuilder provides a fluent interface for building test profiles
type ProfileBuilder struct {
	profile health.Profile
}

// NewProfileBuilder creates a builder with plausible demographics and no health signals
func NewProfileBuilder(seed int64) *ProfileBuilder {
	faker := gofakeit.New(seed)
	return &ProfileBuilder{
		profile: health.Profile{
			Demographics: health.Demographics{
				Age: faker.Number(18, 80),
				Sex: faker.RandomString([]string{"female", "male"}),
			},
		},
	}
}

// EmptyProfile returns a profile with nothing answered
func EmptyProfile() *ProfileBuilder {
	return &ProfileBuilder{}
}

// WithFlags answers the given flags true
func (b *ProfileBuilder) WithFlags(keys ...health.FlagKey) *ProfileBuilder {
	for _, k := range keys {
		b.profile.Flags = append(b.profile.Flags, health.SymptomFlag{Key: k, Value: true})
	}
	return b
}

// WithConcern sets the primary health concern
func (b *ProfileBuilder) WithConcern(concern string) *ProfileBuilder {
	b.profile.PrimaryHealthConcern = concern
	return b
}

// WithBiomarkers sets the biomarker free text
func (b *ProfileBuilder) WithBiomarkers(text string) *ProfileBuilder {
	b.profile.KnownBiomarkers = text
	return b
}

// WithVariants sets the genetic variant free text
func (b *ProfileBuilder) WithVariants(text string) *ProfileBuilder {
	b.profile.KnownGeneticVariants = text
	return b
}

// WithConditions appends conditions
func (b *ProfileBuilder) WithConditions(conditions ...string) *ProfileBuilder {
	b.profile.Conditions = append(b.profile.Conditions, conditions...)
	return b
}

// WithMedications appends medications
func (b *ProfileBuilder) WithMedications(meds ...string) *ProfileBuilder {
	b.profile.Medications = append(b.profile.Medications, meds...)
	return b
}

// WithAllergies appends allergies
func (b *ProfileBuilder) WithAllergies(allergies ...string) *ProfileBuilder {
	b.profile.Allergies = append(b.profile.Allergies, allergies...)
	return b
}

// Build returns a copy of the profile
func (b *ProfileBuilder) Build() health.Profile {
	p := b.profile
	p.Flags = append([]health.SymptomFlag(nil), b.profile.Flags...)
	p.Conditions = append([]string(nil), b.profile.Conditions...)
	p.Medications = append([]string(nil), b.profile.Medications...)
	p.Allergies = append([]string(nil), b.profile.Allergies...)
	return p
}

// RandomProfile builds a profile with a random mix of flags and free text
func RandomProfile(faker *gofakeit.Faker) health.Profile {
	b := &ProfileBuilder{}
	b.profile.Demographics = health.Demographics{
		Age:    faker.Number(18, 90),
		Sex:    faker.RandomString([]string{"female", "male", ""}),
		Weight: fmt.Sprintf("%dkg", faker.Number(45, 130)),
	}
	for _, k := range AllFlags {
		if faker.Number(0, 3) == 0 {
			b.WithFlags(k)
		}
	}
	b.WithConcern(faker.RandomString([]string{
		"", "fatigue", "iron deficiency anemia", "poor sleep", "stress", "bloating after meals", "joint pain",
	}))
	b.WithBiomarkers(faker.RandomString([]string{
		"", "low ferritin", "low vitamin d, high crp", "elevated homocysteine; low b12", "high tsh",
	}))
	b.WithVariants(faker.RandomString([]string{"", "MTHFR C677T", "COMT"}))
	if c := faker.RandomString([]string{"", "hypertension", "epilepsy", "hemochromatosis", "pregnancy"}); c != "" {
		b.WithConditions(c)
	}
	if m := faker.RandomString([]string{"", "sertraline", "warfarin", "levothyroxine"}); m != "" {
		b.WithMedications(m)
	}
	return b.Build()
}

// CandidatePayload renders candidates the way a generator would
func CandidatePayload(candidates ...plan.Candidate) string {
	raw, err := json.Marshal(map[string][]plan.Candidate{"recommendations": candidates})
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// Candidates builds candidates from names with a fixed confidence
func Candidates(confidence int, names ...string) []plan.Candidate {
	out := make([]plan.Candidate, len(names))
	for i, n := range names {
		out[i] = plan.Candidate{
			Name:       n,
			Dosage:     "1 capsule",
			Timing:     "with breakfast",
			Reason:     "test",
			Confidence: confidence,
		}
	}
	return out
}
