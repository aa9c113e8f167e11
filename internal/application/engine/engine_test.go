package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellpack/engine/internal/application/engine"
	"github.com/wellpack/engine/internal/domain/health"
	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/domain/reference"
	"github.com/wellpack/engine/internal/infrastructure/referencedata"
)

func defaults(t *testing.T) *reference.Data {
	t.Helper()
	data, err := referencedata.Defaults()
	require.NoError(t, err)
	return data
}

func candidates(names ...string) []plan.Candidate {
	out := make([]plan.Candidate, len(names))
	for i, n := range names {
		out[i] = plan.Candidate{Name: n, Confidence: 70}
	}
	return out
}

func profileWithFlags(keys ...health.FlagKey) health.Profile {
	p := health.Profile{}
	for _, k := range keys {
		p.Flags = append(p.Flags, health.SymptomFlag{Key: k, Value: true})
	}
	return p
}

func TestPatternDetector_SymptomPatterns(t *testing.T) {
	d := engine.NewPatternDetector(defaults(t), nil)

	det := d.Detect(profileWithFlags(health.FlagFatigue, health.FlagBrainFog))

	require.Len(t, det.Patterns, 2)
	assert.Equal(t, "Methylation Dysfunction", det.Patterns[0].Name)
	assert.Equal(t, "Mitochondrial Dysfunction", det.Patterns[1].Name)
	assert.Equal(t, []string{"fatigue", "brain_fog"}, det.Patterns[0].Indicators)
	assert.Equal(t, []reference.SignalFamily{reference.SignalSymptoms}, det.Patterns[0].Signals)
	assert.Equal(t, "Methylation support indicated by: fatigue, brain_fog.", det.Patterns[0].Explanation)
	assert.Empty(t, det.Excess)
}

func TestPatternDetector_SingleFlagNeverTriggers(t *testing.T) {
	d := engine.NewPatternDetector(defaults(t), nil)

	for key := range map[health.FlagKey]struct{}{
		health.FlagFatigue: {}, health.FlagBrainFog: {}, health.FlagPoorSleep: {}, health.FlagAnxiety: {},
		health.FlagJointPain: {}, health.FlagSkinIssues: {}, health.FlagDigestiveIssues: {},
		health.FlagHighBaselineEnergy: {}, health.FlagColdIntolerance: {},
	} {
		det := d.Detect(profileWithFlags(key))
		assert.Empty(t, det.Patterns, "flag %s alone", key)
		assert.Empty(t, det.Excess, "flag %s alone", key)
	}
}

func TestPatternDetector_TextSignals(t *testing.T) {
	d := engine.NewPatternDetector(defaults(t), nil)

	t.Run("lab text", func(t *testing.T) {
		det := d.Detect(health.Profile{KnownGeneticVariants: "MTHFR C677T heterozygous"})
		require.Len(t, det.Patterns, 1)
		assert.Equal(t, "Methylation Dysfunction", det.Patterns[0].Name)
		assert.Equal(t, []reference.SignalFamily{reference.SignalLabText}, det.Patterns[0].Signals)
		assert.Equal(t, []string{"mthfr"}, det.Patterns[0].Indicators)
	})

	t.Run("medication triggers serotonin excess", func(t *testing.T) {
		det := d.Detect(health.Profile{Medications: []string{"Sertraline 50mg"}})
		require.Len(t, det.Excess, 1)
		assert.Equal(t, "serotonin", det.Excess[0].Neurotransmitter)
		assert.Equal(t, []string{"5-HTP", "St. John's Wort"}, det.Excess[0].Avoid)
	})

	t.Run("families combine", func(t *testing.T) {
		p := profileWithFlags(health.FlagFatigue, health.FlagMuscleCramps)
		p.Medications = []string{"atorvastatin"}
		det := d.Detect(p)

		var mito *plan.Pattern
		for i := range det.Patterns {
			if det.Patterns[i].Name == "Mitochondrial Dysfunction" {
				mito = &det.Patterns[i]
			}
		}
		require.NotNil(t, mito)
		assert.Equal(t, []reference.SignalFamily{reference.SignalSymptoms, reference.SignalMedications}, mito.Signals)
		assert.Equal(t, []string{"fatigue", "muscle_cramps", "statin", "atorvastatin"}, mito.Indicators)
	})
}

func TestDetection_SynergisticItems(t *testing.T) {
	det := engine.Detection{Patterns: []plan.Pattern{
		{SynergisticItems: []string{"Magnesium", "CoQ10"}},
		{SynergisticItems: []string{"magnesium", "Melatonin"}},
	}}
	assert.Equal(t, []string{"Magnesium", "CoQ10", "Melatonin"}, det.SynergisticItems())
}

func TestPriorityResolver_Build(t *testing.T) {
	r := engine.NewPriorityResolver(defaults(t).Catalog(), nil)

	priorities := r.Build("iron deficiency anemia")

	assert.Equal(t, engine.WeightPrimaryConcern, priorities.Of("Easy Iron"))
	assert.Zero(t, priorities.Of("Calcium Citrate"))
	assert.Zero(t, priorities.Of("Zinc"))
}

func TestPriorityResolver_Layers(t *testing.T) {
	r := engine.NewPriorityResolver(defaults(t).Catalog(), nil)

	priorities := r.BuildLayered(engine.PrioritySignals{
		PrimaryConcern: "joint pain",
		LabText:        []string{"ferritin 12"},
		Conditions:     []string{"arthritis"},
		Patterns:       []plan.Pattern{{SynergisticItems: []string{"Magnesium"}}},
	})

	assert.Equal(t, engine.WeightPrimaryConcern+engine.WeightCondition, priorities.Of("Curcumin"))
	assert.Equal(t, engine.WeightLabText, priorities.Of("Easy Iron"))
	assert.Equal(t, engine.WeightPattern, priorities.Of("Magnesium"))
	assert.Greater(t, priorities.Of("Easy Iron"), priorities.Of("Magnesium"))
}

func TestContraindicationFilter_ConditionMatching(t *testing.T) {
	f := engine.NewContraindicationFilter(defaults(t), nil)

	forbidden := f.Forbidden([]string{"Crohn's disease"}, nil)
	assert.False(t, forbidden.Contains("Evening Primrose Oil"))

	forbidden = f.Forbidden([]string{"Crohn's disease", "epilepsy"}, nil)
	assert.True(t, forbidden.Contains("Evening Primrose Oil"))
	assert.Equal(t, []string{"Evening Primrose Oil may lower the seizure threshold."}, forbidden.Notes())
}

func TestContraindicationFilter_ExcessAvoidance(t *testing.T) {
	f := engine.NewContraindicationFilter(defaults(t), nil)

	forbidden := f.Forbidden([]string{"bipolar disorder"}, []plan.ExcessPattern{{
		Neurotransmitter: "serotonin",
		Indicators:       []string{"sertraline"},
		Avoid:            []string{"5-HTP", "St. John's Wort"},
	}})

	assert.True(t, forbidden.Contains("5-HTP"))
	assert.True(t, forbidden.Contains("st. john's wort"))
	assert.Contains(t, forbidden["st. john's wort"], "can trigger mania")
	assert.Contains(t, forbidden["5-htp"], "serotonin excess (sertraline)")
}

func TestContraindicationFilter_NoConditions(t *testing.T) {
	f := engine.NewContraindicationFilter(defaults(t), nil)
	assert.Empty(t, f.Forbidden(nil, nil))
}

func TestCandidateValidator_ConflictKeepsPrioritizedItem(t *testing.T) {
	data := defaults(t)
	v := engine.NewCandidateValidator(data)
	priorities := engine.NewPriorityResolver(data.Catalog(), nil).Build("iron deficiency anemia")

	recs, report, err := v.Resolve(
		candidates("Easy Iron", "Calcium Citrate", "Zinc", "Magnesium", "Vitamin D", "Omega 3"),
		engine.ForbiddenSet{}, priorities, 6,
	)

	require.NoError(t, err)
	names := plan.Plan{Recommendations: recs}
	assert.Equal(t, []string{"Easy Iron", "Zinc", "Magnesium", "Vitamin D", "Omega 3", "Methylated B Complex"}, names.Items())
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, engine.Conflict{Winner: "Easy Iron", Loser: "Calcium Citrate", Status: reference.InteractionConflicts}, report.Conflicts[0])
	assert.Equal(t, []string{"Methylated B Complex"}, report.Backfilled)
	assert.NoError(t, v.Verify(recs, engine.ForbiddenSet{}, 6))
}

func TestCandidateValidator_TrimsLowestConfidence(t *testing.T) {
	v := engine.NewCandidateValidator(defaults(t))
	names := []string{"Zinc", "Magnesium", "Vitamin D", "Omega 3", "Methylated B Complex", "Vitamin B12", "CoQ10", "Probiotic", "Selenium"}
	scores := []int{91, 55, 87, 62, 40, 73, 99, 68, 80}
	in := make([]plan.Candidate, len(names))
	for i := range names {
		in[i] = plan.Candidate{Name: names[i], Confidence: scores[i]}
	}

	t.Run("one over", func(t *testing.T) {
		recs, report, err := v.Resolve(in, nil, nil, 8)
		require.NoError(t, err)
		assert.Len(t, recs, 8)
		assert.Equal(t, []string{"Methylated B Complex"}, report.Trimmed)
	})

	t.Run("several over", func(t *testing.T) {
		recs, report, err := v.Resolve(in, nil, nil, 6)
		require.NoError(t, err)
		assert.Len(t, recs, 6)
		assert.Equal(t, []string{"Methylated B Complex", "Magnesium", "Omega 3"}, report.Trimmed)
	})
}

func TestCandidateValidator_PadsShortLists(t *testing.T) {
	v := engine.NewCandidateValidator(defaults(t))

	recs, report, err := v.Resolve(candidates("Easy Iron", "Zinc", "Melatonin"), nil, nil, 6)

	require.NoError(t, err)
	require.Len(t, recs, 6)
	assert.Len(t, report.Backfilled, 3)
	assert.NotContains(t, report.Backfilled, "Calcium Citrate")
	for _, r := range recs[3:] {
		assert.Equal(t, engine.DefaultBackfillConfidence, r.Confidence)
		assert.NotEmpty(t, r.Dosage)
	}
	assert.NoError(t, v.Verify(recs, nil, 6))
}

func TestCandidateValidator_UnparseablePayloadBackfillsByPriority(t *testing.T) {
	data := defaults(t)
	v := engine.NewCandidateValidator(data)
	priorities := engine.NewPriorityResolver(data.Catalog(), nil).Build("trouble sleeping, insomnia")

	parsed := plan.ParseCandidates("Sorry, I can't help with that.")
	recs, report, err := v.Resolve(parsed, nil, priorities, 6)

	require.NoError(t, err)
	assert.Equal(t,
		[]string{"Melatonin", "Easy Iron", "Zinc", "Magnesium", "Vitamin D", "Omega 3"},
		(&plan.Plan{Recommendations: recs}).Items())
	assert.Len(t, report.Backfilled, 6)
}

func TestCandidateValidator_TieBreakUsesCandidateOrder(t *testing.T) {
	v := engine.NewCandidateValidator(defaults(t))

	_, report, err := v.Resolve(candidates("Calcium Citrate", "Easy Iron"), nil, nil, 2)

	require.NoError(t, err)
	require.NotEmpty(t, report.Conflicts)
	assert.Equal(t, "Calcium Citrate", report.Conflicts[0].Winner)
	assert.Equal(t, "Easy Iron", report.Conflicts[0].Loser)
}

func TestCandidateValidator_ConfidenceBreaksPriorityTie(t *testing.T) {
	v := engine.NewCandidateValidator(defaults(t))
	in := []plan.Candidate{
		{Name: "Calcium Citrate", Confidence: 60},
		{Name: "Easy Iron", Confidence: 85},
	}

	_, report, err := v.Resolve(in, nil, nil, 2)

	require.NoError(t, err)
	assert.Equal(t, "Easy Iron", report.Conflicts[0].Winner)
}

func TestCandidateValidator_NormalizesNames(t *testing.T) {
	v := engine.NewCandidateValidator(defaults(t))
	in := []plan.Candidate{
		{Name: "magnesium glycinate", Confidence: 80, Dosage: "400 mg"},
		{Name: "Magnesium", Confidence: 70},
		{Name: "Unicorn Dust", Confidence: 99},
		{Name: "Vitamin D3 (cholecalciferol)", Confidence: 150},
	}

	recs, report, err := v.Resolve(in, nil, nil, 2)

	require.NoError(t, err)
	assert.Equal(t, "Magnesium", recs[0].Item)
	assert.Equal(t, "magnesium", recs[0].ItemID)
	assert.Equal(t, "400 mg", recs[0].Dosage)
	assert.Equal(t, "Vitamin D", recs[1].Item)
	assert.Equal(t, 100, recs[1].Confidence)
	assert.Equal(t, "2000 IU", recs[1].Dosage)
	assert.Equal(t, []string{"Magnesium"}, report.Duplicates)
	assert.Equal(t, []string{"Unicorn Dust"}, report.Unresolved)
}

func TestCandidateValidator_ExcludesForbidden(t *testing.T) {
	data := defaults(t)
	v := engine.NewCandidateValidator(data)
	forbidden := engine.NewContraindicationFilter(data, nil).Forbidden([]string{"epilepsy"}, nil)

	recs, report, err := v.Resolve(candidates("Evening Primrose Oil", "Zinc"), forbidden, nil, 4)

	require.NoError(t, err)
	assert.Equal(t, []string{"Evening Primrose Oil"}, report.Filtered)
	for _, r := range recs {
		assert.NotEqual(t, "Evening Primrose Oil", r.Item)
	}
}

func TestCandidateValidator_Deterministic(t *testing.T) {
	data := defaults(t)
	v := engine.NewCandidateValidator(data)
	priorities := engine.NewPriorityResolver(data.Catalog(), nil).Build("gut health and joint pain")
	in := candidates("Ginkgo Biloba", "Omega 3", "Curcumin", "Probiotic", "Zinc", "Quercetin", "Melatonin", "Rhodiola")

	first, _, err := v.Resolve(in, nil, priorities, 6)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, _, err := v.Resolve(in, nil, priorities, 6)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCandidateValidator_InvalidPackSize(t *testing.T) {
	v := engine.NewCandidateValidator(defaults(t))
	_, _, err := v.Resolve(nil, nil, nil, 0)
	assert.ErrorIs(t, err, plan.ErrInvalidPackSize)
}

func smallData(t *testing.T, evaluated []string) *reference.Data {
	t.Helper()
	data, err := reference.NewData(reference.Tables{
		Catalog: []reference.CatalogItem{
			{ID: "alpha", Name: "Alpha"},
			{ID: "beta", Name: "Beta"},
			{ID: "gamma", Name: "Gamma"},
		},
		Interactions: []reference.InteractionEdge{{A: "Alpha", B: "Beta"}},
		Evaluated:    evaluated,
	})
	require.NoError(t, err)
	return data
}

func TestContraindication_SynonymRuleForbidsCatalogItem(t *testing.T) {
	data, err := reference.NewData(reference.Tables{
		Catalog: []reference.CatalogItem{
			{ID: "omega-3", Name: "Omega 3", Synonyms: []string{"Fish Oil"}},
			{ID: "zinc", Name: "Zinc"},
			{ID: "magnesium", Name: "Magnesium"},
		},
		Evaluated: []string{"Omega 3", "Zinc", "Magnesium"},
		Contraindications: []reference.ContraindicationRule{
			{Item: "Fish Oil", AvoidConditions: []string{"hemophilia"}, SafetyNote: "bleeding risk"},
		},
	})
	require.NoError(t, err)

	forbidden := engine.NewContraindicationFilter(data, nil).Forbidden([]string{"Hemophilia A"}, nil)
	assert.True(t, forbidden.Contains("Omega 3"))

	recs, _, err := engine.NewCandidateValidator(data).Resolve(candidates("Omega 3", "Zinc", "Magnesium"), forbidden, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zinc", "Magnesium"}, (&plan.Plan{Recommendations: recs}).Items())
}

func TestCandidateValidator_InteractionPolicy(t *testing.T) {
	data := smallData(t, nil)

	strict := engine.NewCandidateValidator(data)
	assert.Equal(t, engine.PolicyStrict, strict.Policy())
	_, _, err := strict.Resolve(candidates("Alpha", "Gamma"), nil, nil, 2)
	var insufficient *plan.InsufficientCatalogError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Needed)
	assert.Equal(t, 1, insufficient.Selected)

	lenient := engine.NewCandidateValidator(data, engine.WithInteractionPolicy(engine.PolicyLenient))
	recs, _, err := lenient.Resolve(candidates("Alpha", "Gamma"), nil, nil, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestCandidateValidator_InsufficientCatalog(t *testing.T) {
	v := engine.NewCandidateValidator(smallData(t, []string{"Gamma"}))

	_, _, err := v.Resolve(nil, nil, nil, 3)

	assert.ErrorIs(t, err, plan.ErrInsufficientCatalog)
}

func TestCandidateValidator_Verify(t *testing.T) {
	v := engine.NewCandidateValidator(defaults(t))
	rec := func(n string) plan.Recommendation { return plan.Recommendation{Item: n} }

	tests := []struct {
		name      string
		recs      []plan.Recommendation
		forbidden engine.ForbiddenSet
		invariant string
	}{
		{"size", []plan.Recommendation{rec("Zinc")}, nil, "pack_size"},
		{"duplicate", []plan.Recommendation{rec("Zinc"), rec("zinc")}, nil, "unique_items"},
		{"forbidden", []plan.Recommendation{rec("Zinc"), rec("Iodine")}, engine.ForbiddenSet{"iodine": "no"}, "contraindication"},
		{"interaction", []plan.Recommendation{rec("Easy Iron"), rec("Calcium Citrate")}, nil, "interaction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.recs, tt.forbidden, 2)
			var inv *plan.InvariantError
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.invariant, inv.Invariant)
			assert.ErrorIs(t, err, plan.ErrInvariantViolation)
		})
	}
}

func TestTierClassifier(t *testing.T) {
	c := engine.NewTierClassifier(engine.TierThresholds{})

	tests := []struct {
		biomarkers, variants, fields int
		want                         plan.Tier
	}{
		{3, 1, 0, plan.TierComprehensive},
		{5, 2, 12, plan.TierComprehensive},
		{3, 0, 10, plan.TierLabGuided},
		{0, 1, 0, plan.TierLabGuided},
		{0, 0, 8, plan.TierProfileGuided},
		{0, 0, 7, plan.TierFoundational},
		{0, 0, 0, plan.TierFoundational},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.biomarkers, tt.variants, tt.fields), "%+v", tt)
	}
}

func TestTierClassifier_ClassifyProfile(t *testing.T) {
	c := engine.NewTierClassifier(engine.TierThresholds{ProfileFields: 2})

	assert.Equal(t, plan.TierComprehensive, c.ClassifyProfile(health.Profile{
		KnownBiomarkers:      "ferritin 12, vitamin D 18; TSH 3.1",
		KnownGeneticVariants: "MTHFR C677T",
	}))
	assert.Equal(t, plan.TierProfileGuided, c.ClassifyProfile(health.Profile{
		Demographics: health.Demographics{Age: 34, Sex: "female"},
	}))
	assert.Equal(t, plan.TierFoundational, c.ClassifyProfile(health.Profile{}))
}
