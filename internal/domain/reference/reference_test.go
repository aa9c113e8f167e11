package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellpack/engine/internal/domain/health"
)

func testTables() Tables {
	return Tables{
		Catalog: []CatalogItem{
			{ID: "easy-iron", Name: "Easy Iron", Synonyms: []string{"Iron Bisglycinate"}},
			{ID: "calcium-citrate", Name: "Calcium Citrate", Synonyms: []string{"Calcium"}},
			{ID: "vitamin-d", Name: "Vitamin D", Synonyms: []string{"Vitamin D3"}},
			{ID: "vitamin-b12", Name: "Vitamin B12", Synonyms: []string{"B12"}},
			{ID: "zinc", Name: "Zinc"},
		},
		Interactions: []InteractionEdge{{A: "Easy Iron", B: "Calcium Citrate", Note: "absorption"}},
		Evaluated:    []string{"Vitamin D"},
		Patterns: []PatternTemplate{{
			Name:       "Sleep Disorder",
			Signals:    Signals{Symptoms: &SymptomSignal{Flags: []health.FlagKey{health.FlagPoorSleep, health.FlagAnxiety}, Min: 2}},
			Confidence: 70,
		}},
	}
}

func TestCatalog_Resolve(t *testing.T) {
	c := NewCatalog(testTables().Catalog)

	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{"exact", "Zinc", "Zinc", true},
		{"case insensitive", "  easy IRON ", "Easy Iron", true},
		{"synonym", "iron bisglycinate", "Easy Iron", true},
		{"alias inside longer name", "Vitamin D3 5000 IU softgels", "Vitamin D", true},
		{"longest alias wins", "Calcium Citrate Plus", "Calcium Citrate", true},
		{"short fragment does not reverse match", "D", "", false},
		{"fragment of a longer alias", "Vitamin B", "Vitamin B12", true},
		{"fragment shared by several items", "Vitamin", "", false},
		{"fragment shared by aliases of one item", "itamin D", "Vitamin D", true},
		{"unknown", "Unicorn Dust", "", false},
		{"blank", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := c.Resolve(tt.input)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, item.Name)
		})
	}
}

func TestCatalog_Order(t *testing.T) {
	c := NewCatalog(testTables().Catalog)

	assert.Equal(t, 5, c.Len())
	assert.Equal(t, 0, c.Position("easy iron"))
	assert.Equal(t, 1, c.Position("Calcium"))
	assert.Equal(t, -1, c.Position("Magnesium"))

	items := c.Items()
	items[0].Name = "changed"
	assert.Equal(t, "Easy Iron", c.Items()[0].Name)
}

func TestInteractionGraph_Status(t *testing.T) {
	tt := testTables()
	g := NewInteractionGraph(tt.Interactions, tt.Evaluated)

	assert.Equal(t, InteractionConflicts, g.Status("Easy Iron", "Calcium Citrate"))
	assert.Equal(t, InteractionConflicts, g.Status("calcium citrate", "EASY IRON"))
	assert.Equal(t, InteractionSafe, g.Status("Easy Iron", "Vitamin D"))
	assert.Equal(t, InteractionUnknown, g.Status("Zinc", "Vitamin D"))
	assert.Equal(t, "unknown", InteractionUnknown.String())
	assert.Equal(t, "safe", InteractionSafe.String())
	assert.Equal(t, "conflicts", InteractionConflicts.String())

	edge, ok := g.Edge("Calcium Citrate", "Easy Iron")
	require.True(t, ok)
	assert.Equal(t, "absorption", edge.Note)
	assert.Equal(t, 1, g.Edges())
}

func TestTables_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tables)
		err    error
	}{
		{"valid", func(*Tables) {}, nil},
		{"empty catalog", func(t *Tables) { t.Catalog = nil }, ErrEmptyCatalog},
		{"duplicate item", func(t *Tables) { t.Catalog = append(t.Catalog, CatalogItem{Name: "zinc"}) }, ErrDuplicateItem},
		{"unknown edge item", func(t *Tables) {
			t.Interactions = append(t.Interactions, InteractionEdge{A: "Zinc", B: "Copper"})
		}, ErrUnknownItem},
		{"self edge", func(t *Tables) {
			t.Interactions = append(t.Interactions, InteractionEdge{A: "Zinc", B: "zinc"})
		}, ErrSelfInteraction},
		{"unknown evaluated", func(t *Tables) { t.Evaluated = append(t.Evaluated, "Copper") }, ErrUnknownItem},
		{"single flag symptom signal", func(t *Tables) { t.Patterns[0].Signals.Symptoms.Min = 1 }, ErrWeakSymptomSignal},
		{"unknown flag", func(t *Tables) {
			t.Patterns[0].Signals.Symptoms.Flags = append(t.Patterns[0].Signals.Symptoms.Flags, "tired")
		}, ErrUnknownFlag},
		{"confidence out of range", func(t *Tables) { t.Patterns[0].Confidence = 101 }, ErrInvalidConfidence},
		{"nameless template", func(t *Tables) { t.Patterns[0].Name = "" }, ErrEmptyTemplateName},
		{"duplicate flag counted twice", func(t *Tables) {
			t.Patterns[0].Signals.Symptoms.Flags = []health.FlagKey{health.FlagFatigue, health.FlagFatigue}
		}, ErrDuplicateFlag},
		{"threshold above listed flags", func(t *Tables) { t.Patterns[0].Signals.Symptoms.Min = 3 }, ErrUnreachableSignal},
		{"synonym edge to itself", func(t *Tables) {
			t.Interactions = append(t.Interactions, InteractionEdge{A: "Calcium", B: "Calcium Citrate"})
		}, ErrSelfInteraction},
		{"unknown contraindicated item", func(t *Tables) {
			t.Contraindications = []ContraindicationRule{{Item: "Vitamin K", AvoidConditions: []string{"warfarin"}}}
		}, ErrUnknownItem},
		{"unknown synergistic item", func(t *Tables) { t.Patterns[0].SynergisticItems = []string{"Melatonin"} }, ErrUnknownItem},
		{"unknown excess avoid item", func(t *Tables) {
			t.Excess = []ExcessRule{{Neurotransmitter: "serotonin", Signals: Signals{Medications: []string{"ssri"}}, Avoid: []string{"5-HTP"}}}
		}, ErrUnknownItem},
		{"unknown excess suggest item", func(t *Tables) {
			t.Excess = []ExcessRule{{Neurotransmitter: "serotonin", Signals: Signals{Medications: []string{"ssri"}}, Suggest: []string{"Glycine"}}}
		}, ErrUnknownItem},
		{"weak excess signal", func(t *Tables) {
			t.Excess = []ExcessRule{{Neurotransmitter: "dopamine", Signals: Signals{Symptoms: &SymptomSignal{Flags: []health.FlagKey{health.FlagAnxiety}, Min: 1}}}}
		}, ErrWeakSymptomSignal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tables := testTables()
			tc.mutate(&tables)
			_, err := NewData(tables)
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestNewData_CanonicalizesItemReferences(t *testing.T) {
	tables := testTables()
	tables.Interactions = append(tables.Interactions, InteractionEdge{A: "B12", B: "zinc"})
	tables.Evaluated = append(tables.Evaluated, "vitamin d3", "Iron Bisglycinate")
	tables.Contraindications = []ContraindicationRule{{Item: "calcium", AvoidConditions: []string{"kidney stones"}}}
	tables.Patterns[0].SynergisticItems = []string{"B12", "Zinc"}
	tables.Excess = []ExcessRule{{
		Neurotransmitter: "dopamine",
		Signals:          Signals{Conditions: []string{"mania"}},
		Avoid:            []string{"iron bisglycinate"},
		Suggest:          []string{"vitamin d3"},
	}}

	data, err := NewData(tables)
	require.NoError(t, err)

	assert.Equal(t, "Calcium Citrate", data.Contraindications()[0].Item)
	assert.Equal(t, []string{"Vitamin B12", "Zinc"}, data.Patterns()[0].SynergisticItems)
	assert.Equal(t, []string{"Easy Iron"}, data.ExcessRules()[0].Avoid)
	assert.Equal(t, []string{"Vitamin D"}, data.ExcessRules()[0].Suggest)
	assert.Equal(t, InteractionConflicts, data.Interactions().Status("Vitamin B12", "Zinc"))
	assert.Equal(t, InteractionSafe, data.Interactions().Status("Easy Iron", "Vitamin D"))

	assert.Equal(t, "calcium", tables.Contraindications[0].Item)
}

func TestData_ReturnsCopies(t *testing.T) {
	data, err := NewData(testTables())
	require.NoError(t, err)

	patterns := data.Patterns()
	patterns[0].Name = "changed"
	assert.Equal(t, "Sleep Disorder", data.Patterns()[0].Name)
}

func TestSubstringMatcher(t *testing.T) {
	m := SubstringMatcher{}

	assert.True(t, m.Matches("History of EPILEPSY since 2010", "epilepsy"))
	assert.True(t, m.Matches("pregnant", " pregnan "))
	assert.False(t, m.Matches("Crohn's disease", "seizure"))
	assert.False(t, m.Matches("anything", ""))

	term, ok := FirstMatch(m, []string{"asthma", "type 2 diabetes"}, []string{"insulin", "diabetes"})
	assert.True(t, ok)
	assert.Equal(t, "diabetes", term)

	assert.Equal(t, []string{"mthfr", "comt"}, AllMatches(m, []string{"MTHFR C677T", "COMT V158M"}, []string{"mthfr", "b12", "comt"}))
	assert.Nil(t, AllMatches(m, nil, []string{"mthfr"}))
}
