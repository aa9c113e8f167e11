package referencedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/domain/reference"
)

func TestDefaults(t *testing.T) {
	data, err := Defaults()
	require.NoError(t, err)

	assert.Equal(t, 31, data.Catalog().Len())
	assert.Len(t, data.Patterns(), 11)
	assert.Len(t, data.ExcessRules(), 3)

	names := make([]string, 0, len(data.Patterns()))
	for _, p := range data.Patterns() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"Methylation Dysfunction", "Mitochondrial Dysfunction", "Inflammatory Cascade",
		"Gut Dysfunction", "Sleep Disorder", "Toxic Burden", "Adrenal Fatigue",
		"Nutritional Deficiency", "Hypothyroid", "Hyperthyroid", "Chronic Infection",
	}, names)

	g := data.Interactions()
	assert.Equal(t, reference.InteractionConflicts, g.Status("Easy Iron", "Calcium Citrate"))
	assert.Equal(t, reference.InteractionSafe, g.Status("Zinc", "Magnesium"))

	for _, item := range data.Catalog().Items() {
		for _, other := range data.Catalog().Items() {
			if item.Name == other.Name {
				continue
			}
			assert.NotEqual(t, reference.InteractionUnknown, g.Status(item.Name, other.Name),
				"%s / %s should be evaluated", item.Name, other.Name)
		}
	}
}

func TestParse_RejectsWeakSymptomSignal(t *testing.T) {
	raw := []byte(`
catalog:
  - {id: a, name: Alpha}
patterns:
  - name: Single Flag
    signals:
      symptoms: {flags: [fatigue], min: 1}
    synergistic_items: [Alpha]
    confidence: 50
`)
	_, err := Parse(raw)
	assert.ErrorIs(t, err, reference.ErrWeakSymptomSignal)
}

func TestParse_SynonymRuleTargetsCatalogItem(t *testing.T) {
	raw := []byte(`
catalog:
  - {id: omega-3, name: Omega 3, synonyms: [Fish Oil]}
  - {id: zinc, name: Zinc}
evaluated: [Omega 3, Zinc]
contraindications:
  - item: Fish Oil
    avoid_conditions: [hemophilia]
    safety_note: bleeding risk
`)
	data, err := Parse(raw)
	require.NoError(t, err)

	rules := data.Contraindications()
	require.Len(t, rules, 1)
	assert.Equal(t, "Omega 3", rules[0].Item)
}

func TestParse_RejectsMisspelledRuleItem(t *testing.T) {
	raw := []byte(`
catalog:
  - {id: omega-3, name: Omega 3}
contraindications:
  - item: Omega-3s
    avoid_conditions: [hemophilia]
`)
	_, err := Parse(raw)
	assert.ErrorIs(t, err, reference.ErrUnknownItem)
}

func TestParse_RejectsDuplicateSymptomFlags(t *testing.T) {
	raw := []byte(`
catalog:
  - {id: a, name: Alpha}
patterns:
  - name: Dup
    signals:
      symptoms: {flags: [fatigue, fatigue], min: 2}
    synergistic_items: [Alpha]
    confidence: 50
`)
	_, err := Parse(raw)
	assert.ErrorIs(t, err, reference.ErrDuplicateFlag)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	raw := []byte(`
catalog:
  - {id: a, name: Alpha, colour: red}
`)
	_, err := Parse(raw)
	assert.Error(t, err)
}

func TestParse_RejectsEdgeToUnknownItem(t *testing.T) {
	raw := []byte(`
catalog:
  - {id: a, name: Alpha}
interactions:
  - {a: Alpha, b: Beta}
`)
	_, err := Parse(raw)
	assert.ErrorIs(t, err, reference.ErrUnknownItem)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(nil)
	assert.ErrorIs(t, err, reference.ErrEmptyCatalog)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog:
  - {id: a, name: Alpha}
  - {id: b, name: Beta}
evaluated: [Alpha, Beta]
`), 0o600))

	data, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, data.Catalog().Len())
	assert.Equal(t, reference.InteractionSafe, data.Interactions().Status("Alpha", "Beta"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())
	assert.Error(t, err)
}
