package reference

import (
	"github.com/wellpack/engine/internal/domain/health"
)

// ContraindicationRule forbids an item for users with matching conditions
type ContraindicationRule struct {
	Item            string   `yaml:"item" json:"item"`
	AvoidConditions []string `yaml:"avoid_conditions" json:"avoid_conditions"`
	WarningSigns    []string `yaml:"warning_signs" json:"warning_signs,omitempty"`
	SafetyNote      string   `yaml:"safety_note" json:"safety_note"`
}

// SignalFamily names one independent kind of corroborating evidence
type SignalFamily string

const (
	SignalSymptoms    SignalFamily = "symptom_flags"
	SignalConditions  SignalFamily = "condition_text"
	SignalLabText     SignalFamily = "lab_text"
	SignalMedications SignalFamily = "medication_text"
)

// SymptomSignal fires when at least Min of Flags are answered true
type SymptomSignal struct {
	Flags []health.FlagKey `yaml:"flags" json:"flags"`
	Min   int              `yaml:"min" json:"min"`
}

// Signals is the disjunction of predicate families evaluated for a template.
// An empty family never fires.
type Signals struct {
	Symptoms    *SymptomSignal `yaml:"symptoms" json:"symptoms,omitempty"`
	Conditions  []string       `yaml:"conditions" json:"conditions,omitempty"`
	LabTerms    []string       `yaml:"lab_terms" json:"lab_terms,omitempty"`
	Medications []string       `yaml:"medications" json:"medications,omitempty"`
}

// PatternTemplate is one row of the data-driven pattern table
type PatternTemplate struct {
	Name             string   `yaml:"name" json:"name"`
	Signals          Signals  `yaml:"signals" json:"signals"`
	SynergisticItems []string `yaml:"synergistic_items" json:"synergistic_items"`
	Explanation      string   `yaml:"explanation" json:"explanation"`
	Confidence       int      `yaml:"confidence" json:"confidence"`
}

// ExcessRule detects a neurotransmitter-excess state
type ExcessRule struct {
	Neurotransmitter string   `yaml:"neurotransmitter" json:"neurotransmitter"`
	Signals          Signals  `yaml:"signals" json:"signals"`
	Avoid            []string `yaml:"avoid" json:"avoid"`
	Suggest          []string `yaml:"suggest" json:"suggest"`
}
