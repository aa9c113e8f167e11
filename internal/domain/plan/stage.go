package plan

import (
	"errors"
	"fmt"
)

// Stage is a step of plan assembly
type Stage int

const (
	StageInit Stage = iota
	StagePatternsDetected
	StagePrioritiesBuilt
	StageCandidatesObtained
	StageFiltered
	StageValidated
	StageAssembled
)

var stageNames = [...]string{
	"init",
	"patterns_detected",
	"priorities_built",
	"candidates_obtained",
	"filtered",
	"validated",
	"assembled",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// ErrStageOrder is returned when assembly tries to skip or repeat a stage
var ErrStageOrder = errors.New("invalid assembly stage transition")

// Progress tracks assembly through its stages. Transitions are strictly sequential.
type Progress struct {
	current Stage
}

// Current returns the last stage reached
func (p *Progress) Current() Stage {
	return p.current
}

// Advance moves to the next stage; next must immediately follow the current one
func (p *Progress) Advance(next Stage) error {
	if next != p.current+1 || next > StageAssembled {
		return fmt.Errorf("%w: %s -> %s", ErrStageOrder, p.current, next)
	}
	p.current = next
	return nil
}

// StageError wraps a failure with the stage that was being attempted
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("plan assembly failed after %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
