package plan

import (
	"errors"
	"fmt"
)

// Domain errors for plan assembly
var (
	ErrInsufficientCatalog   = errors.New("catalog cannot supply enough safe items")
	ErrInvariantViolation    = errors.New("plan invariant violated")
	ErrGenerationUnavailable = errors.New("candidate generation unavailable")
	ErrInvalidPackSize       = errors.New("pack size must be greater than 0")
	ErrPlanNotFound          = errors.New("plan not found")
)

// InsufficientCatalogError reports how far backfill got before the catalog ran dry
type InsufficientCatalogError struct {
	Needed   int
	Selected int
}

func (e *InsufficientCatalogError) Error() string {
	return fmt.Sprintf("%s: needed %d, selected %d", ErrInsufficientCatalog, e.Needed, e.Selected)
}

// Is lets errors.Is match ErrInsufficientCatalog
func (e *InsufficientCatalogError) Is(target error) bool {
	return target == ErrInsufficientCatalog
}

// InvariantError describes which invariant a resolved pack broke
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrInvariantViolation, e.Invariant, e.Detail)
}

// Is lets errors.Is match ErrInvariantViolation
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}
