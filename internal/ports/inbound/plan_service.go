// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/google/uuid"
	"github.com/wellpack/engine/internal/domain/health"
	"github.com/wellpack/engine/internal/domain/plan"
)

// PlanService defines the use cases for supplement plans
type PlanService interface {
	// Commands
	CreatePlan(ctx context.Context, cmd CreatePlanCommand) (*plan.Plan, error)

	// Queries
	GetPlan(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
	ListPlans(ctx context.Context, userID uuid.UUID, limit int) ([]*plan.Plan, error)
}

// CreatePlanCommand contains data for assembling a new plan
type CreatePlanCommand struct {
	UserID  uuid.UUID
	Profile health.Profile
}
