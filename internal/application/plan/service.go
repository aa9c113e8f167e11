package plan

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/ports/inbound"
	"github.com/wellpack/engine/internal/ports/outbound"
)

const defaultListLimit = 20

// Service implements inbound.PlanService: assemble, then persist
type Service struct {
	assembler *Assembler
	repo      outbound.PlanRepository
	logger    *zap.Logger
}

var _ inbound.PlanService = (*Service)(nil)

// NewService creates a new plan service
func NewService(assembler *Assembler, repo outbound.PlanRepository, logger *zap.Logger) *Service {
	return &Service{
		assembler: assembler,
		repo:      repo,
		logger:    logger.Named("plan-service"),
	}
}

// CreatePlan assembles a plan and hands it to persistence.
// Nothing is saved unless assembly completes.
func (s *Service) CreatePlan(ctx context.Context, cmd inbound.CreatePlanCommand) (*domain.Plan, error) {
	userID := cmd.UserID
	if userID == uuid.Nil {
		userID = uuid.New()
	}

	p, err := s.assembler.Assemble(ctx, userID, cmd.Profile)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("Failed to save plan", zap.String("plan_id", p.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	s.logger.Info("Plan created",
		zap.String("plan_id", p.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return p, nil
}

// GetPlan loads a persisted plan
func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	return s.repo.FindByID(ctx, id)
}

// ListPlans returns a user's most recent plans
func (s *Service) ListPlans(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Plan, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.FindByUserID(ctx, userID, limit)
}
