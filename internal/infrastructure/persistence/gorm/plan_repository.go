package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/ports/outbound"
)

// PlanRepository implements the plan repository interface using GORM
type PlanRepository struct {
	db *gorm.DB
}

var _ outbound.PlanRepository = (*PlanRepository)(nil)

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Save inserts a finalized plan. Plans are immutable, so an existing ID is an error.
func (r *PlanRepository) Save(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return errors.New("plan is nil")
	}
	if err := r.db.WithContext(ctx).Create(PlanToModel(p)).Error; err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	return nil
}

// FindByID finds a plan by ID
func (r *PlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	var model PlanModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, plan.ErrPlanNotFound
		}
		return nil, result.Error
	}
	return ModelToPlan(&model), nil
}

// FindByUserID returns the user's most recent plans, newest first
func (r *PlanRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*plan.Plan, error) {
	var models []PlanModel
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	plans := make([]*plan.Plan, len(models))
	for i := range models {
		plans[i] = ModelToPlan(&models[i])
	}
	return plans, nil
}
