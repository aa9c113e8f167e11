// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wellpack/engine/internal/domain/health"
	"github.com/wellpack/engine/internal/domain/plan"
)

// PlanRepository defines the interface for plan persistence.
// Plans are written once, after assembly completes.
type PlanRepository interface {
	Save(ctx context.Context, p *plan.Plan) error
	FindByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*plan.Plan, error)
}

// Product is a purchasable record a recommendation can be bound to
type Product struct {
	ID    string
	Name  string
	SKU   string
	Price float64
}

// ProductCatalog defines the product-catalog collaborator
type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// GenerationRequest is everything the external generator is told about the user
type GenerationRequest struct {
	Profile   health.Profile
	Tier      plan.Tier
	PackSize  int
	Patterns  []plan.Pattern
	Excess    []plan.ExcessPattern
	Forbidden []string
	Preferred []string
}

// CandidateGenerator defines the external generative-text collaborator.
// It returns the raw payload; parsing and validation happen in the engine.
type CandidateGenerator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
