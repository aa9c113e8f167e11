// Package testutils provides mock implementations and factories for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/ports/inbound"
	"github.com/wellpack/engine/internal/ports/outbound"
)

// MockCandidateGenerator provides a mock implementation of CandidateGenerator
type MockCandidateGenerator struct {
	mock.Mock
	name string
}

// NewMockCandidateGenerator creates a mock generator reporting the given name
func NewMockCandidateGenerator(name string) *MockCandidateGenerator {
	return &MockCandidateGenerator{name: name}
}

// Name returns the configured provider name
func (m *MockCandidateGenerator) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

// Generate returns the configured payload
func (m *MockCandidateGenerator) Generate(ctx context.Context, req outbound.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockPlanRepository provides a mock implementation of PlanRepository
// that also keeps saved plans in memory
type MockPlanRepository struct {
	mock.Mock
	plans map[uuid.UUID]*plan.Plan
	mu    sync.RWMutex
}

// NewMockPlanRepository creates a new mock plan repository
func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{
		plans: make(map[uuid.UUID]*plan.Plan),
	}
}

// Save saves a plan
func (m *MockPlanRepository) Save(ctx context.Context, p *plan.Plan) error {
	args := m.Called(ctx, p)

	if args.Error(0) == nil {
		m.mu.Lock()
		m.plans[p.ID] = p
		m.mu.Unlock()
	}

	return args.Error(0)
}

// FindByID finds a plan by ID
func (m *MockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	args := m.Called(ctx, id)

	if args.Error(1) != nil {
		return nil, args.Error(1)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, exists := m.plans[id]; exists {
		return p, nil
	}

	return args.Get(0).(*plan.Plan), args.Error(1)
}

// FindByUserID finds plans by user
func (m *MockPlanRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*plan.Plan, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]*plan.Plan), args.Error(1)
}

// Saved returns the plan stored under id, if any
func (m *MockPlanRepository) Saved(id uuid.UUID) (*plan.Plan, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	return p, ok
}

// MockProductCatalog provides a mock implementation of ProductCatalog
type MockProductCatalog struct {
	mock.Mock
}

// ListProducts returns the configured products
func (m *MockProductCatalog) ListProducts(ctx context.Context) ([]outbound.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outbound.Product), args.Error(1)
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

// Get retrieves a value
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Set stores a value
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete removes a value
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists checks for a key
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockPlanService provides a mock implementation of inbound.PlanService
type MockPlanService struct {
	mock.Mock
}

// CreatePlan returns the configured plan
func (m *MockPlanService) CreatePlan(ctx context.Context, cmd inbound.CreatePlanCommand) (*plan.Plan, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

// GetPlan returns the configured plan
func (m *MockPlanService) GetPlan(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

// ListPlans returns the configured plans
func (m *MockPlanService) ListPlans(ctx context.Context, userID uuid.UUID, limit int) ([]*plan.Plan, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*plan.Plan), args.Error(1)
}
