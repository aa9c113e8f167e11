package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wellpack/engine/pkg/healthcheck"
)

// Pinger is a generation provider that can report its availability
type Pinger interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// HealthChecker reports generation provider availability to the health endpoint
type HealthChecker struct {
	providers []Pinger
	timeout   time.Duration
	logger    *zap.Logger
}

var _ healthcheck.Checker = (*HealthChecker)(nil)

// NewHealthChecker creates a checker over the configured providers
func NewHealthChecker(logger *zap.Logger, providers ...Pinger) *HealthChecker {
	return &HealthChecker{
		providers: providers,
		timeout:   5 * time.Second,
		logger:    logger.Named("ai-health"),
	}
}

// Check probes every provider. Plans can still be built from the deterministic
// fallback, so an unavailable generator degrades the service rather than failing it.
func (h *HealthChecker) Check(ctx context.Context) healthcheck.Check {
	start := time.Now()
	check := healthcheck.Check{
		Name:        "generator",
		LastChecked: start,
	}

	if len(h.providers) == 0 {
		check.Status = healthcheck.StatusDegraded
		check.Message = "no generation provider configured"
		check.Duration = time.Since(start)
		return check
	}

	healthCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	details := make(map[string]string, len(h.providers))
	healthy := 0
	for _, p := range h.providers {
		if err := p.HealthCheck(healthCtx); err != nil {
			details[p.Name()] = fmt.Sprintf("unavailable: %v", err)
			h.logger.Debug("Provider health check failed", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		details[p.Name()] = "healthy"
		healthy++
	}

	check.Duration = time.Since(start)
	check.Metadata = details
	switch {
	case healthy == len(h.providers):
		check.Status = healthcheck.StatusHealthy
	case healthy == 0:
		check.Status = healthcheck.StatusDegraded
		check.Message = "no generation provider available, plans use the deterministic fallback"
	default:
		check.Status = healthcheck.StatusDegraded
		check.Message = fmt.Sprintf("%d of %d providers available", healthy, len(h.providers))
	}
	return check
}
