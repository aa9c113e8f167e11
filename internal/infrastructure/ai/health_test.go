package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/infrastructure/ai"
	"github.com/wellpack/engine/pkg/healthcheck"
)

type stubPinger struct {
	name string
	err  error
}

func (s stubPinger) Name() string { return s.name }
func (s stubPinger) HealthCheck(context.Context) error { return s.err }

func TestHealthChecker(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name      string
		providers []ai.Pinger
		expected  healthcheck.Status
		message   string
	}{
		{
			name:     "no providers",
			expected: healthcheck.StatusDegraded,
			message:  "no generation provider configured",
		},
		{
			name:      "all healthy",
			providers: []ai.Pinger{stubPinger{name: "ollama"}, stubPinger{name: "openai"}},
			expected:  healthcheck.StatusHealthy,
		},
		{
			name:      "one down",
			providers: []ai.Pinger{stubPinger{name: "ollama", err: down}, stubPinger{name: "openai"}},
			expected:  healthcheck.StatusDegraded,
			message:   "1 of 2 providers available",
		},
		{
			name:      "all down",
			providers: []ai.Pinger{stubPinger{name: "ollama", err: down}},
			expected:  healthcheck.StatusDegraded,
			message:   "no generation provider available, plans use the deterministic fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := ai.NewHealthChecker(zap.NewNop(), tt.providers...).Check(context.Background())
			assert.Equal(t, "generator", check.Name)
			assert.Equal(t, tt.expected, check.Status)
			assert.Equal(t, tt.message, check.Message)
			if len(tt.providers) > 0 {
				assert.Len(t, check.Metadata, len(tt.providers))
			}
		})
	}
}
