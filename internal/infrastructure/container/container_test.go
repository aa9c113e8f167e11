package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/infrastructure/ai"
	"github.com/wellpack/engine/internal/infrastructure/config"
	"github.com/wellpack/engine/internal/infrastructure/persistence/memory"
	"github.com/wellpack/engine/internal/ports/outbound"
)

func TestModule_GraphIsComplete(t *testing.T) {
	require.NoError(t, fx.ValidateApp(New(""), fx.NopLogger))
}

func TestUniqueProviders(t *testing.T) {
	assert.Equal(t, []string{"ollama", "openai"}, uniqueProviders("ollama", "openai"))
	assert.Equal(t, []string{"openai"}, uniqueProviders("openai", "openai"))
	assert.Empty(t, uniqueProviders("none", ""))
}

func generatorConfig(primary, fallback string) *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Provider:         primary,
			FallbackProvider: fallback,
			OllamaURL:        "http://127.0.0.1:1",
			EnableCache:      true,
			CacheTTL:         time.Minute,
		},
		Engine:    config.EngineConfig{GenerationTimeout: time.Second},
		Breaker:   config.BreakerConfig{Enabled: true, MaxRequests: 1, Timeout: time.Second, FailureRatio: 0.5, MinRequests: 2},
		RateLimit: config.RateLimitConfig{Enable: true, RequestsPerMin: 60, BurstSize: 5},
	}
}

func TestNewGenerator(t *testing.T) {
	cache := memory.NewCacheRepository()
	defer cache.Close()

	t.Run("no providers", func(t *testing.T) {
		g := NewGenerator(generatorConfig("none", "none"), cache, zap.NewNop())
		assert.Nil(t, g.Chain)
		assert.Empty(t, g.Providers)
	})

	t.Run("primary then fallback", func(t *testing.T) {
		g := NewGenerator(generatorConfig("ollama", "openai"), cache, zap.NewNop())
		require.NotNil(t, g.Chain)
		assert.IsType(t, &ai.CachedGenerator{}, g.Chain)
		assert.Equal(t, "ollama>openai", g.Chain.Name())
		require.Len(t, g.Providers, 2)
		assert.Equal(t, "ollama", g.Providers[0].Name())
	})

	t.Run("unreachable providers fail the chain", func(t *testing.T) {
		g := NewGenerator(generatorConfig("ollama", "openai"), cache, zap.NewNop())
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := g.Chain.Generate(ctx, outbound.GenerationRequest{PackSize: 6})
		assert.Error(t, err)
	})
}
