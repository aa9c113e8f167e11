package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/ports/outbound"
)

const cacheKeyPrefix = "wellpack:generation:"

// CachedGenerator serves repeated generation requests from a cache.
// Cache failures are logged and never fail the request.
type CachedGenerator struct {
	next   outbound.CandidateGenerator
	cache  outbound.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedGenerator wraps next with a cache-first lookup
func NewCachedGenerator(next outbound.CandidateGenerator, cache outbound.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedGenerator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedGenerator{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("cached-generator"),
	}
}

func (c *CachedGenerator) Name() string { return c.next.Name() }

// Generate returns a cached payload when one exists, otherwise calls through and stores the result
func (c *CachedGenerator) Generate(ctx context.Context, req outbound.GenerationRequest) (string, error) {
	key, err := c.key(req)
	if err != nil {
		c.logger.Warn("Failed to build cache key", zap.Error(err))
		return c.next.Generate(ctx, req)
	}

	if cached, err := c.cache.Get(ctx, key); err == nil && len(cached) > 0 {
		c.logger.Debug("Generation cache hit", zap.String("key", key))
		return string(cached), nil
	}

	payload, err := c.next.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, []byte(payload), c.ttl); err != nil {
		c.logger.Warn("Failed to cache generation payload", zap.String("key", key), zap.Error(err))
	}
	return payload, nil
}

// key hashes the provider name with the full request
func (c *CachedGenerator) key(req outbound.GenerationRequest) (string, error) {
	raw, err := json.Marshal(struct {
		Provider string                     `json:"provider"`
		Request  outbound.GenerationRequest `json:"request"`
	}{c.next.Name(), req})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return cacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}
