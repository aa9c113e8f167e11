package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wellpack/engine/internal/ports/outbound"
)

// ErrNoProviders is returned by a FallbackGenerator built without providers
var ErrNoProviders = errors.New("no generation providers configured")

// RateLimitedGenerator waits on a token bucket before every call
type RateLimitedGenerator struct {
	next    outbound.CandidateGenerator
	limiter *rate.Limiter
}

// NewRateLimitedGenerator allows requestsPerMin calls per minute with the given burst
func NewRateLimitedGenerator(next outbound.CandidateGenerator, requestsPerMin, burst int) *RateLimitedGenerator {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedGenerator{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerMin)/60, burst),
	}
}

func (g *RateLimitedGenerator) Name() string { return g.next.Name() }

// Generate blocks until a token is available or ctx ends
func (g *RateLimitedGenerator) Generate(ctx context.Context, req outbound.GenerationRequest) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return g.next.Generate(ctx, req)
}

// BreakerSettings configures a BreakerGenerator
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// BreakerGenerator stops calling a failing provider until it has had time to recover
type BreakerGenerator struct {
	next outbound.CandidateGenerator
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerGenerator wraps next in a circuit breaker that trips on the failure ratio
func NewBreakerGenerator(next outbound.CandidateGenerator, s BreakerSettings, logger *zap.Logger) *BreakerGenerator {
	log := logger.Named("generator-breaker")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// caller cancellation is not a provider failure
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerGenerator{next: next, cb: cb}
}

func (g *BreakerGenerator) Name() string { return g.next.Name() }

// State returns the breaker state name
func (g *BreakerGenerator) State() string { return g.cb.State().String() }

// Generate runs the call through the breaker
func (g *BreakerGenerator) Generate(ctx context.Context, req outbound.GenerationRequest) (string, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.Generate(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// FallbackGenerator tries each provider in order and returns the first payload
type FallbackGenerator struct {
	providers []outbound.CandidateGenerator
	logger    *zap.Logger
}

// NewFallbackGenerator creates a provider chain; the first provider is primary
func NewFallbackGenerator(logger *zap.Logger, providers ...outbound.CandidateGenerator) *FallbackGenerator {
	return &FallbackGenerator{
		providers: providers,
		logger:    logger.Named("generator-fallback"),
	}
}

// Name joins the provider names, primary first
func (g *FallbackGenerator) Name() string {
	names := make([]string, len(g.providers))
	for i, p := range g.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, ">")
}

// Generate returns the first successful payload. It stops early when ctx ends.
func (g *FallbackGenerator) Generate(ctx context.Context, req outbound.GenerationRequest) (string, error) {
	if len(g.providers) == 0 {
		return "", ErrNoProviders
	}
	var errs []error
	for _, p := range g.providers {
		payload, err := p.Generate(ctx, req)
		if err == nil {
			return payload, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
		g.logger.Warn("Generation provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.Error(err))
	}
	return "", errors.Join(errs...)
}
