package ai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/infrastructure/ai"
	"github.com/wellpack/engine/internal/ports/outbound"
	"github.com/wellpack/engine/test/testutils"
)

var errProvider = errors.New("provider down")

func TestRateLimitedGenerator_PassesThrough(t *testing.T) {
	next := testutils.NewMockCandidateGenerator("ollama")
	next.On("Generate", mock.Anything, mock.Anything).Return(`{"recommendations":[]}`, nil)

	g := ai.NewRateLimitedGenerator(next, 600, 2)
	assert.Equal(t, "ollama", g.Name())

	for i := 0; i < 2; i++ {
		out, err := g.Generate(context.Background(), outbound.GenerationRequest{})
		require.NoError(t, err)
		assert.Equal(t, `{"recommendations":[]}`, out)
	}
	next.AssertNumberOfCalls(t, "Generate", 2)
}

func TestRateLimitedGenerator_WaitHonorsContext(t *testing.T) {
	next := testutils.NewMockCandidateGenerator("ollama")
	next.On("Generate", mock.Anything, mock.Anything).Return("{}", nil)

	// one request per minute: the second call cannot get a token before the deadline
	g := ai.NewRateLimitedGenerator(next, 1, 1)
	_, err := g.Generate(context.Background(), outbound.GenerationRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, outbound.GenerationRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	next.AssertNumberOfCalls(t, "Generate", 1)
}

func TestBreakerGenerator_TripsOnFailureRatio(t *testing.T) {
	next := testutils.NewMockCandidateGenerator("openai")
	next.On("Generate", mock.Anything, mock.Anything).Return("", errProvider)

	g := ai.NewBreakerGenerator(next, ai.BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  3,
	}, zap.NewNop())
	assert.Equal(t, "closed", g.State())

	for i := 0; i < 3; i++ {
		_, err := g.Generate(context.Background(), outbound.GenerationRequest{})
		assert.ErrorIs(t, err, errProvider)
	}
	assert.Equal(t, "open", g.State())

	_, err := g.Generate(context.Background(), outbound.GenerationRequest{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errProvider)
	next.AssertNumberOfCalls(t, "Generate", 3)
}

func TestBreakerGenerator_CancellationIsNotAFailure(t *testing.T) {
	next := testutils.NewMockCandidateGenerator("openai")
	next.On("Generate", mock.Anything, mock.Anything).Return("", context.Canceled)

	g := ai.NewBreakerGenerator(next, ai.BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  1,
	}, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := g.Generate(context.Background(), outbound.GenerationRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", g.State())
}

func TestFallbackGenerator(t *testing.T) {
	t.Run("primary succeeds", func(t *testing.T) {
		primary := testutils.NewMockCandidateGenerator("ollama")
		secondary := testutils.NewMockCandidateGenerator("openai")
		primary.On("Generate", mock.Anything, mock.Anything).Return("primary", nil)

		g := ai.NewFallbackGenerator(zap.NewNop(), primary, secondary)
		out, err := g.Generate(context.Background(), outbound.GenerationRequest{})
		require.NoError(t, err)
		assert.Equal(t, "primary", out)
		secondary.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("falls over to secondary", func(t *testing.T) {
		primary := testutils.NewMockCandidateGenerator("ollama")
		secondary := testutils.NewMockCandidateGenerator("openai")
		primary.On("Generate", mock.Anything, mock.Anything).Return("", errProvider)
		secondary.On("Generate", mock.Anything, mock.Anything).Return("secondary", nil)

		g := ai.NewFallbackGenerator(zap.NewNop(), primary, secondary)
		assert.Equal(t, "ollama>openai", g.Name())
		out, err := g.Generate(context.Background(), outbound.GenerationRequest{})
		require.NoError(t, err)
		assert.Equal(t, "secondary", out)
	})

	t.Run("all fail", func(t *testing.T) {
		primary := testutils.NewMockCandidateGenerator("ollama")
		secondary := testutils.NewMockCandidateGenerator("openai")
		primary.On("Generate", mock.Anything, mock.Anything).Return("", errProvider)
		secondary.On("Generate", mock.Anything, mock.Anything).Return("", ai.ErrNoProviders)

		g := ai.NewFallbackGenerator(zap.NewNop(), primary, secondary)
		_, err := g.Generate(context.Background(), outbound.GenerationRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, errProvider)
		assert.ErrorIs(t, err, ai.ErrNoProviders)
		assert.Contains(t, err.Error(), "ollama:")
		assert.Contains(t, err.Error(), "openai:")
	})

	t.Run("stops when context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		primary := testutils.NewMockCandidateGenerator("ollama")
		secondary := testutils.NewMockCandidateGenerator("openai")
		primary.On("Generate", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return("", context.Canceled)

		g := ai.NewFallbackGenerator(zap.NewNop(), primary, secondary)
		_, err := g.Generate(ctx, outbound.GenerationRequest{})
		assert.ErrorIs(t, err, context.Canceled)
		secondary.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("no providers", func(t *testing.T) {
		g := ai.NewFallbackGenerator(zap.NewNop())
		_, err := g.Generate(context.Background(), outbound.GenerationRequest{})
		assert.ErrorIs(t, err, ai.ErrNoProviders)
	})
}
