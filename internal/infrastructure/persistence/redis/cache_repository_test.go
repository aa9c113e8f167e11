package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/ports/outbound"
)

// CacheRepositorySuite runs against a live Redis named by WELLPACK_TEST_REDIS_ADDR
type CacheRepositorySuite struct {
	suite.Suite
	client goredis.UniversalClient
	repo   *CacheRepository
	ctx    context.Context
}

func TestCacheRepositorySuite(t *testing.T) {
	addr := os.Getenv("WELLPACK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WELLPACK_TEST_REDIS_ADDR not set")
	}
	suite.Run(t, &CacheRepositorySuite{
		client: goredis.NewUniversalClient(&goredis.UniversalOptions{Addrs: []string{addr}}),
	})
}

func (s *CacheRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.client.Ping(s.ctx).Err())
	s.repo = NewCacheRepository(s.client, zap.NewNop())
}

func (s *CacheRepositorySuite) TearDownSuite() {
	_ = s.client.Close()
}

func (s *CacheRepositorySuite) TestRoundTrip() {
	key := "wellpack:test:" + time.Now().Format(time.RFC3339Nano)
	defer s.repo.Delete(s.ctx, key)

	_, err := s.repo.Get(s.ctx, key)
	s.ErrorIs(err, outbound.ErrCacheMiss)

	s.Require().NoError(s.repo.Set(s.ctx, key, []byte("payload"), time.Minute))
	got, err := s.repo.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal("payload", string(got))

	ok, err := s.repo.Exists(s.ctx, key)
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.repo.Delete(s.ctx, key))
	ok, err = s.repo.Exists(s.ctx, key)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *CacheRepositorySuite) TestExpiry() {
	key := "wellpack:test:ttl:" + time.Now().Format(time.RFC3339Nano)
	s.Require().NoError(s.repo.Set(s.ctx, key, []byte("x"), 50*time.Millisecond))
	s.Eventually(func() bool {
		ok, err := s.repo.Exists(s.ctx, key)
		return err == nil && !ok
	}, 2*time.Second, 20*time.Millisecond)
}
