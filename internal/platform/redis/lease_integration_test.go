//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"givecycle/internal/platform/config"
	platformredis "givecycle/internal/platform/redis"
	"givecycle/pkg/testutil/containers"
)

type LeaseSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestLeaseSuite(t *testing.T) {
	suite.Run(t, new(LeaseSuite))
}

func (s *LeaseSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *LeaseSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *LeaseSuite) TestSingleHolder() {
	ctx := context.Background()
	first, err := platformredis.NewLease(s.redis.Client, "givecycle:sweeper", time.Minute)
	s.Require().NoError(err)
	second, err := platformredis.NewLease(s.redis.Client, "givecycle:sweeper", time.Minute)
	s.Require().NoError(err)

	ok, err := first.Acquire(ctx)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = second.Acquire(ctx)
	s.Require().NoError(err)
	s.False(ok, "lease is held by the first instance")

	s.Require().NoError(second.Release(ctx))
	ok, err = second.Acquire(ctx)
	s.Require().NoError(err)
	s.False(ok, "a non-holder release must not free the lease")

	s.Require().NoError(first.Release(ctx))
	ok, err = second.Acquire(ctx)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *LeaseSuite) TestExpiredHolderCannotReleaseSuccessor() {
	ctx := context.Background()
	stale, err := platformredis.NewLease(s.redis.Client, "givecycle:sweeper", 50*time.Millisecond)
	s.Require().NoError(err)
	successor, err := platformredis.NewLease(s.redis.Client, "givecycle:sweeper", time.Minute)
	s.Require().NoError(err)

	ok, err := stale.Acquire(ctx)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.Eventually(func() bool {
		ok, err := successor.Acquire(ctx)
		return err == nil && ok
	}, 2*time.Second, 20*time.Millisecond)

	s.Require().NoError(stale.Release(ctx))
	exists, err := s.redis.Client.Exists(ctx, "givecycle:sweeper").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)
}

func (s *LeaseSuite) TestRenewExtendsOnlyOwnLease() {
	ctx := context.Background()
	holder, err := platformredis.NewLease(s.redis.Client, "givecycle:sweeper", 200*time.Millisecond)
	s.Require().NoError(err)
	other, err := platformredis.NewLease(s.redis.Client, "givecycle:sweeper", time.Minute)
	s.Require().NoError(err)

	ok, err := other.Renew(ctx)
	s.Require().NoError(err)
	s.False(ok, "renew without holding the lease")

	ok, err = holder.Acquire(ctx)
	s.Require().NoError(err)
	s.Require().True(ok)

	for range 4 {
		time.Sleep(100 * time.Millisecond)
		ok, err = holder.Renew(ctx)
		s.Require().NoError(err)
		s.True(ok)
	}
	ok, err = other.Acquire(ctx)
	s.Require().NoError(err)
	s.False(ok, "renewed lease outlived its original ttl")

	s.Require().NoError(holder.Release(ctx))
	ok, err = holder.Renew(ctx)
	s.Require().NoError(err)
	s.False(ok, "released lease cannot be renewed")
}

func (s *LeaseSuite) TestClientFromConfig() {
	ctx := context.Background()
	client, err := platformredis.New(ctx, config.RedisConfig{URL: s.redis.URL, PoolSize: 2})
	s.Require().NoError(err)
	s.Require().NotNil(client)
	defer client.Close()

	s.NoError(client.Health(ctx))

	none, err := platformredis.New(ctx, config.RedisConfig{})
	s.NoError(err)
	s.Nil(none, "no url means single-instance mode")
}
