//go:build integration

package authcontext_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"podium/internal/auth/store/authcontext"
	"podium/pkg/testutil/containers"
)

// storageSuite runs the same behaviour checks against every networked backend.
type storageSuite struct {
	suite.Suite
	storage authcontext.Storage
	reset   func(ctx context.Context) error
}

func (s *storageSuite) SetupTest() {
	s.Require().NoError(s.reset(context.Background()))
}

func (s *storageSuite) TestSetGetRemove() {
	ctx := context.Background()
	expires := time.Now().Add(time.Minute)

	s.Require().NoError(s.storage.Set(ctx, "sid-1", authcontext.KeyFlow, "raw-1", expires))
	raw, ok, err := s.storage.Get(ctx, "sid-1", authcontext.KeyFlow)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("raw-1", raw)

	s.Require().NoError(s.storage.Set(ctx, "sid-1", authcontext.KeyFlow, "raw-2", expires))
	raw, _, err = s.storage.Get(ctx, "sid-1", authcontext.KeyFlow)
	s.Require().NoError(err)
	s.Equal("raw-2", raw)

	s.Require().NoError(s.storage.Remove(ctx, "sid-1", authcontext.KeyFlow))
	_, ok, err = s.storage.Get(ctx, "sid-1", authcontext.KeyFlow)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *storageSuite) TestRemoveIfLeavesNewerValue() {
	ctx := context.Background()
	expires := time.Now().Add(time.Minute)
	s.Require().NoError(s.storage.Set(ctx, "sid-1", authcontext.KeyOAuthState, "fresh", expires))

	s.Require().NoError(s.storage.RemoveIf(ctx, "sid-1", authcontext.KeyOAuthState, "stale"))
	raw, ok, err := s.storage.Get(ctx, "sid-1", authcontext.KeyOAuthState)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("fresh", raw)

	s.Require().NoError(s.storage.RemoveIf(ctx, "sid-1", authcontext.KeyOAuthState, "fresh"))
	_, ok, err = s.storage.Get(ctx, "sid-1", authcontext.KeyOAuthState)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *storageSuite) TestClearOnlyAffectsSession() {
	ctx := context.Background()
	expires := time.Now().Add(time.Minute)
	for _, k := range authcontext.AllKeys {
		s.Require().NoError(s.storage.Set(ctx, "sid-1", k, "v", expires))
	}
	s.Require().NoError(s.storage.Set(ctx, "sid-2", authcontext.KeyFlow, "v", expires))

	s.Require().NoError(s.storage.Clear(ctx, "sid-1"))

	for _, k := range authcontext.AllKeys {
		_, ok, err := s.storage.Get(ctx, "sid-1", k)
		s.Require().NoError(err)
		s.False(ok)
	}
	_, ok, err := s.storage.Get(ctx, "sid-2", authcontext.KeyFlow)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *storageSuite) TestConcurrentTakeHasOneWinner() {
	ctx := context.Background()
	s.Require().NoError(s.storage.Set(ctx, "sid-1", authcontext.KeyOAuthState, "state", time.Now().Add(time.Minute)))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := s.storage.Take(ctx, "sid-1", authcontext.KeyOAuthState); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

type PostgresStorageSuite struct {
	storageSuite
}

func TestPostgresStorageSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStorageSuite))
}

func (s *PostgresStorageSuite) SetupSuite() {
	pg := containers.GetManager().GetPostgres(s.T())
	s.storage = authcontext.NewPostgresStorage(pg.DB)
	s.reset = pg.TruncateAll
}

func (s *PostgresStorageSuite) TestDeleteExpired() {
	ctx := context.Background()
	now := time.Now()
	s.Require().NoError(s.storage.Set(ctx, "sid-1", authcontext.KeyFlow, "old", now.Add(-time.Minute)))
	s.Require().NoError(s.storage.Set(ctx, "sid-2", authcontext.KeyFlow, "new", now.Add(time.Minute)))

	deleted, err := s.storage.DeleteExpired(ctx, now)
	s.Require().NoError(err)
	s.Equal(1, deleted)

	_, ok, err := s.storage.Get(ctx, "sid-2", authcontext.KeyFlow)
	s.Require().NoError(err)
	s.True(ok)
}

type RedisStorageSuite struct {
	storageSuite
	client *containers.RedisContainer
}

func TestRedisStorageSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStorageSuite))
}

func (s *RedisStorageSuite) SetupSuite() {
	s.client = containers.GetManager().GetRedis(s.T())
	s.storage = authcontext.NewRedisStorage(s.client.Client.Client)
	s.reset = s.client.FlushAll
}

func (s *RedisStorageSuite) TestExpiryKeepsMilliseconds() {
	ctx := context.Background()
	expires := time.Now().Add(time.Minute).Truncate(time.Millisecond).Add(750 * time.Millisecond)
	s.Require().NoError(s.storage.Set(ctx, "sid-1", authcontext.KeyFlow, "v", expires))

	at, err := s.client.Client.PExpireTime(ctx, "authctx:sid-1:"+string(authcontext.KeyFlow)).Result()
	s.Require().NoError(err)
	s.Equal(expires.UnixMilli(), at.Milliseconds())
}

func (s *RedisStorageSuite) TestSubSecondTTL() {
	ctx := context.Background()
	s.Require().NoError(s.storage.Set(ctx, "sid-1", authcontext.KeyFlow, "v", time.Now().Add(300*time.Millisecond)))

	_, ok, err := s.storage.Get(ctx, "sid-1", authcontext.KeyFlow)
	s.Require().NoError(err)
	s.True(ok)
	s.Eventually(func() bool {
		_, ok, err := s.storage.Get(ctx, "sid-1", authcontext.KeyFlow)
		return err == nil && !ok
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *RedisStorageSuite) TestNativeExpiry() {
	ctx := context.Background()
	s.Require().NoError(s.storage.Set(ctx, "sid-1", authcontext.KeyFlow, "v", time.Now().Add(time.Second)))

	s.Eventually(func() bool {
		_, ok, err := s.storage.Get(ctx, "sid-1", authcontext.KeyFlow)
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}
