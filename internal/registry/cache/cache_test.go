package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	id "registrar/pkg/domain"
	"registrar/pkg/platform/circuit"
)

const controller = id.Identity("0x00000000000000000000000000000000000000a1")

type ControllerCacheSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	cache  *ControllerCache
}

func TestControllerCacheSuite(t *testing.T) {
	suite.Run(t, new(ControllerCacheSuite))
}

func (s *ControllerCacheSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = s.client.Close() })
	s.cache = New(s.client, time.Minute)
}

func (s *ControllerCacheSuite) TestMissThenHit() {
	ctx := context.Background()

	_, ok, err := s.cache.GetController(ctx, "com")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.cache.SetController(ctx, "com", controller))

	got, ok, err := s.cache.GetController(ctx, "com")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(controller, got)

	ttl := s.mr.TTL(s.cache.Key("com"))
	s.Positive(ttl)
	s.LessOrEqual(ttl, time.Minute)
}

func (s *ControllerCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	s.Require().NoError(s.cache.SetController(ctx, "test.com", controller))

	s.mr.FastForward(2 * time.Minute)

	_, ok, err := s.cache.GetController(ctx, "test.com")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ControllerCacheSuite) TestCorruptValueIsAnError() {
	ctx := context.Background()
	s.Require().NoError(s.mr.Set(s.cache.Key("com"), "garbage"))

	_, ok, err := s.cache.GetController(ctx, "com")
	s.Error(err)
	s.False(ok)
}

func (s *ControllerCacheSuite) TestUnavailableRedis() {
	s.mr.Close()

	_, _, err := s.cache.GetController(context.Background(), "com")
	s.Error(err)
	s.Error(s.cache.SetController(context.Background(), "com", controller))
}

func (s *ControllerCacheSuite) TestBreakerSkipsRedisWhileOpen() {
	ctx := context.Background()
	breaker := circuit.New("controller-cache", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	c := New(s.client, time.Minute, WithBreaker(breaker))
	s.mr.Close()

	_, _, err := c.GetController(ctx, "com")
	s.Error(err)
	s.Error(c.SetController(ctx, "com", controller))
	s.True(breaker.IsOpen())

	_, ok, err := c.GetController(ctx, "com")
	s.NoError(err, "open circuit reads are quiet misses")
	s.False(ok)
	s.NoError(c.SetController(ctx, "com", controller))
}

func (s *ControllerCacheSuite) TestNamespacesAreIsolated() {
	ctx := context.Background()
	before := New(s.client, time.Minute, WithNamespace("epoch-1"))
	after := New(s.client, time.Minute, WithNamespace("epoch-2"))

	s.Require().NoError(before.SetController(ctx, "com", controller))

	_, ok, err := after.GetController(ctx, "com")
	s.Require().NoError(err)
	s.False(ok, "an entry from another epoch is a miss")
	s.NotEqual(before.Key("com"), after.Key("com"))
	s.Equal(New(s.client, time.Minute, WithNamespace("")).Key("com"), s.cache.Key("com"))
}
