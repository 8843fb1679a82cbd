// Package cache keeps controller lookups in Redis.
//
// Registrations are never changed or released, so a cached controller cannot go
// stale while the store it came from lives; the TTL only bounds memory. Keys are
// namespaced by the store epoch, so a restarted in-memory store or a restored
// database never sees entries written against an earlier state. Only hits from
// the store are cached.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "registrar/pkg/domain"
	"registrar/pkg/platform/circuit"
)

const keyPrefix = "registrar:controller:"

// ControllerCache maps a fully qualified name to its controller.
type ControllerCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	prefix  string
	breaker *circuit.Breaker
}

type Option func(*ControllerCache)

// WithNamespace scopes keys to epoch, the identity of the backing store's
// state. An empty epoch leaves keys unscoped.
func WithNamespace(epoch string) Option {
	return func(c *ControllerCache) {
		if epoch != "" {
			c.prefix = keyPrefix + epoch + ":"
		}
	}
}

// WithBreaker skips Redis while b is open; reads become misses and writes are
// dropped until a trial request succeeds.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *ControllerCache) {
		c.breaker = b
	}
}

// New creates a cache over client. A non-positive ttl stores keys without
// expiry.
func New(client redis.Cmdable, ttl time.Duration, opts ...Option) *ControllerCache {
	if ttl < 0 {
		ttl = 0
	}
	c := &ControllerCache{client: client, ttl: ttl, prefix: keyPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ControllerCache) allow() bool {
	return c.breaker == nil || c.breaker.Allow()
}

func (c *ControllerCache) record(err error) {
	if c.breaker == nil {
		return
	}
	if err != nil {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

// GetController returns the cached controller for name. ok is false on a miss.
func (c *ControllerCache) GetController(ctx context.Context, name string) (controller id.Identity, ok bool, err error) {
	if !c.allow() {
		return "", false, nil
	}
	raw, err := c.client.Get(ctx, c.Key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.record(nil)
			return "", false, nil
		}
		c.record(err)
		return "", false, fmt.Errorf("cache get %s: %w", name, err)
	}
	c.record(nil)
	controller, err = id.ParseIdentity(raw)
	if err != nil {
		return "", false, fmt.Errorf("cache value for %s: %w", name, err)
	}
	return controller, true, nil
}

// SetController stores the controller for name.
func (c *ControllerCache) SetController(ctx context.Context, name string, controller id.Identity) error {
	if !c.allow() {
		return nil
	}
	err := c.client.Set(ctx, c.Key(name), controller.String(), c.ttl).Err()
	c.record(err)
	if err != nil {
		return fmt.Errorf("cache set %s: %w", name, err)
	}
	return nil
}

// Key returns the Redis key for a fully qualified name.
func (c *ControllerCache) Key(name string) string {
	return c.prefix + name
}
