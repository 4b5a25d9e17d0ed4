package store

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps everything in process memory. Nothing survives a
// restart.
type MemoryStore struct {
	cache *cache.Cache
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	val, ok := m.cache.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	return val.(string), nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}

// Cached is a read-through layer over a slower store. Writes go to the
// backing store first and only then refresh the cached copy.
type Cached struct {
	backing Store
	cache   *cache.Cache
	ttl     time.Duration
}

var _ Store = (*Cached)(nil)

func NewCached(backing Store, ttl time.Duration) *Cached {
	return &Cached{
		backing: backing,
		cache:   cache.New(ttl, 2*ttl),
		ttl:     ttl,
	}
}

func (c *Cached) Get(ctx context.Context, key string) (string, error) {
	if val, ok := c.cache.Get(key); ok {
		return val.(string), nil
	}
	val, err := c.backing.Get(ctx, key)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, val, c.ttl)
	return val, nil
}

func (c *Cached) Set(ctx context.Context, key, value string) error {
	if err := c.backing.Set(ctx, key, value); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, value, c.ttl)
	return nil
}

func (c *Cached) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return c.backing.Delete(ctx, key)
}

func (c *Cached) Close() error {
	c.cache.Flush()
	return c.backing.Close()
}
