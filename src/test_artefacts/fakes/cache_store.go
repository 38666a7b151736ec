package fakes

import (
	"context"
	"sync"
)

// CacheStore imita o RedisClient: hashes com "data" e sets de registro.
type CacheStore struct {
	mu     sync.Mutex
	values map[string]string
	sets   map[string]map[string]bool

	GetErr error
}

func NewCacheStore() *CacheStore {
	return &CacheStore{
		values: make(map[string]string),
		sets:   make(map[string]map[string]bool),
	}
}

func (c *CacheStore) GetKey(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.GetErr != nil {
		return "", false, c.GetErr
	}
	value, found := c.values[key]
	return value, found, nil
}

func (c *CacheStore) SetWithRegistry(_ context.Context, cacheKey string, cacheValue string, registryKeys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[cacheKey] = cacheValue
	for _, registry := range registryKeys {
		if c.sets[registry] == nil {
			c.sets[registry] = make(map[string]bool)
		}
		c.sets[registry][cacheKey] = true
	}
	return nil
}

func (c *CacheStore) GetMultipleSetMembers(_ context.Context, keys []string) (map[string][]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string][]string, len(keys))
	for _, key := range keys {
		for member := range c.sets[key] {
			out[key] = append(out[key], member)
		}
	}
	return out, nil
}

func (c *CacheStore) DeleteKeys(_ context.Context, keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.values, key)
		delete(c.sets, key)
	}
	return nil
}

// Len devolve quantas chaves de dados estão em cache.
func (c *CacheStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}
