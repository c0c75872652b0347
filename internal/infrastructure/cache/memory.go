// Package cache holds the port.Cache adapters. Values are stored as JSON so
// callers never share memory with a cached entry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
)

// MemoryCache is a process-local cache with lock-free reads
type MemoryCache struct {
	entries sync.Map
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.entries.Load(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw.([]byte), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	c.entries.Store(key, data)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		c.entries.Delete(key)
	}
	return nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		return true
	})
	return nil
}

var _ port.Cache = (*MemoryCache)(nil)
