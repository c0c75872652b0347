package porttest

import (
	"context"
	"encoding/json"
	"sync"
)

// Cache is a map-backed port.Cache that round-trips values through JSON
type Cache struct {
	mu      sync.Mutex
	entries map[string][]byte

	Gets    int
	Deletes [][]string
	Clears  int
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Gets++
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deletes = append(c.Deletes, keys)
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Clears++
	c.entries = make(map[string][]byte)
	return nil
}

// Has reports whether key currently holds an entry
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}
