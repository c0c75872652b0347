package port

import "context"

// Cache is a key/value store for read-through query results.
// Values are copied in and out; an entry is replaced or removed, never mutated.
type Cache interface {
	// Get decodes the entry into dest and reports whether it was found
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}
