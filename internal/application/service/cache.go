package service

import (
	"context"
)

// readThrough serves key from the cache or loads, stores and returns it.
// Concurrent misses on one key share a single load. A load that raced with an
// eviction is returned to its callers but not stored. The generation check and
// the store run under cacheMu so an eviction either lands first and blocks the
// store, or lands after it and deletes the entry.
func readThrough[T any](ctx context.Context, s *workflowServiceImpl, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	found, err := s.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		s.logger.Warn("Cache read failed", "key", key, "error", err)
	case found:
		s.metrics.RecordCacheHit(cacheName)
		return cached, nil
	}
	s.metrics.RecordCacheMiss(cacheName)

	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		gen := s.generation.Load()

		val, err := load(ctx)
		if err != nil {
			return nil, err
		}

		s.cacheMu.RLock()
		defer s.cacheMu.RUnlock()
		if s.generation.Load() == gen {
			if err := s.cache.Set(ctx, key, val); err != nil {
				s.logger.Warn("Cache write failed", "key", key, "error", err)
			}
		}
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// evict removes the entry of one workflow and every list it may appear in
func (s *workflowServiceImpl) evict(ctx context.Context, workflowID, creatorID int64) {
	s.evictKeys(ctx, evictionKeys(workflowID, creatorID))
}

// evictExecutionViews removes the entries that embed execution statistics of a workflow
func (s *workflowServiceImpl) evictExecutionViews(ctx context.Context, workflowID int64) {
	s.evictKeys(ctx, executionViewKeys(workflowID))
}

func (s *workflowServiceImpl) evictKeys(ctx context.Context, keys []string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.generation.Add(1)
	for _, key := range keys {
		s.loads.Forget(key)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Error("Cache eviction failed", "keys", keys, "error", err)
	}
}

// evictAll drops every cached workflow entry
func (s *workflowServiceImpl) evictAll(ctx context.Context) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.generation.Add(1)
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Error("Cache clear failed", "error", err)
	}
}
