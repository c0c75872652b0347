package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
)

type cachedWorkflow struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func setupRedis(t *testing.T, prefix string) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(RedisConfig{Addr: mr.Addr(), Prefix: prefix}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func implementations(t *testing.T) map[string]port.Cache {
	_, redisCache := setupRedis(t, "test:")
	return map[string]port.Cache{
		"memory": NewMemoryCache(),
		"redis":  redisCache,
	}
}

func TestCache_Contract(t *testing.T) {
	for name, c := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var got cachedWorkflow
			found, err := c.Get(ctx, "workflow:1", &got)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, c.Set(ctx, "workflow:1", cachedWorkflow{ID: 1, Name: "Expense", Status: "DRAFT"}))
			require.NoError(t, c.Set(ctx, "workflows:all", []cachedWorkflow{{ID: 1}}))

			found, err = c.Get(ctx, "workflow:1", &got)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, cachedWorkflow{ID: 1, Name: "Expense", Status: "DRAFT"}, got)

			require.NoError(t, c.Delete(ctx, "workflow:1", "missing"))
			found, err = c.Get(ctx, "workflow:1", &got)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, c.Clear(ctx))
			var list []cachedWorkflow
			found, err = c.Get(ctx, "workflows:all", &list)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestCache_ValuesAreCopies(t *testing.T) {
	for name, c := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			value := &cachedWorkflow{ID: 1, Status: "DRAFT"}
			require.NoError(t, c.Set(ctx, "workflow:1", value))

			value.Status = "ACTIVE"

			var got cachedWorkflow
			_, err := c.Get(ctx, "workflow:1", &got)
			require.NoError(t, err)
			assert.Equal(t, "DRAFT", got.Status)
		})
	}
}

func TestRedisCache_ClearKeepsForeignKeys(t *testing.T) {
	mr, c := setupRedis(t, "javaflow:")
	ctx := context.Background()

	require.NoError(t, mr.Set("other-app:key", "keep"))
	for i := 0; i < 250; i++ {
		require.NoError(t, c.Set(ctx, "workflow:"+string(rune('a'+i%26))+string(rune('a'+i/26)), i))
	}

	require.NoError(t, c.Clear(ctx))

	assert.Equal(t, []string{"other-app:key"}, mr.Keys())
}

func TestRedisCache_StoresUnderPrefixWithoutTTL(t *testing.T) {
	mr, c := setupRedis(t, "")

	require.NoError(t, c.Set(context.Background(), "workflow:7", cachedWorkflow{ID: 7}))

	assert.True(t, mr.Exists("javaflow:workflow:7"))
	assert.Zero(t, mr.TTL("javaflow:workflow:7"))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(RedisConfig{Addr: addr}, zap.NewNop())
	assert.Error(t, err)
}
