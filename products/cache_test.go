package products

import (
	"context"
	"testing"
	"time"

	"shopfront/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return NewRedisCache(client), mr, cleanup
}

func TestRedisCache_SetThenGet(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	p := models.Product{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("249.50"), Images: []string{"mug.jpg"}}
	require.NoError(t, cache.Set(ctx, p))

	got, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Mug", got.Name)
	assert.True(t, p.Price.Equal(got.Price))

	ttl := mr.TTL(cacheKey("p1"))
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.Less(t, ttl, 15*time.Minute)
}

func TestRedisCache_Miss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := cache.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	mr.Set(cacheKey("p1"), "{not json")

	_, err := cache.Get(context.Background(), "p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_ServerDown(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	mr.Close()

	_, err := cache.Get(context.Background(), "p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
