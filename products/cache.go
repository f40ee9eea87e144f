package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"shopfront/models"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type ProductCache interface {
	Get(ctx context.Context, id string) (models.Product, error)
	Set(ctx context.Context, product models.Product) error
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 10 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, id string) (models.Product, error) {
	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Product{}, ErrCacheMiss
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("redis get failed: %w", err)
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return models.Product{}, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return p, nil
}

func (r RedisCache) Set(ctx context.Context, product models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(product.ID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}
