package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
)

var ErrCacheMiss = errors.New("cache miss")

const keyPrefix = "catalog:"

// CatalogCache holds product listings keyed by a listing name such as "all"
// or "category:shoes".
type CatalogCache interface {
	Get(ctx context.Context, listing string) ([]*entity.Product, error)
	Set(ctx context.Context, listing string, products []*entity.Product) error
	Invalidate(ctx context.Context) error
}

type RedisCatalogCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCatalogCache(client *redis.Client, baseTTL time.Duration) *RedisCatalogCache {
	if baseTTL <= 0 {
		baseTTL = 10 * time.Minute
	}
	return &RedisCatalogCache{client: client, baseTTL: baseTTL}
}

func cacheKey(listing string) string {
	return keyPrefix + listing
}

func (r *RedisCatalogCache) Get(ctx context.Context, listing string) ([]*entity.Product, error) {
	data, err := r.client.Get(ctx, cacheKey(listing)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []*entity.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal products failed: %w", err)
	}
	return products, nil
}

// Set stores a listing with the base TTL plus up to two minutes of jitter so
// listings written together do not expire together.
func (r *RedisCatalogCache) Set(ctx context.Context, listing string, products []*entity.Product) error {
	b, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products failed: %w", err)
	}
	ttl := r.baseTTL + time.Duration(rand.Int63n(int64(2*time.Minute)))
	if err := r.client.Set(ctx, cacheKey(listing), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate drops every catalog listing.
func (r *RedisCatalogCache) Invalidate(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// NopCatalogCache always misses. It stands in when Redis is not configured.
type NopCatalogCache struct{}

func (NopCatalogCache) Get(context.Context, string) ([]*entity.Product, error) {
	return nil, ErrCacheMiss
}

func (NopCatalogCache) Set(context.Context, string, []*entity.Product) error { return nil }

func (NopCatalogCache) Invalidate(context.Context) error { return nil }

var (
	_ CatalogCache = (*RedisCatalogCache)(nil)
	_ CatalogCache = NopCatalogCache{}
)
